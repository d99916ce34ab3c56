package advice

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/yourname/aquaguide/internal"
)

// Reading is a pond sensor sample. Nil fields were not measured.
type Reading struct {
	PH          *float64 `json:"ph"`
	Temperature *float64 `json:"temperature"`
}

// Generator turns readings or questions into a short reply.
type Generator interface {
	WaterAdvice(ctx context.Context, r Reading) (string, error)
	Answer(ctx context.Context, question string) (string, error)
}

const (
	LangEnglish = "en"
	LangBangla  = "bn"
)

var bengali = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0980, Hi: 0x09FF, Stride: 1}}}

// DetectLanguage returns LangBangla if the text contains any Bengali-script rune.
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(bengali, r) {
			return LangBangla
		}
	}
	return LangEnglish
}

func validateReading(r Reading) error {
	if r.PH == nil || r.Temperature == nil {
		return internal.Validationf("ph and temperature are required")
	}
	if *r.PH < 0 || *r.PH > 14 {
		return internal.Validationf("ph must be between 0 and 14")
	}
	return nil
}

func WaterPrompt(r Reading) string {
	return fmt.Sprintf(`You are AquaSmart, a Bangladesh fish farming expert.
Sensor Data:
- pH: %.2f
- Temperature: %.1f°C

Give a short paragraph of practical farming advice:
1. Is the pH good or bad?
2. What fertilizer or medicine should be applied?
3. What water treatment is needed?
4. Give care instructions for healthy fish fry growth.
Use clear and professional language.`, *r.PH, *r.Temperature)
}

func QuestionPrompt(question string) string {
	instruction := "Answer in English only. Be short, precise, and professional like a fish expert. " +
		"Keep the reply within 1-2 sentences."
	if DetectLanguage(question) == LangBangla {
		instruction = "Answer in Bangla only. Be short and clear like a fish expert. " +
			"Give 1-2 sentences only. Use natural Bangla language."
	}
	return "You are AquaSmart, a professional fish farming expert chatbot from Bangladesh. " +
		"You provide short, practical farming advice.\n" +
		instruction + "\n\n" +
		"User: " + question + "\nBot:"
}

// StaticGenerator answers from fixed rules when no remote generator is configured.
type StaticGenerator struct{}

func (StaticGenerator) WaterAdvice(ctx context.Context, r Reading) (string, error) {
	if err := validateReading(r); err != nil {
		return "", err
	}
	var parts []string
	switch ph := *r.PH; {
	case ph < 6.5:
		parts = append(parts, fmt.Sprintf("pH %.1f is too acidic; apply agricultural lime gradually.", ph))
	case ph > 8.5:
		parts = append(parts, fmt.Sprintf("pH %.1f is too alkaline; partially exchange water and avoid extra lime.", ph))
	default:
		parts = append(parts, fmt.Sprintf("pH %.1f is within the healthy range.", ph))
	}
	switch temp := *r.Temperature; {
	case temp < 20:
		parts = append(parts, "Water is cold; reduce feeding until it warms.")
	case temp > 32:
		parts = append(parts, "Water is hot; increase aeration and add shade.")
	default:
		parts = append(parts, "Temperature suits fry growth; keep the feeding schedule.")
	}
	return strings.Join(parts, " "), nil
}

func (StaticGenerator) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", internal.Validationf("message is required")
	}
	if DetectLanguage(question) == LangBangla {
		return "দুঃখিত, এই মুহূর্তে বিশেষজ্ঞ পরামর্শ সেবা উপলব্ধ নেই।", nil
	}
	return "The advice service is not configured; please check your daily guide for care steps.", nil
}

var _ Generator = StaticGenerator{}
