package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/aquaguide/internal/advice"
)

type chatRequest struct {
	Message string `json:"message"`
}

func PostAdvice(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reading advice.Reading
		if err := bindJSON(c, &reading); err != nil {
			HandleError(c, app.Logger(), err, "advice service unavailable")
			return
		}
		text, err := app.Advice().WaterAdvice(c.Request.Context(), reading)
		if err != nil {
			HandleError(c, app.Logger(), err, "advice service unavailable")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"advice": text}, nil)
	}
}

func PostChat(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := bindJSON(c, &req); err != nil {
			HandleError(c, app.Logger(), err, "advice service unavailable")
			return
		}
		text, err := app.Advice().Answer(c.Request.Context(), req.Message)
		if err != nil {
			HandleError(c, app.Logger(), err, "advice service unavailable")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"reply": text}, map[string]any{"language": advice.DetectLanguage(req.Message)})
	}
}
