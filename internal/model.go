package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// ActiveBatch is the single in-progress run a user has, if any.
type ActiveBatch struct {
	UserID    string `json:"user_id"`
	Species   string `json:"species"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
}

type GuideEntry struct {
	Species       string `json:"species" yaml:"species"`
	DayNumber     int    `json:"day_number" yaml:"day"`
	WaterCheck    string `json:"water_check_instructions" yaml:"water_check"`
	FeedName      string `json:"feed_name" yaml:"feed_name"`
	Fertilizer    string `json:"fertilizer" yaml:"fertilizer"`
	CareText      string `json:"care_text" yaml:"care_text"`
	ReferenceLink string `json:"reference_link,omitempty" yaml:"reference_link"`
}

type SpeciesInfo struct {
	Species    string `json:"species" yaml:"species"`
	Summary    string `json:"summary" yaml:"summary"`
	Details    string `json:"details" yaml:"details"`
	Fertilizer string `json:"fertilizer" yaml:"fertilizer"`
	Food       string `json:"food" yaml:"food"`
	Water      string `json:"water" yaml:"water"`
}

type FeedbackRecord struct {
	ID           string    `json:"id"`
	Species      string    `json:"species"`
	DayNumber    int       `json:"day_number"`
	RunStartDate string    `json:"run_start_date,omitempty"`
	FeedbackText string    `json:"feedback_text"`
	CreatedAt    time.Time `json:"created_at"`
}

type CompletionRecord struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Species        string `json:"species"`
	CompletionDate string `json:"completion_date"` // YYYY-MM-DD
}
