package models

import "time"

// Well-known content keys edited through the admin API and shown by the bot.
const (
	ContentInstructions = "instructions"
	ContentMorningText  = "morning_text"
	ContentEveningText  = "evening_text"
	ContentFAQ          = "faq"
)

// Content is a display-only text block; it carries no task or ledger state.
type Content struct {
	Key       string    `json:"key"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
