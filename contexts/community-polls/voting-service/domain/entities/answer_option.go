package entities

import (
	"strings"
	"time"
)

type AnswerOption struct {
	AnswerOptionID string
	QuestionID     string
	Title          string
	ImageRef       string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasContent enforces that at least one of title, image, or description is set.
func (a AnswerOption) HasContent() bool {
	return strings.TrimSpace(a.Title) != "" ||
		strings.TrimSpace(a.ImageRef) != "" ||
		strings.TrimSpace(a.Description) != ""
}

// Label is the display text used in listings and audit lines.
func (a AnswerOption) Label() string {
	if title := strings.TrimSpace(a.Title); title != "" {
		return title
	}
	return a.AnswerOptionID
}
