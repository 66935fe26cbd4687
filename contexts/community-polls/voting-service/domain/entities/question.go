package entities

import "time"

type Question struct {
	QuestionID  string
	Title       string
	Identifier  string
	Visible     bool
	ActivatesAt *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VotingWindowOpen reports whether now falls inside the optional
// activation/expiration window. A missing bound is treated as open.
func (q Question) VotingWindowOpen(now time.Time) bool {
	if q.ActivatesAt != nil && now.Before(q.ActivatesAt.UTC()) {
		return false
	}
	if q.ExpiresAt != nil && !now.Before(q.ExpiresAt.UTC()) {
		return false
	}
	return true
}

// AcceptsVotes combines visibility and the voting window.
func (q Question) AcceptsVotes(now time.Time) bool {
	return q.Visible && q.VotingWindowOpen(now)
}
