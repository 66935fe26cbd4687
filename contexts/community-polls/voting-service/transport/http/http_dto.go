package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitVoteRequest struct {
	QuestionID     string `json:"question_id"`
	AnswerOptionID string `json:"answer_id"`
	SelectedOption string `json:"selected_option,omitempty"`
}

type VoteResponse struct {
	VoteID         string    `json:"vote_id"`
	QuestionID     string    `json:"question_id"`
	AnswerOptionID string    `json:"answer_id"`
	UserID         string    `json:"user_id"`
	SelectedOption string    `json:"selected_option,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type QuestionResponse struct {
	QuestionID  string     `json:"question_id"`
	Title       string     `json:"title"`
	Identifier  string     `json:"identifier"`
	Visible     bool       `json:"visible"`
	ActivatesAt *time.Time `json:"activates_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type QuestionListResponse struct {
	Items []QuestionResponse `json:"items"`
}

type AnswerOptionResponse struct {
	AnswerOptionID string    `json:"answer_id"`
	QuestionID     string    `json:"question_id"`
	Title          string    `json:"title,omitempty"`
	ImageRef       string    `json:"image,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type QuestionDetailResponse struct {
	Question      QuestionResponse       `json:"question"`
	AnswerOptions []AnswerOptionResponse `json:"answer_options"`
}

type ResultGroupResponse struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type HighestRatedResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ResultsResponse struct {
	QuestionID   string                `json:"question_id"`
	Mode         string                `json:"mode"`
	TotalVotes   int                   `json:"total_votes"`
	Groups       []ResultGroupResponse `json:"groups"`
	Counts       map[string]int        `json:"counts"`
	Percentages  map[string]float64    `json:"percentages"`
	HighestRated *HighestRatedResponse `json:"highest_rated,omitempty"`
}

type UserVoteResponse struct {
	QuestionID     string `json:"question_id"`
	AnswerOptionID string `json:"answer_id"`
	VoteCount      int    `json:"vote_count"`
}

type UserVotesResponse struct {
	UserID string             `json:"user_id"`
	Items  []UserVoteResponse `json:"items"`
}

type QuestionRequest struct {
	Title       string     `json:"title"`
	Identifier  string     `json:"identifier,omitempty"`
	Visible     *bool      `json:"visible,omitempty"`
	ActivatesAt *time.Time `json:"activates_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type AnswerOptionRequest struct {
	QuestionID  string `json:"question_id,omitempty"`
	Title       string `json:"title,omitempty"`
	ImageRef    string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

type APIKeyResponse struct {
	APIKeyID  string    `json:"api_key_id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

type APIKeyListResponse struct {
	Items []APIKeyResponse `json:"items"`
}
