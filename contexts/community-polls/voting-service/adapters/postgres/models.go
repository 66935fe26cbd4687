package postgresadapter

import (
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
)

type questionModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Title       string     `gorm:"column:title;not null"`
	Identifier  string     `gorm:"column:identifier;not null;uniqueIndex:ux_voting_questions_identifier"`
	Visible     bool       `gorm:"column:visible;not null"`
	ActivatesAt *time.Time `gorm:"column:activates_at"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null"`
}

func (questionModel) TableName() string {
	return "voting_questions"
}

func questionModelFromEntity(question entities.Question) questionModel {
	return questionModel{
		ID:          question.QuestionID,
		Title:       question.Title,
		Identifier:  question.Identifier,
		Visible:     question.Visible,
		ActivatesAt: normalizeOptionalTime(question.ActivatesAt),
		ExpiresAt:   normalizeOptionalTime(question.ExpiresAt),
		CreatedAt:   question.CreatedAt.UTC(),
		UpdatedAt:   question.UpdatedAt.UTC(),
	}
}

func (m questionModel) toEntity() entities.Question {
	return entities.Question{
		QuestionID:  m.ID,
		Title:       m.Title,
		Identifier:  m.Identifier,
		Visible:     m.Visible,
		ActivatesAt: normalizeOptionalTime(m.ActivatesAt),
		ExpiresAt:   normalizeOptionalTime(m.ExpiresAt),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type answerOptionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	QuestionID  string    `gorm:"column:question_id;not null;index:ix_voting_answer_options_question"`
	Title       string    `gorm:"column:title"`
	ImageRef    string    `gorm:"column:image_ref"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (answerOptionModel) TableName() string {
	return "voting_answer_options"
}

func answerOptionModelFromEntity(option entities.AnswerOption) answerOptionModel {
	return answerOptionModel{
		ID:          option.AnswerOptionID,
		QuestionID:  option.QuestionID,
		Title:       option.Title,
		ImageRef:    option.ImageRef,
		Description: option.Description,
		CreatedAt:   option.CreatedAt.UTC(),
		UpdatedAt:   option.UpdatedAt.UTC(),
	}
}

func (m answerOptionModel) toEntity() entities.AnswerOption {
	return entities.AnswerOption{
		AnswerOptionID: m.ID,
		QuestionID:     m.QuestionID,
		Title:          m.Title,
		ImageRef:       m.ImageRef,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	QuestionID     string    `gorm:"column:question_id;not null;index:ix_votes_question_created,priority:1"`
	AnswerOptionID string    `gorm:"column:answer_option_id;not null;index:ix_votes_answer_option"`
	UserID         string    `gorm:"column:user_id;not null;index:ix_votes_user"`
	SelectedOption string    `gorm:"column:selected_option"`
	AdminOverride  bool      `gorm:"column:admin_override;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index:ix_votes_question_created,priority:2"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:             vote.VoteID,
		QuestionID:     vote.QuestionID,
		AnswerOptionID: vote.AnswerOptionID,
		UserID:         vote.UserID,
		SelectedOption: vote.SelectedOption,
		AdminOverride:  vote.AdminOverride,
		CreatedAt:      vote.CreatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:         m.ID,
		UserID:         m.UserID,
		QuestionID:     m.QuestionID,
		AnswerOptionID: m.AnswerOptionID,
		SelectedOption: m.SelectedOption,
		AdminOverride:  m.AdminOverride,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type apiKeyModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Key       string    `gorm:"column:api_key;not null;uniqueIndex:ux_voting_api_keys_key"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (apiKeyModel) TableName() string {
	return "voting_api_keys"
}

func (m apiKeyModel) toEntity() entities.APIKey {
	return entities.APIKey{
		APIKeyID:  m.ID,
		Key:       m.Key,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index:ix_voting_outbox_status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "voting_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "voting_event_dedup"
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
