package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	moduleName            = "community-polls/voting-service"
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the gorm-backed store for every voting port. It runs on the
// postgres driver in production and on sqlite for local runs and tests.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) FindVotes(ctx context.Context, filter ports.VoteFilter) ([]entities.Vote, error) {
	tx := r.db.WithContext(ctx).Model(&voteModel{})
	if questionID := strings.TrimSpace(filter.QuestionID); questionID != "" {
		tx = tx.Where("question_id = ?", questionID)
	}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}
	var rows []voteModel
	if err := tx.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_find_votes_failed", err,
			"question_id", strings.TrimSpace(filter.QuestionID),
			"user_id", strings.TrimSpace(filter.UserID),
		)
	}
	return toVoteEntities(rows), nil
}

// InsertVote appends a ledger row. The partial unique index created by
// Migrate turns concurrent duplicates into ErrDuplicate.
func (r *Repository) InsertVote(ctx context.Context, vote entities.Vote) (string, error) {
	row := voteModelFromEntity(vote)
	if strings.TrimSpace(row.ID) == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return "", domainerrors.ErrDuplicate
		}
		return "", r.logError("voting_repo_insert_vote_failed", err,
			"vote_id", row.ID,
			"question_id", row.QuestionID,
			"user_id", row.UserID,
		)
	}
	return row.ID, nil
}

func (r *Repository) ExistsVote(ctx context.Context, questionID string, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("question_id = ?", strings.TrimSpace(questionID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Count(&count).Error; err != nil {
		return false, r.logError("voting_repo_exists_vote_failed", err,
			"question_id", strings.TrimSpace(questionID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return count > 0, nil
}

func (r *Repository) CountVotesByAnswerOption(ctx context.Context, answerOptionID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("answer_option_id = ?", strings.TrimSpace(answerOptionID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("voting_repo_count_votes_by_answer_failed", err,
			"answer_id", strings.TrimSpace(answerOptionID),
		)
	}
	return int(count), nil
}

func (r *Repository) CreateQuestion(ctx context.Context, question entities.Question) error {
	row := questionModelFromEntity(question)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdentifierTaken
		}
		return r.logError("voting_repo_create_question_failed", err, "question_id", row.ID)
	}
	return nil
}

func (r *Repository) UpdateQuestion(ctx context.Context, question entities.Question) error {
	row := questionModelFromEntity(question)
	result := r.db.WithContext(ctx).
		Model(&questionModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"title":        row.Title,
			"identifier":   row.Identifier,
			"visible":      row.Visible,
			"activates_at": row.ActivatesAt,
			"expires_at":   row.ExpiresAt,
			"updated_at":   row.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrIdentifierTaken
		}
		return r.logError("voting_repo_update_question_failed", result.Error, "question_id", row.ID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrQuestionNotFound
	}
	return nil
}

func (r *Repository) DeleteQuestion(ctx context.Context, questionID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(questionID)).
		Delete(&questionModel{})
	if result.Error != nil {
		return r.logError("voting_repo_delete_question_failed", result.Error,
			"question_id", strings.TrimSpace(questionID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrQuestionNotFound
	}
	return nil
}

func (r *Repository) GetQuestion(ctx context.Context, questionID string) (entities.Question, error) {
	var row questionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(questionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Question{}, domainerrors.ErrQuestionNotFound
		}
		return entities.Question{}, r.logError("voting_repo_get_question_failed", err,
			"question_id", strings.TrimSpace(questionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListQuestions(ctx context.Context, includeHidden bool) ([]entities.Question, error) {
	tx := r.db.WithContext(ctx).Model(&questionModel{})
	if !includeHidden {
		tx = tx.Where("visible = ?", true)
	}
	var rows []questionModel
	if err := tx.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_questions_failed", err, "include_hidden", includeHidden)
	}
	items := make([]entities.Question, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListIdentifiers(ctx context.Context) ([]string, error) {
	var items []string
	if err := r.db.WithContext(ctx).
		Model(&questionModel{}).
		Order("identifier ASC").
		Pluck("identifier", &items).Error; err != nil {
		return nil, r.logError("voting_repo_list_identifiers_failed", err)
	}
	return items, nil
}

func (r *Repository) CreateAnswerOption(ctx context.Context, option entities.AnswerOption) error {
	row := answerOptionModelFromEntity(option)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("voting_repo_create_answer_option_failed", err,
			"answer_id", row.ID,
			"question_id", row.QuestionID,
		)
	}
	return nil
}

func (r *Repository) UpdateAnswerOption(ctx context.Context, option entities.AnswerOption) error {
	row := answerOptionModelFromEntity(option)
	result := r.db.WithContext(ctx).
		Model(&answerOptionModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"title":       row.Title,
			"image_ref":   row.ImageRef,
			"description": row.Description,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("voting_repo_update_answer_option_failed", result.Error, "answer_id", row.ID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAnswerOptionNotFound
	}
	return nil
}

func (r *Repository) DeleteAnswerOption(ctx context.Context, answerOptionID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(answerOptionID)).
		Delete(&answerOptionModel{})
	if result.Error != nil {
		return r.logError("voting_repo_delete_answer_option_failed", result.Error,
			"answer_id", strings.TrimSpace(answerOptionID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAnswerOptionNotFound
	}
	return nil
}

func (r *Repository) GetAnswerOption(ctx context.Context, answerOptionID string) (entities.AnswerOption, error) {
	var row answerOptionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(answerOptionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AnswerOption{}, domainerrors.ErrAnswerOptionNotFound
		}
		return entities.AnswerOption{}, r.logError("voting_repo_get_answer_option_failed", err,
			"answer_id", strings.TrimSpace(answerOptionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAnswerOptions(ctx context.Context, questionID string) ([]entities.AnswerOption, error) {
	var rows []answerOptionModel
	if err := r.db.WithContext(ctx).
		Where("question_id = ?", strings.TrimSpace(questionID)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_answer_options_failed", err,
			"question_id", strings.TrimSpace(questionID),
		)
	}
	items := make([]entities.AnswerOption, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateAPIKey(ctx context.Context, key entities.APIKey) error {
	row := apiKeyModel{
		ID:        key.APIKeyID,
		Key:       key.Key,
		CreatedAt: key.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("voting_repo_create_api_key_failed", err, "api_key_id", row.ID)
	}
	return nil
}

func (r *Repository) ListAPIKeys(ctx context.Context) ([]entities.APIKey, error) {
	var rows []apiKeyModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_api_keys_failed", err)
	}
	items := make([]entities.APIKey, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteAPIKey(ctx context.Context, apiKeyID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(apiKeyID)).
		Delete(&apiKeyModel{})
	if result.Error != nil {
		return r.logError("voting_repo_delete_api_key_failed", result.Error,
			"api_key_id", strings.TrimSpace(apiKeyID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAPIKeyNotFound
	}
	return nil
}

func (r *Repository) FindAPIKey(ctx context.Context, key string) (entities.APIKey, error) {
	var row apiKeyModel
	err := r.db.WithContext(ctx).
		Where("api_key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.APIKey{}, domainerrors.ErrAPIKeyNotFound
		}
		return entities.APIKey{}, r.logError("voting_repo_find_api_key_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("voting_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("voting_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("voting_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("voting_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("voting_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", moduleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting repository operation failed", fields...)
	return err
}

// isUniqueViolation covers raw postgres errors and the driver-neutral
// gorm.ErrDuplicatedKey produced when TranslateError is enabled.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.VoteStore              = (*Repository)(nil)
	_ ports.QuestionRepository     = (*Repository)(nil)
	_ ports.AnswerOptionRepository = (*Repository)(nil)
	_ ports.APIKeyRepository       = (*Repository)(nil)
	_ ports.OutboxWriter           = (*Repository)(nil)
	_ ports.OutboxRepository       = (*Repository)(nil)
	_ ports.EventDedupStore        = (*Repository)(nil)
)
