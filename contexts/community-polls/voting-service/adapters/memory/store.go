package memory

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"

	"github.com/google/uuid"
)

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Seed preloads a store, mostly for tests and local runs.
type Seed struct {
	Questions     []entities.Question
	AnswerOptions []entities.AnswerOption
	Votes         []entities.Vote
	APIKeys       []entities.APIKey
}

// Store keeps every voting record in process memory. Votes live in an
// append-only slice so ledger order is insertion order within equal
// timestamps.
type Store struct {
	mu sync.RWMutex

	uniqueVotes bool

	questions     map[string]entities.Question
	answerOptions map[string]entities.AnswerOption
	votes         []entities.Vote
	voters        map[string]struct{}
	apiKeys       map[string]entities.APIKey
	// outbox holds pending rows only; publishing removes them.
	outbox     map[string]ports.OutboxMessage
	eventDedup map[string]dedupRecord
}

// NewStore builds a store. With uniqueVotes set, InsertVote rejects a second
// non-exempt vote for the same (question, user).
func NewStore(seed Seed, uniqueVotes bool) *Store {
	s := &Store{
		uniqueVotes:   uniqueVotes,
		questions:     make(map[string]entities.Question, len(seed.Questions)),
		answerOptions: make(map[string]entities.AnswerOption, len(seed.AnswerOptions)),
		votes:         make([]entities.Vote, 0, len(seed.Votes)),
		voters:        make(map[string]struct{}),
		apiKeys:       make(map[string]entities.APIKey, len(seed.APIKeys)),
		outbox:        make(map[string]ports.OutboxMessage),
		eventDedup:    make(map[string]dedupRecord),
	}
	for _, question := range seed.Questions {
		s.questions[question.QuestionID] = question
	}
	for _, option := range seed.AnswerOptions {
		s.answerOptions[option.AnswerOptionID] = option
	}
	for _, vote := range seed.Votes {
		s.votes = append(s.votes, vote)
		if !vote.Exempt() {
			s.voters[voterKey(vote.QuestionID, vote.UserID)] = struct{}{}
		}
	}
	for _, key := range seed.APIKeys {
		s.apiKeys[key.APIKeyID] = key
	}
	return s
}

func (s *Store) FindVotes(_ context.Context, filter ports.VoteFilter) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	questionID := strings.TrimSpace(filter.QuestionID)
	userID := strings.TrimSpace(filter.UserID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if questionID != "" && vote.QuestionID != questionID {
			continue
		}
		if userID != "" && vote.UserID != userID {
			continue
		}
		items = append(items, vote)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) InsertVote(_ context.Context, vote entities.Vote) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(vote.VoteID) == "" {
		vote.VoteID = uuid.NewString()
	}
	if !vote.Exempt() {
		key := voterKey(vote.QuestionID, vote.UserID)
		if _, exists := s.voters[key]; exists && s.uniqueVotes {
			return "", domainerrors.ErrDuplicate
		}
		s.voters[key] = struct{}{}
	}
	s.votes = append(s.votes, vote)
	return vote.VoteID, nil
}

func (s *Store) ExistsVote(_ context.Context, questionID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, vote := range s.votes {
		if vote.QuestionID == questionID && vote.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountVotesByAnswerOption(_ context.Context, answerOptionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, vote := range s.votes {
		if vote.AnswerOptionID == answerOptionID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateQuestion(_ context.Context, question entities.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.questions {
		if existing.Identifier == question.Identifier {
			return domainerrors.ErrIdentifierTaken
		}
	}
	s.questions[question.QuestionID] = question
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, question entities.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.QuestionID]; !ok {
		return domainerrors.ErrQuestionNotFound
	}
	for id, existing := range s.questions {
		if id != question.QuestionID && existing.Identifier == question.Identifier {
			return domainerrors.ErrIdentifierTaken
		}
	}
	s.questions[question.QuestionID] = question
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[questionID]; !ok {
		return domainerrors.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID string) (entities.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[strings.TrimSpace(questionID)]
	if !ok {
		return entities.Question{}, domainerrors.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Store) ListQuestions(_ context.Context, includeHidden bool) ([]entities.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Question, 0, len(s.questions))
	for _, question := range s.questions {
		if !includeHidden && !question.Visible {
			continue
		}
		items = append(items, question)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].QuestionID < items[j].QuestionID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListIdentifiers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]string, 0, len(s.questions))
	for _, question := range s.questions {
		items = append(items, question.Identifier)
	}
	sort.Strings(items)
	return items, nil
}

func (s *Store) CreateAnswerOption(_ context.Context, option entities.AnswerOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answerOptions[option.AnswerOptionID] = option
	return nil
}

func (s *Store) UpdateAnswerOption(_ context.Context, option entities.AnswerOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answerOptions[option.AnswerOptionID]; !ok {
		return domainerrors.ErrAnswerOptionNotFound
	}
	s.answerOptions[option.AnswerOptionID] = option
	return nil
}

func (s *Store) DeleteAnswerOption(_ context.Context, answerOptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answerOptions[answerOptionID]; !ok {
		return domainerrors.ErrAnswerOptionNotFound
	}
	delete(s.answerOptions, answerOptionID)
	return nil
}

func (s *Store) GetAnswerOption(_ context.Context, answerOptionID string) (entities.AnswerOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	option, ok := s.answerOptions[strings.TrimSpace(answerOptionID)]
	if !ok {
		return entities.AnswerOption{}, domainerrors.ErrAnswerOptionNotFound
	}
	return option, nil
}

func (s *Store) ListAnswerOptions(_ context.Context, questionID string) ([]entities.AnswerOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.AnswerOption, 0)
	for _, option := range s.answerOptions {
		if option.QuestionID == questionID {
			items = append(items, option)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].AnswerOptionID < items[j].AnswerOptionID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateAPIKey(_ context.Context, key entities.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKeys[key.APIKeyID] = key
	return nil
}

func (s *Store) ListAPIKeys(_ context.Context) ([]entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		items = append(items, key)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].APIKeyID < items[j].APIKeyID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeleteAPIKey(_ context.Context, apiKeyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiKeys[apiKeyID]; !ok {
		return domainerrors.ErrAPIKeyNotFound
	}
	delete(s.apiKeys, apiKeyID)
	return nil
}

func (s *Store) FindAPIKey(_ context.Context, key string) (entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.apiKeys {
		if item.Key == key {
			return item, nil
		}
	}
	return entities.APIKey{}, domainerrors.ErrAPIKeyNotFound
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = ports.OutboxMessage{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		CreatedAt:    createdAt,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		items = append(items, row)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// MarkOutboxPublished drops the row; nothing reads published rows back.
func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(outboxID)
	if _, ok := s.outbox[key]; !ok {
		return domainerrors.ErrConflict
	}
	delete(s.outbox, key)
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[key]; ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}
	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// NewSecret returns 64 hex characters drawn from 32 random bytes.
func (s *Store) NewSecret(_ context.Context) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func voterKey(questionID string, userID string) string {
	return questionID + "\x00" + userID
}

var (
	_ ports.VoteStore              = (*Store)(nil)
	_ ports.QuestionRepository     = (*Store)(nil)
	_ ports.AnswerOptionRepository = (*Store)(nil)
	_ ports.APIKeyRepository       = (*Store)(nil)
	_ ports.OutboxWriter           = (*Store)(nil)
	_ ports.OutboxRepository       = (*Store)(nil)
	_ ports.EventDedupStore        = (*Store)(nil)
	_ ports.Clock                  = (*Store)(nil)
	_ ports.IDGenerator            = (*Store)(nil)
	_ ports.SecretGenerator        = (*Store)(nil)
)
