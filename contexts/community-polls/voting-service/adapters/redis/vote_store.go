package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const moduleName = "community-polls/voting-service"

// Key layout:
//
//	poll:vote:{vote_id}          JSON encoded vote
//	poll:{question_id}:votes     list of vote ids in insertion order
//	poll:{question_id}:voters    set of non-anonymous user ids
//	poll:user:{user_id}:votes    list of vote ids in insertion order
//	poll:votes                   list of every vote id
//	poll:answers:counts          hash answer_option_id -> vote count
const (
	allVotesKey     = "poll:votes"
	answerCountsKey = "poll:answers:counts"
)

type storedVote struct {
	VoteID         string    `json:"vote_id"`
	UserID         string    `json:"user_id"`
	QuestionID     string    `json:"question_id"`
	AnswerOptionID string    `json:"answer_id"`
	SelectedOption string    `json:"selected_option"`
	AdminOverride  bool      `json:"admin_override"`
	CreatedAt      time.Time `json:"created_at"`
}

// VoteStore keeps the vote ledger in redis. Uniqueness is decided by SADD on
// the question's voter set, which redis executes atomically.
type VoteStore struct {
	client      *redis.Client
	uniqueVotes bool
	logger      *slog.Logger
}

// Connect parses a redis:// URL and pings the server, like the pack's store
// bootstrap does.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewVoteStore(client *redis.Client, uniqueVotes bool, logger *slog.Logger) *VoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteStore{client: client, uniqueVotes: uniqueVotes, logger: logger}
}

func (s *VoteStore) InsertVote(ctx context.Context, vote entities.Vote) (string, error) {
	if strings.TrimSpace(vote.VoteID) == "" {
		vote.VoteID = uuid.NewString()
	}
	payload, err := json.Marshal(storedVote{
		VoteID:         vote.VoteID,
		UserID:         vote.UserID,
		QuestionID:     vote.QuestionID,
		AnswerOptionID: vote.AnswerOptionID,
		SelectedOption: vote.SelectedOption,
		AdminOverride:  vote.AdminOverride,
		CreatedAt:      vote.CreatedAt.UTC(),
	})
	if err != nil {
		return "", s.logError("voting_redis_encode_vote_failed", err, "vote_id", vote.VoteID)
	}

	addedVoter := false
	if vote.UserID != entities.AnonymousUserID {
		added, err := s.client.SAdd(ctx, votersKey(vote.QuestionID), vote.UserID).Result()
		if err != nil {
			return "", s.logError("voting_redis_add_voter_failed", err,
				"question_id", vote.QuestionID,
				"user_id", vote.UserID,
			)
		}
		if added == 0 && s.uniqueVotes && !vote.AdminOverride {
			return "", domainerrors.ErrDuplicate
		}
		addedVoter = added > 0
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, voteKey(vote.VoteID), payload, 0)
		pipe.RPush(ctx, questionVotesKey(vote.QuestionID), vote.VoteID)
		pipe.RPush(ctx, userVotesKey(vote.UserID), vote.VoteID)
		pipe.RPush(ctx, allVotesKey, vote.VoteID)
		pipe.HIncrBy(ctx, answerCountsKey, vote.AnswerOptionID, 1)
		return nil
	})
	if err != nil {
		if addedVoter {
			_ = s.client.SRem(ctx, votersKey(vote.QuestionID), vote.UserID).Err()
		}
		return "", s.logError("voting_redis_insert_vote_failed", err,
			"vote_id", vote.VoteID,
			"question_id", vote.QuestionID,
		)
	}
	return vote.VoteID, nil
}

func (s *VoteStore) FindVotes(ctx context.Context, filter ports.VoteFilter) ([]entities.Vote, error) {
	questionID := strings.TrimSpace(filter.QuestionID)
	userID := strings.TrimSpace(filter.UserID)

	listKey := allVotesKey
	switch {
	case userID != "":
		listKey = userVotesKey(userID)
	case questionID != "":
		listKey = questionVotesKey(questionID)
	}
	ids, err := s.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, s.logError("voting_redis_list_votes_failed", err, "list_key", listKey)
	}
	if len(ids) == 0 {
		return []entities.Vote{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, voteKey(id))
	}
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, s.logError("voting_redis_load_votes_failed", err, "list_key", listKey)
	}

	items := make([]entities.Vote, 0, len(raw))
	for index, value := range raw {
		encoded, ok := value.(string)
		if !ok {
			continue
		}
		var row storedVote
		if err := json.Unmarshal([]byte(encoded), &row); err != nil {
			return nil, s.logError("voting_redis_decode_vote_failed", err, "vote_id", ids[index])
		}
		if questionID != "" && row.QuestionID != questionID {
			continue
		}
		items = append(items, entities.Vote{
			VoteID:         row.VoteID,
			UserID:         row.UserID,
			QuestionID:     row.QuestionID,
			AnswerOptionID: row.AnswerOptionID,
			SelectedOption: row.SelectedOption,
			AdminOverride:  row.AdminOverride,
			CreatedAt:      row.CreatedAt.UTC(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *VoteStore) ExistsVote(ctx context.Context, questionID string, userID string) (bool, error) {
	questionID = strings.TrimSpace(questionID)
	userID = strings.TrimSpace(userID)
	if userID == entities.AnonymousUserID {
		votes, err := s.FindVotes(ctx, ports.VoteFilter{QuestionID: questionID, UserID: userID})
		if err != nil {
			return false, err
		}
		return len(votes) > 0, nil
	}
	member, err := s.client.SIsMember(ctx, votersKey(questionID), userID).Result()
	if err != nil {
		return false, s.logError("voting_redis_exists_vote_failed", err,
			"question_id", questionID,
			"user_id", userID,
		)
	}
	return member, nil
}

func (s *VoteStore) CountVotesByAnswerOption(ctx context.Context, answerOptionID string) (int, error) {
	count, err := s.client.HGet(ctx, answerCountsKey, strings.TrimSpace(answerOptionID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, s.logError("voting_redis_count_votes_failed", err, "answer_id", answerOptionID)
	}
	return count, nil
}

func (s *VoteStore) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", moduleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("voting redis operation failed", fields...)
	return err
}

func voteKey(voteID string) string {
	return "poll:vote:" + voteID
}

func questionVotesKey(questionID string) string {
	return fmt.Sprintf("poll:%s:votes", questionID)
}

func votersKey(questionID string) string {
	return fmt.Sprintf("poll:%s:voters", questionID)
}

func userVotesKey(userID string) string {
	return fmt.Sprintf("poll:user:%s:votes", userID)
}

var _ ports.VoteStore = (*VoteStore)(nil)
