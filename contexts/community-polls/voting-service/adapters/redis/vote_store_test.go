package redisadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"

	"github.com/alicebob/miniredis/v2"
)

var storeNow = time.Date(2026, time.August, 9, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, uniqueVotes bool) *VoteStore {
	t.Helper()
	server := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+server.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewVoteStore(client, uniqueVotes, nil)
}

func redisVote(id, question, answer, user string, admin bool, offset int) entities.Vote {
	return entities.Vote{
		VoteID:         id,
		UserID:         user,
		QuestionID:     question,
		AnswerOptionID: answer,
		SelectedOption: "title",
		AdminOverride:  admin,
		CreatedAt:      storeNow.Add(time.Duration(offset) * time.Second),
	}
}

func TestVoteStoreRejectsDuplicateVoter(t *testing.T) {
	store := newTestStore(t, true)
	ctx := context.Background()

	if _, err := store.InsertVote(ctx, redisVote("v1", "q1", "a1", "u1", false, 1)); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := store.InsertVote(ctx, redisVote("v2", "q1", "a2", "u1", false, 2)); !errors.Is(err, domainerrors.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := store.InsertVote(ctx, redisVote("v3", "q2", "b1", "u1", false, 3)); err != nil {
		t.Fatalf("vote on another question: %v", err)
	}
	for i, id := range []string{"v4", "v5"} {
		if _, err := store.InsertVote(ctx, redisVote(id, "q1", "a1", entities.AnonymousUserID, false, 4+i)); err != nil {
			t.Fatalf("anonymous vote %s: %v", id, err)
		}
	}
	for i, id := range []string{"v6", "v7"} {
		if _, err := store.InsertVote(ctx, redisVote(id, "q1", "a2", "admin", true, 6+i)); err != nil {
			t.Fatalf("admin vote %s: %v", id, err)
		}
	}

	votes, err := store.FindVotes(ctx, ports.VoteFilter{QuestionID: "q1"})
	if err != nil {
		t.Fatalf("find votes: %v", err)
	}
	if len(votes) != 5 {
		t.Fatalf("expected five votes on q1, got %d", len(votes))
	}
	if votes[0].VoteID != "v1" || votes[4].VoteID != "v7" || !votes[4].AdminOverride {
		t.Fatalf("unexpected ledger order: %+v", votes)
	}

	count, err := store.CountVotesByAnswerOption(ctx, "a2")
	if err != nil || count != 2 {
		t.Fatalf("expected two votes on a2, got %d err=%v", count, err)
	}
	count, err = store.CountVotesByAnswerOption(ctx, "unused")
	if err != nil || count != 0 {
		t.Fatalf("expected zero votes on unused option, got %d err=%v", count, err)
	}
}

func TestVoteStoreExistsAndUserFilter(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()

	for i, vote := range []entities.Vote{
		redisVote("v1", "q1", "a1", "u1", false, 1),
		redisVote("v2", "q1", "a1", "u1", false, 2),
		redisVote("v3", "q2", "b1", "u1", false, 3),
		redisVote("v4", "q1", "a1", entities.AnonymousUserID, false, 4),
	} {
		if _, err := store.InsertVote(ctx, vote); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	votes, err := store.FindVotes(ctx, ports.VoteFilter{QuestionID: "q1", UserID: "u1"})
	if err != nil || len(votes) != 2 {
		t.Fatalf("expected two q1 votes for u1, got %d err=%v", len(votes), err)
	}
	exists, err := store.ExistsVote(ctx, "q2", "u1")
	if err != nil || !exists {
		t.Fatalf("expected u1 vote on q2, got %v err=%v", exists, err)
	}
	exists, err = store.ExistsVote(ctx, "q1", entities.AnonymousUserID)
	if err != nil || !exists {
		t.Fatalf("expected anonymous vote on q1, got %v err=%v", exists, err)
	}
	exists, err = store.ExistsVote(ctx, "q2", "u9")
	if err != nil || exists {
		t.Fatalf("expected no vote for u9, got %v err=%v", exists, err)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
