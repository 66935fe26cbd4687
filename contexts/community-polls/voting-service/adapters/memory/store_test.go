package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
)

func TestInsertVoteUniquenessExemptions(t *testing.T) {
	store := NewStore(Seed{
		Votes: []entities.Vote{{VoteID: "seeded", UserID: "u1", QuestionID: "q1", AnswerOptionID: "a1"}},
	}, true)
	ctx := context.Background()

	if _, err := store.InsertVote(ctx, entities.Vote{UserID: "u1", QuestionID: "q1", AnswerOptionID: "a1"}); !errors.Is(err, domainerrors.ErrDuplicate) {
		t.Fatalf("expected seeded vote to block duplicate, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := store.InsertVote(ctx, entities.Vote{UserID: entities.AnonymousUserID, QuestionID: "q1", AnswerOptionID: "a1"}); err != nil {
			t.Fatalf("anonymous vote %d: %v", i, err)
		}
		if _, err := store.InsertVote(ctx, entities.Vote{UserID: "admin", QuestionID: "q1", AnswerOptionID: "a1", AdminOverride: true}); err != nil {
			t.Fatalf("admin vote %d: %v", i, err)
		}
	}
	id, err := store.InsertVote(ctx, entities.Vote{UserID: "u2", QuestionID: "q1", AnswerOptionID: "a1"})
	if err != nil || id == "" {
		t.Fatalf("expected generated vote id, got %q err=%v", id, err)
	}
	count, _ := store.CountVotesByAnswerOption(ctx, "a1")
	if count != 6 {
		t.Fatalf("expected six votes, got %d", count)
	}
}

func TestFindVotesKeepsInsertionOrderForEqualTimestamps(t *testing.T) {
	store := NewStore(Seed{}, false)
	ctx := context.Background()
	at := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"z", "a", "m"} {
		if _, err := store.InsertVote(ctx, entities.Vote{VoteID: id, UserID: "u1", QuestionID: "q1", AnswerOptionID: "a1", CreatedAt: at}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	votes, _ := store.FindVotes(ctx, ports.VoteFilter{QuestionID: "q1"})
	if len(votes) != 3 || votes[0].VoteID != "z" || votes[2].VoteID != "m" {
		t.Fatalf("unexpected order: %+v", votes)
	}
}

func TestReserveEventExpiry(t *testing.T) {
	store := NewStore(Seed{}, true)
	ctx := context.Background()

	processed, err := store.ReserveEvent(ctx, "evt", "h1", time.Now().Add(-time.Minute))
	if err != nil || processed {
		t.Fatalf("fresh reserve: processed=%v err=%v", processed, err)
	}
	processed, err = store.ReserveEvent(ctx, "evt", "h2", time.Now().Add(time.Hour))
	if err != nil || processed {
		t.Fatalf("expired reservation should be replaced: processed=%v err=%v", processed, err)
	}
	if _, err := store.ReserveEvent(ctx, "evt", "h3", time.Now().Add(time.Hour)); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateQuestionRejectsTakenIdentifier(t *testing.T) {
	store := NewStore(Seed{Questions: []entities.Question{
		{QuestionID: "q1", Identifier: "one"},
		{QuestionID: "q2", Identifier: "two"},
	}}, true)
	err := store.UpdateQuestion(context.Background(), entities.Question{QuestionID: "q2", Identifier: "one"})
	if !errors.Is(err, domainerrors.ErrIdentifierTaken) {
		t.Fatalf("expected identifier taken, got %v", err)
	}
}

func TestMarkOutboxPublishedReleasesRows(t *testing.T) {
	store := NewStore(Seed{}, true)
	ctx := context.Background()

	for _, id := range []string{"e1", "e2"} {
		if err := store.AppendOutbox(ctx, ports.EventEnvelope{EventID: id, EventType: "results.computed"}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := store.MarkOutboxPublished(ctx, "e1", time.Now()); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if len(store.outbox) != 1 {
		t.Fatalf("expected published row to be dropped, %d rows held", len(store.outbox))
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].OutboxID != "e2" {
		t.Fatalf("expected only e2 pending, got %+v err=%v", pending, err)
	}
	if err := store.MarkOutboxPublished(ctx, "e1", time.Now()); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for unknown row, got %v", err)
	}
}
