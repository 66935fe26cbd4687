package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/adapters/memory"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type resultsRecorder struct {
	events []ports.ResultsComputed
}

func (r *resultsRecorder) VoteRecorded(context.Context, ports.VoteRecorded) error { return nil }

func (r *resultsRecorder) ResultsComputed(_ context.Context, event ports.ResultsComputed) error {
	r.events = append(r.events, event)
	return nil
}

type brokenVoteStore struct {
	*memory.Store
}

func (brokenVoteStore) FindVotes(context.Context, ports.VoteFilter) ([]entities.Vote, error) {
	return nil, errors.New("connection reset")
}

var baseTime = time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC)

func vote(id, user, question, answer, selected string, offset int) entities.Vote {
	return entities.Vote{
		VoteID:         id,
		UserID:         user,
		QuestionID:     question,
		AnswerOptionID: answer,
		SelectedOption: selected,
		CreatedAt:      baseTime.Add(time.Duration(offset) * time.Second),
	}
}

func newResultsStore(votes ...entities.Vote) *memory.Store {
	return memory.NewStore(memory.Seed{
		Questions: []entities.Question{
			{QuestionID: "Q1", Title: "Best logo", Identifier: "best_logo", Visible: true, CreatedAt: baseTime},
			{QuestionID: "Q2", Title: "Empty", Identifier: "empty", Visible: true, CreatedAt: baseTime},
		},
		AnswerOptions: []entities.AnswerOption{
			{AnswerOptionID: "A1", QuestionID: "Q1", Title: "Circle", CreatedAt: baseTime},
			{AnswerOptionID: "A2", QuestionID: "Q1", Title: "Square", CreatedAt: baseTime.Add(time.Second)},
		},
		Votes: votes,
	}, false)
}

func newAggregator(store ports.VoteStore, seed *memory.Store, mode entities.GroupingMode, notifier ports.VoteNotifier) ResultsAggregator {
	return ResultsAggregator{
		Questions:     seed,
		AnswerOptions: seed,
		Votes:         store,
		Notifier:      notifier,
		Clock:         fixedClock{now: baseTime.Add(time.Hour)},
		Mode:          mode,
	}
}

func TestComputeGroupsByAnswerOption(t *testing.T) {
	store := newResultsStore(
		vote("v1", "u1", "Q1", "A1", "title", 1),
		vote("v2", "u2", "Q1", "A2", "title", 2),
		vote("v3", "u3", "Q1", "A1", "image", 3),
	)
	notifier := &resultsRecorder{}
	aggregator := newAggregator(store, store, entities.GroupByAnswerOption, notifier)

	result, err := aggregator.Compute(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if result.TotalVotes != 3 {
		t.Fatalf("expected 3 votes, got %d", result.TotalVotes)
	}
	counts := result.Counts()
	if counts["A1"] != 2 || counts["A2"] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if result.Groups[0].Key != "A1" || result.Groups[0].Label != "Circle" {
		t.Fatalf("expected first group A1/Circle, got %+v", result.Groups[0])
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one results event, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.QuestionID != "Q1" || event.TotalVotes != 3 || event.Groups["A1"] != 2 {
		t.Fatalf("unexpected results event: %+v", event)
	}
	if !event.ComputedAt.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("expected computed_at from clock, got %s", event.ComputedAt)
	}
}

func TestComputeGroupsBySelectedOption(t *testing.T) {
	store := newResultsStore(
		vote("v1", "u1", "Q1", "A1", "title", 1),
		vote("v2", "u2", "Q1", "A2", "Title", 2),
		vote("v3", "u3", "Q1", "A1", "image", 3),
	)
	aggregator := newAggregator(store, store, entities.GroupBySelectedOption, nil)

	result, err := aggregator.Compute(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	counts := result.Counts()
	if len(counts) != 2 || counts["title"] != 2 || counts["image"] != 1 {
		t.Fatalf("unexpected selected option counts: %+v", counts)
	}
	if result.Groups[0].Label != "Title" {
		t.Fatalf("expected capitalized label, got %q", result.Groups[0].Label)
	}
}

func TestSummarizeReportsPercentagesAndHighest(t *testing.T) {
	store := newResultsStore(
		vote("v1", "u1", "Q1", "A1", "title", 1),
		vote("v2", "u2", "Q1", "A2", "title", 2),
		vote("v3", "u3", "Q1", "A2", "title", 3),
		vote("v4", "u4", "Q1", "A2", "title", 4),
	)
	aggregator := newAggregator(store, store, entities.GroupByAnswerOption, nil)

	summary, err := aggregator.Summarize(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if !summary.HasHighest || summary.Highest.Key != "A2" || summary.Highest.Count != 3 {
		t.Fatalf("unexpected highest rated: %+v", summary.Highest)
	}
	percentages := summary.Results.Percentages()
	if percentages["A1"] != 25 || percentages["A2"] != 75 {
		t.Fatalf("unexpected percentages: %+v", percentages)
	}
}

func TestHighestRatedTieKeepsFirstAppearance(t *testing.T) {
	store := newResultsStore(
		vote("v1", "u1", "Q1", "A2", "title", 1),
		vote("v2", "u2", "Q1", "A1", "title", 2),
	)
	aggregator := newAggregator(store, store, entities.GroupByAnswerOption, nil)

	highest, found, err := aggregator.HighestRated(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("highest rated failed: %v", err)
	}
	if !found || highest.Key != "A2" {
		t.Fatalf("expected tie to resolve to A2, got %+v found=%v", highest, found)
	}
}

func TestZeroVotesProducesEmptyResults(t *testing.T) {
	store := newResultsStore()
	aggregator := newAggregator(store, store, entities.GroupByAnswerOption, nil)
	ctx := context.Background()

	total, err := aggregator.TotalVotes(ctx, "Q2")
	if err != nil || total != 0 {
		t.Fatalf("expected zero total, got %d err=%v", total, err)
	}
	percentages, err := aggregator.Percentages(ctx, "Q2")
	if err != nil {
		t.Fatalf("percentages failed: %v", err)
	}
	if len(percentages) != 0 {
		t.Fatalf("expected empty percentages, got %+v", percentages)
	}
	if _, found, err := aggregator.HighestRated(ctx, "Q2"); err != nil || found {
		t.Fatalf("expected no highest rated, found=%v err=%v", found, err)
	}
}

func TestComputeUnknownQuestion(t *testing.T) {
	store := newResultsStore()
	aggregator := newAggregator(store, store, entities.GroupByAnswerOption, nil)

	_, err := aggregator.Compute(context.Background(), "missing")
	if !errors.Is(err, domainerrors.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, err := aggregator.Compute(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank id, got %v", err)
	}
}

func TestComputeWrapsStorageFailure(t *testing.T) {
	store := newResultsStore()
	aggregator := newAggregator(brokenVoteStore{Store: store}, store, entities.GroupByAnswerOption, nil)

	_, err := aggregator.Compute(context.Background(), "Q1")
	if !errors.Is(err, domainerrors.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestUserVotesOrderedByQuestion(t *testing.T) {
	store := newResultsStore(
		vote("v1", "u1", "Q2", "B1", "title", 1),
		vote("v2", "u1", "Q1", "A1", "title", 2),
		vote("v3", "u1", "Q1", "A2", "title", 3),
		vote("v4", "u2", "Q1", "A2", "title", 4),
	)
	aggregator := newAggregator(store, store, entities.GroupByAnswerOption, nil)

	items, err := aggregator.UserVotes(context.Background(), "u1")
	if err != nil {
		t.Fatalf("user votes failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected two questions, got %+v", items)
	}
	if items[0].QuestionID != "Q1" || items[0].AnswerOptionID != "A1" || items[0].VoteCount != 2 {
		t.Fatalf("unexpected first entry: %+v", items[0])
	}
	if items[1].QuestionID != "Q2" || items[1].VoteCount != 1 {
		t.Fatalf("unexpected second entry: %+v", items[1])
	}
}
