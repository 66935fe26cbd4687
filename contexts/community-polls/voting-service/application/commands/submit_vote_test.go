package commands

import (
	"context"
	"errors"
	"sync"
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

type recordingNotifier struct {
	mu    sync.Mutex
	votes []ports.VoteRecorded
	err   error
}

func (n *recordingNotifier) VoteRecorded(_ context.Context, event ports.VoteRecorded) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.votes = append(n.votes, event)
	return n.err
}

func (n *recordingNotifier) ResultsComputed(context.Context, ports.ResultsComputed) error {
	return n.err
}

// racingVoteStore hides existing votes from ExistsVote, the way a concurrent
// writer would, and relies on InsertVote to reject the collision.
type racingVoteStore struct {
	*memory.Store
}

func (racingVoteStore) ExistsVote(context.Context, string, string) (bool, error) {
	return false, nil
}

type failingVoteStore struct {
	*memory.Store
	insertErr error
}

func (s failingVoteStore) InsertVote(context.Context, entities.Vote) (string, error) {
	return "", s.insertErr
}

var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func seedStore(uniqueVotes bool) *memory.Store {
	return memory.NewStore(memory.Seed{
		Questions: []entities.Question{
			{QuestionID: "q1", Title: "Favourite colour", Identifier: "favourite_colour", Visible: true, CreatedAt: testNow},
			{QuestionID: "q2", Title: "Lunch", Identifier: "lunch", Visible: true, CreatedAt: testNow},
			{QuestionID: "hidden", Title: "Hidden", Identifier: "hidden", Visible: false, CreatedAt: testNow},
		},
		AnswerOptions: []entities.AnswerOption{
			{AnswerOptionID: "a1", QuestionID: "q1", Title: "Red"},
			{AnswerOptionID: "a2", QuestionID: "q1", Title: "Blue"},
			{AnswerOptionID: "b1", QuestionID: "q2", Title: "Soup"},
			{AnswerOptionID: "h1", QuestionID: "hidden", Title: "Nope"},
		},
	}, uniqueVotes)
}

func newRecorder(votes ports.VoteStore, store *memory.Store, notifier ports.VoteNotifier) VoteRecorder {
	return VoteRecorder{
		Questions:     store,
		AnswerOptions: store,
		Votes:         votes,
		Notifier:      notifier,
		Clock:         fixedClock{now: testNow},
		IDGen:         store,
		Settings:      entities.DefaultSettings(),
	}
}

func voter(id string) entities.Voter {
	return entities.Voter{UserID: id}
}

func TestSubmitStoresVoteWithServerTimestamp(t *testing.T) {
	store := seedStore(true)
	notifier := &recordingNotifier{}
	recorder := newRecorder(store, store, notifier)

	result, err := recorder.Submit(context.Background(), SubmitVoteCommand{
		Voter:          voter("u1"),
		QuestionID:     "q1",
		AnswerOptionID: "a1",
		SelectedOption: "Title",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Vote.VoteID == "" || !result.Vote.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected vote: %+v", result.Vote)
	}
	if result.Vote.SelectedOption != "title" {
		t.Fatalf("expected normalized selected option, got %q", result.Vote.SelectedOption)
	}
	if len(notifier.votes) != 1 || notifier.votes[0].VoteID != result.Vote.VoteID {
		t.Fatalf("expected one vote notification, got %+v", notifier.votes)
	}
}

func TestSubmitMismatchStoresNothing(t *testing.T) {
	store := seedStore(true)
	notifier := &recordingNotifier{}
	recorder := newRecorder(store, store, notifier)

	_, err := recorder.Submit(context.Background(), SubmitVoteCommand{
		Voter:          voter("u1"),
		QuestionID:     "q1",
		AnswerOptionID: "b1",
	})
	if !errors.Is(err, domainerrors.ErrMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{})
	if len(votes) != 0 {
		t.Fatalf("expected no stored votes, got %d", len(votes))
	}
	if len(notifier.votes) != 0 {
		t.Fatalf("expected no notification after mismatch")
	}
}

func TestSubmitMismatchWinsOverOtherRejections(t *testing.T) {
	store := seedStore(true)
	recorder := newRecorder(store, store, nil)

	cases := []SubmitVoteCommand{
		{Voter: voter("u1"), QuestionID: "hidden", AnswerOptionID: "b1"},
		{Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "b1", SelectedOption: "bogus"},
	}
	for _, cmd := range cases {
		if _, err := recorder.Submit(context.Background(), cmd); !errors.Is(err, domainerrors.ErrMismatch) {
			t.Fatalf("expected mismatch for %+v, got %v", cmd, err)
		}
	}
}

func TestSubmitSinglePolicyRejectsSecondVote(t *testing.T) {
	store := seedStore(true)
	recorder := newRecorder(store, store, nil)
	cmd := SubmitVoteCommand{Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1"}

	if _, err := recorder.Submit(context.Background(), cmd); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	cmd.AnswerOptionID = "a2"
	if _, err := recorder.Submit(context.Background(), cmd); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{QuestionID: "q1", UserID: "u1"})
	if len(votes) != 1 {
		t.Fatalf("expected exactly one stored vote, got %d", len(votes))
	}
}

func TestSubmitAdminOverrideAllowsRepeatVotes(t *testing.T) {
	store := seedStore(true)
	recorder := newRecorder(store, store, nil)
	admin := entities.Voter{UserID: "admin-1", Admin: true}

	for i := 0; i < 3; i++ {
		if _, err := recorder.Submit(context.Background(), SubmitVoteCommand{
			Voter: admin, QuestionID: "q1", AnswerOptionID: "a1",
		}); err != nil {
			t.Fatalf("admin submit %d failed: %v", i, err)
		}
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{UserID: "admin-1"})
	if len(votes) != 3 {
		t.Fatalf("expected 3 admin votes, got %d", len(votes))
	}
}

func TestSubmitUnlimitedPolicySkipsDuplicateCheck(t *testing.T) {
	store := seedStore(false)
	recorder := newRecorder(store, store, nil)
	recorder.Settings.DuplicatePolicy = entities.DuplicatePolicyUnlimited

	for i := 0; i < 2; i++ {
		if _, err := recorder.Submit(context.Background(), SubmitVoteCommand{
			Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1",
		}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{QuestionID: "q1"})
	if len(votes) != 2 {
		t.Fatalf("expected 2 votes, got %d", len(votes))
	}
}

func TestSubmitStoreDuplicateMapsToAlreadyVoted(t *testing.T) {
	store := seedStore(true)
	recorder := newRecorder(racingVoteStore{Store: store}, store, nil)
	cmd := SubmitVoteCommand{Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1"}

	if _, err := recorder.Submit(context.Background(), cmd); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := recorder.Submit(context.Background(), cmd); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted from store collision, got %v", err)
	}
}

func TestSubmitStorageFailureIsWrapped(t *testing.T) {
	store := seedStore(true)
	cause := errors.New("connection reset")
	recorder := newRecorder(failingVoteStore{Store: store, insertErr: cause}, store, nil)

	_, err := recorder.Submit(context.Background(), SubmitVoteCommand{
		Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1",
	})
	if !errors.Is(err, domainerrors.ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("storage failure must not look like a duplicate")
	}
}

func TestSubmitNotifierFailureIsSwallowed(t *testing.T) {
	store := seedStore(true)
	notifier := &recordingNotifier{err: errors.New("sink down")}
	recorder := newRecorder(store, store, notifier)

	if _, err := recorder.Submit(context.Background(), SubmitVoteCommand{
		Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1",
	}); err != nil {
		t.Fatalf("expected success despite notifier failure, got %v", err)
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{QuestionID: "q1"})
	if len(votes) != 1 {
		t.Fatalf("expected vote to stay stored, got %d", len(votes))
	}
}

func TestSubmitGuards(t *testing.T) {
	expired := testNow.Add(-time.Hour)
	store := seedStore(true)
	_ = store.CreateQuestion(context.Background(), entities.Question{
		QuestionID: "closed", Identifier: "closed", Visible: true, ExpiresAt: &expired,
	})
	_ = store.CreateAnswerOption(context.Background(), entities.AnswerOption{AnswerOptionID: "c1", QuestionID: "closed", Title: "Late"})

	cases := []struct {
		name     string
		settings func(*entities.Settings)
		cmd      SubmitVoteCommand
		want     error
	}{
		{
			name:     "voting disabled",
			settings: func(s *entities.Settings) { s.VotingEnabled = false },
			cmd:      SubmitVoteCommand{Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1"},
			want:     domainerrors.ErrVotingDisabled,
		},
		{
			name: "anonymous not allowed",
			cmd:  SubmitVoteCommand{Voter: entities.AnonymousVoter(), QuestionID: "q1", AnswerOptionID: "a1"},
			want: domainerrors.ErrAnonymousVotingDisabled,
		},
		{
			name: "unknown question",
			cmd:  SubmitVoteCommand{Voter: voter("u1"), QuestionID: "missing", AnswerOptionID: "a1"},
			want: domainerrors.ErrQuestionNotFound,
		},
		{
			name: "unknown answer",
			cmd:  SubmitVoteCommand{Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "missing"},
			want: domainerrors.ErrAnswerOptionNotFound,
		},
		{
			name: "hidden question",
			cmd:  SubmitVoteCommand{Voter: voter("u1"), QuestionID: "hidden", AnswerOptionID: "h1"},
			want: domainerrors.ErrQuestionClosed,
		},
		{
			name: "expired question",
			cmd:  SubmitVoteCommand{Voter: voter("u1"), QuestionID: "closed", AnswerOptionID: "c1"},
			want: domainerrors.ErrQuestionClosed,
		},
		{
			name: "bad selected option",
			cmd:  SubmitVoteCommand{Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1", SelectedOption: "video"},
			want: domainerrors.ErrInvalidSelectedOption,
		},
		{
			name: "missing ids",
			cmd:  SubmitVoteCommand{Voter: voter("u1")},
			want: domainerrors.ErrInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := newRecorder(store, store, nil)
			if tc.settings != nil {
				tc.settings(&recorder.Settings)
			}
			if _, err := recorder.Submit(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{})
	if len(votes) != 0 {
		t.Fatalf("rejected submissions must not store votes, got %d", len(votes))
	}
}

func TestSubmitAnonymousVotesShareMarkerIdentity(t *testing.T) {
	store := seedStore(true)
	recorder := newRecorder(store, store, nil)
	recorder.Settings.AllowAnonymous = true

	for i := 0; i < 2; i++ {
		result, err := recorder.Submit(context.Background(), SubmitVoteCommand{
			Voter: entities.AnonymousVoter(), QuestionID: "q1", AnswerOptionID: "a1",
		})
		if err != nil {
			t.Fatalf("anonymous submit %d failed: %v", i, err)
		}
		if result.Vote.UserID != entities.AnonymousUserID {
			t.Fatalf("expected anonymous marker id, got %q", result.Vote.UserID)
		}
	}
}

func TestSubmitConcurrentDuplicatesStoreOneVote(t *testing.T) {
	store := seedStore(true)
	recorder := newRecorder(store, store, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := recorder.Submit(context.Background(), SubmitVoteCommand{
				Voter: voter("u1"), QuestionID: "q1", AnswerOptionID: "a1",
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted vote, got %d", accepted)
	}
	votes, _ := store.FindVotes(context.Background(), ports.VoteFilter{QuestionID: "q1"})
	if len(votes) != 1 {
		t.Fatalf("expected one stored vote, got %d", len(votes))
	}
}
