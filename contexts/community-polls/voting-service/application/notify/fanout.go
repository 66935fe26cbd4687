package notify

import (
	"context"
	"fmt"
	"log/slog"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/ports"
)

// Fanout delivers each notification to every observer in order. A failing or
// panicking observer is logged and skipped; delivery never fails the caller.
type Fanout struct {
	Observers []ports.VoteNotifier
	Logger    *slog.Logger
}

func NewFanout(logger *slog.Logger, observers ...ports.VoteNotifier) Fanout {
	filtered := make([]ports.VoteNotifier, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			filtered = append(filtered, observer)
		}
	}
	return Fanout{Observers: filtered, Logger: logger}
}

func (f Fanout) VoteRecorded(ctx context.Context, event ports.VoteRecorded) error {
	for index, observer := range f.Observers {
		f.deliver(index, "vote_recorded", func() error {
			return observer.VoteRecorded(ctx, event)
		})
	}
	return nil
}

func (f Fanout) ResultsComputed(ctx context.Context, event ports.ResultsComputed) error {
	for index, observer := range f.Observers {
		f.deliver(index, "results_computed", func() error {
			return observer.ResultsComputed(ctx, event)
		})
	}
	return nil
}

func (f Fanout) deliver(index int, notification string, call func() error) {
	logger := application.ResolveLogger(f.Logger)
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("vote observer panicked",
				"event", "voting_observer_panicked",
				"module", application.Module,
				"layer", "application",
				"observer_index", index,
				"notification", notification,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()
	if err := call(); err != nil {
		logger.Warn("vote observer failed",
			"event", "voting_observer_failed",
			"module", application.Module,
			"layer", "application",
			"observer_index", index,
			"notification", notification,
			"error", err.Error(),
		)
	}
}

var _ ports.VoteNotifier = Fanout{}
