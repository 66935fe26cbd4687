package votingservice

import (
	"log/slog"

	httpadapter "pollster/contexts/community-polls/voting-service/adapters/http"
	"pollster/contexts/community-polls/voting-service/adapters/memory"
	"pollster/contexts/community-polls/voting-service/application/commands"
	"pollster/contexts/community-polls/voting-service/application/notify"
	"pollster/contexts/community-polls/voting-service/application/queries"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	"pollster/contexts/community-polls/voting-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Notifier notify.Fanout
	Store    *memory.Store
}

type Dependencies struct {
	Votes         ports.VoteStore
	Questions     ports.QuestionRepository
	AnswerOptions ports.AnswerOptionRepository
	APIKeys       ports.APIKeyRepository
	// Outbox, when set, receives vote.recorded and results.computed envelopes.
	Outbox    ports.OutboxWriter
	Observers []ports.VoteNotifier
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Secrets   ports.SecretGenerator
	Settings  entities.Settings
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	observers := []ports.VoteNotifier{notify.AuditObserver{Logger: deps.Logger}}
	observers = append(observers, deps.Observers...)
	if deps.Outbox != nil {
		observers = append(observers, notify.OutboxObserver{Outbox: deps.Outbox, IDGen: deps.IDGen})
	}
	notifier := notify.NewFanout(deps.Logger, observers...)

	return Module{
		Notifier: notifier,
		Handler: httpadapter.Handler{
			Votes: commands.VoteRecorder{
				Questions:     deps.Questions,
				AnswerOptions: deps.AnswerOptions,
				Votes:         deps.Votes,
				Notifier:      notifier,
				Clock:         deps.Clock,
				IDGen:         deps.IDGen,
				Settings:      deps.Settings,
				Logger:        deps.Logger,
			},
			Results: queries.ResultsAggregator{
				Questions:     deps.Questions,
				AnswerOptions: deps.AnswerOptions,
				Votes:         deps.Votes,
				Notifier:      notifier,
				Clock:         deps.Clock,
				Mode:          deps.Settings.GroupingMode,
				Logger:        deps.Logger,
			},
			Questions: queries.QuestionQueries{
				Questions:     deps.Questions,
				AnswerOptions: deps.AnswerOptions,
			},
			Auth: queries.APIKeyAuthenticator{
				Keys:   deps.APIKeys,
				Logger: deps.Logger,
			},
			QuestionAdmin: commands.QuestionUseCase{
				Questions:     deps.Questions,
				AnswerOptions: deps.AnswerOptions,
				Clock:         deps.Clock,
				IDGen:         deps.IDGen,
				Logger:        deps.Logger,
			},
			AnswerAdmin: commands.AnswerOptionUseCase{
				Questions:               deps.Questions,
				AnswerOptions:           deps.AnswerOptions,
				Votes:                   deps.Votes,
				Clock:                   deps.Clock,
				IDGen:                   deps.IDGen,
				SingleOptionPerQuestion: deps.Settings.SingleAnswerOptionPerQuestion,
				Logger:                  deps.Logger,
			},
			APIKeyAdmin: commands.APIKeyUseCase{
				Keys:    deps.APIKeys,
				Secrets: deps.Secrets,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Logger:  deps.Logger,
			},
			Settings: deps.Settings,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one memory store, outbox included.
func NewInMemoryModule(seed memory.Seed, settings entities.Settings, logger *slog.Logger, observers ...ports.VoteNotifier) Module {
	store := memory.NewStore(seed, settings.DuplicatePolicy != entities.DuplicatePolicyUnlimited)
	module := NewModule(Dependencies{
		Votes:         store,
		Questions:     store,
		AnswerOptions: store,
		APIKeys:       store,
		Outbox:        store,
		Observers:     observers,
		Clock:         store,
		IDGen:         store,
		Secrets:       store,
		Settings:      settings,
		Logger:        logger,
	})
	module.Store = store
	return module
}
