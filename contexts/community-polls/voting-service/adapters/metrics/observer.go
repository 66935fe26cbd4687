package metrics

import (
	"context"

	"pollster/contexts/community-polls/voting-service/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer exports vote and result notifications as prometheus series.
type Observer struct {
	VotesRecorded   *prometheus.CounterVec
	ResultsComputed *prometheus.CounterVec
	ResultTotals    *prometheus.GaugeVec
}

// NewObserver registers the collectors on registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewObserver(registerer prometheus.Registerer, namespace string) *Observer {
	factory := promauto.With(registerer)
	return &Observer{
		VotesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "voting",
				Name:      "votes_recorded_total",
				Help:      "Total number of votes stored",
			},
			[]string{"question_id", "selected_option"},
		),
		ResultsComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "voting",
				Name:      "results_computed_total",
				Help:      "Total number of result computations",
			},
			[]string{"question_id"},
		),
		ResultTotals: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "voting",
				Name:      "question_total_votes",
				Help:      "Vote total observed at the last result computation",
			},
			[]string{"question_id"},
		),
	}
}

func (o *Observer) VoteRecorded(_ context.Context, event ports.VoteRecorded) error {
	selected := event.SelectedOption
	if selected == "" {
		selected = "none"
	}
	o.VotesRecorded.WithLabelValues(event.QuestionID, selected).Inc()
	return nil
}

func (o *Observer) ResultsComputed(_ context.Context, event ports.ResultsComputed) error {
	o.ResultsComputed.WithLabelValues(event.QuestionID).Inc()
	o.ResultTotals.WithLabelValues(event.QuestionID).Set(float64(event.TotalVotes))
	return nil
}

var _ ports.VoteNotifier = (*Observer)(nil)
