// Package metrics exposes the bot's Prometheus instruments. All increment
// helpers are nil-safe so code paths under test can run without a registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	ReactionsSeen      *prometheus.CounterVec
	CurationsCommitted prometheus.Counter
	CommitFailures     *prometheus.CounterVec
	BackfillRuns       *prometheus.CounterVec
}

// New registers the bot's instruments on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReactionsSeen: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supplement_bot_reactions_seen_total",
				Help: "Reaction-add events received, partitioned by outcome of the pre-checks.",
			},
			[]string{"outcome"},
		),
		CurationsCommitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "supplement_bot_curations_committed_total",
				Help: "Curation records successfully written to the record store.",
			},
		),
		CommitFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supplement_bot_commit_failures_total",
				Help: "Failed record-store commits, partitioned by pipeline mode.",
			},
			[]string{"mode"},
		),
		BackfillRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supplement_bot_backfill_runs_total",
				Help: "Completed /sync runs, partitioned by result.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.ReactionsSeen, m.CurationsCommitted, m.CommitFailures, m.BackfillRuns)
	return m
}

func (m *Metrics) IncReaction(outcome string) {
	if m == nil || m.ReactionsSeen == nil {
		return
	}
	m.ReactionsSeen.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCommitted() {
	if m == nil || m.CurationsCommitted == nil {
		return
	}
	m.CurationsCommitted.Inc()
}

func (m *Metrics) IncCommitFailure(mode string) {
	if m == nil || m.CommitFailures == nil {
		return
	}
	m.CommitFailures.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncBackfillRun(result string) {
	if m == nil || m.BackfillRuns == nil {
		return
	}
	m.BackfillRuns.WithLabelValues(result).Inc()
}
