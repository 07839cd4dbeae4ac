package metrics

import (
	"sync"
	eventSink "vsc-polls/modules/event-sink"
	ledgerTransfer "vsc-polls/modules/ledger-transfer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the registry and ledger hand to their sinks. Only events and
// transfers the inner sink accepted are counted.
type Metrics struct {
	pollEvents     *prometheus.CounterVec
	votes          prometheus.Counter
	voteWeight     prometheus.Counter
	transfers      *prometheus.CounterVec
	transferAmount *prometheus.CounterVec

	registerOnce sync.Once
}

// Register registers the collectors with registry. Subsequent calls are no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.pollEvents = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polls_poll_events_total",
			Help: "Total number of poll lifecycle events by type",
		}, []string{"type"})

		m.votes = factory.NewCounter(prometheus.CounterOpts{
			Name: "polls_votes_total",
			Help: "Total number of votes cast",
		})

		m.voteWeight = factory.NewCounter(prometheus.CounterOpts{
			Name: "polls_vote_weight_total",
			Help: "Sum of the weights of all votes cast",
		})

		m.transfers = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polls_transfers_total",
			Help: "Total number of recorded transfer intents by type",
		}, []string{"type"})

		m.transferAmount = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polls_transfer_amount_total",
			Help: "Sum of recorded transfer amounts by type",
		}, []string{"type"})
	})
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)
	return m
}

type eventSinkDecorator struct {
	inner eventSink.Sink
	m     *Metrics
}

var _ eventSink.Sink = &eventSinkDecorator{}

// EventSink wraps inner so accepted events are counted.
func (m *Metrics) EventSink(inner eventSink.Sink) eventSink.Sink {
	return &eventSinkDecorator{inner, m}
}

func (d *eventSinkDecorator) EmitPollEvent(event eventSink.PollEvent) error {
	if err := d.inner.EmitPollEvent(event); err != nil {
		return err
	}
	d.m.pollEvents.WithLabelValues(string(event.Type)).Inc()
	return nil
}

func (d *eventSinkDecorator) EmitVoteEvent(event eventSink.VoteEvent) error {
	if err := d.inner.EmitVoteEvent(event); err != nil {
		return err
	}
	d.m.votes.Inc()
	d.m.voteWeight.Add(float64(event.Weight))
	return nil
}

type transferSinkDecorator struct {
	inner ledgerTransfer.Sink
	m     *Metrics
}

var _ ledgerTransfer.Sink = &transferSinkDecorator{}

// TransferSink wraps inner so accepted transfer intents are counted.
func (m *Metrics) TransferSink(inner ledgerTransfer.Sink) ledgerTransfer.Sink {
	return &transferSinkDecorator{inner, m}
}

func (d *transferSinkDecorator) Transfer(intent ledgerTransfer.TransferIntent) error {
	if err := d.inner.Transfer(intent); err != nil {
		return err
	}
	d.m.transfers.WithLabelValues(intent.Type).Inc()
	d.m.transferAmount.WithLabelValues(intent.Type).Add(float64(intent.Amount))
	return nil
}
