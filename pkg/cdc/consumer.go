package cdc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/calyxdata/starschema/pkg/metrics"
)

// ConsumerConfig holds the Kafka-side settings for the CDC consumer.
// Redpanda speaks the Kafka protocol, so the same consumer works
// against both.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// MaxBatchSize flushes a table batch when it reaches this many
	// rows. Defaults to 500.
	MaxBatchSize int
	// FlushInterval flushes pending batches even when small.
	// Defaults to 1s.
	FlushInterval time.Duration
}

func (c *ConsumerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if c.GroupID == "" {
		return fmt.Errorf("consumer group id is required")
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 500
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Second
	}
	return nil
}

// Consumer reads CDC events from the topic, transforms them, and
// batches rows per destination table.
type Consumer struct {
	log    *slog.Logger
	cfg    ConsumerConfig
	router *Router
	clock  clockwork.Clock
	group  sarama.ConsumerGroup
}

// NewConsumer joins the consumer group. Pass a fake clock in tests to
// drive the flush ticker deterministically; nil uses the real clock.
func NewConsumer(log *slog.Logger, cfg ConsumerConfig, router *Router, clock clockwork.Clock) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaCfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to join consumer group: %w", err)
	}

	log.Info("CDC consumer joined group", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)

	return &Consumer{
		log:    log,
		cfg:    cfg,
		router: router,
		clock:  clock,
		group:  group,
	}, nil
}

// Run consumes until the context is cancelled. Rebalances restart the
// claim loop; anything else is returned to the caller.
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for err := range c.group.Errors() {
			c.log.Error("consumer group error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		defer c.group.Close()
		for {
			handler := &claimHandler{
				log:    c.log,
				cfg:    c.cfg,
				router: c.router,
				clock:  c.clock,
			}
			if err := c.group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("consume failed: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Rebalance: loop and re-claim.
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// claimHandler implements sarama.ConsumerGroupHandler for one
// rebalance generation.
type claimHandler struct {
	log    *slog.Logger
	cfg    ConsumerConfig
	router *Router
	clock  clockwork.Clock
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batches := newBatchSet(h.cfg.MaxBatchSize)

	ticker := h.clock.NewTicker(h.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() error {
		if batches.empty() {
			return nil
		}
		if err := h.flushAll(session.Context(), batches); err != nil {
			return err
		}
		// Offsets are committed only after rows are in ClickHouse, so
		// a crash between consume and flush replays, never loses.
		session.MarkMessage(batches.last, "")
		batches.reset()
		return nil
	}

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return flush()
			}
			h.ingest(batches, msg)
			if batches.full() {
				if err := flush(); err != nil {
					return err
				}
			}

		case <-ticker.Chan():
			if err := flush(); err != nil {
				return err
			}

		case <-session.Context().Done():
			return flush()
		}
	}
}

func (h *claimHandler) ingest(batches *batchSet, msg *sarama.ConsumerMessage) {
	ev, err := ParseEvent(msg.Value)
	if err != nil {
		h.router.DeadLetter("parse_error", "")
		return
	}

	sink, ok := h.router.Lookup(ev.Metadata.Table)
	if !ok {
		h.router.DeadLetter("unknown_table", ev.Metadata.Table)
		metrics.CDCEventsTotal.WithLabelValues(ev.Metadata.Table, ev.Metadata.Operation, "dropped").Inc()
		return
	}

	rec, err := Transform(ev)
	if err != nil {
		h.router.DeadLetter("invalid_lsn", ev.Metadata.Table)
		metrics.CDCEventsTotal.WithLabelValues(ev.Metadata.Table, ev.Metadata.Operation, "dropped").Inc()
		return
	}

	batches.add(sink, rec.Row, msg)
	metrics.CDCEventsTotal.WithLabelValues(ev.Metadata.Table, ev.Metadata.Operation, "consumed").Inc()
}

func (h *claimHandler) flushAll(ctx context.Context, batches *batchSet) error {
	flushID := uuid.NewString()

	for sink, rows := range batches.rows {
		start := h.clock.Now()
		if err := sink.WriteRows(ctx, rows); err != nil {
			return fmt.Errorf("flush %s to %s: %w", flushID, sink.Table(), err)
		}

		metrics.CDCBatchFlushDuration.WithLabelValues(sink.Table()).Observe(h.clock.Since(start).Seconds())
		metrics.CDCBatchSize.WithLabelValues(sink.Table()).Observe(float64(len(rows)))
		h.log.Debug("flushed CDC batch", "flush_id", flushID, "table", sink.Table(), "rows", len(rows))
	}
	return nil
}

// batchSet accumulates rows per sink between flushes, tracking the
// newest message for offset marking.
type batchSet struct {
	max   int
	count int
	rows  map[RowSink][]map[string]any
	last  *sarama.ConsumerMessage
}

func newBatchSet(max int) *batchSet {
	return &batchSet{
		max:  max,
		rows: make(map[RowSink][]map[string]any),
	}
}

func (b *batchSet) add(sink RowSink, row map[string]any, msg *sarama.ConsumerMessage) {
	b.rows[sink] = append(b.rows[sink], row)
	b.count++
	b.last = msg
}

func (b *batchSet) empty() bool { return b.count == 0 }
func (b *batchSet) full() bool  { return b.count >= b.max }

func (b *batchSet) reset() {
	b.rows = make(map[RowSink][]map[string]any)
	b.count = 0
	b.last = nil
}
