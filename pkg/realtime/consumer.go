// Package realtime observes the runs_progress change feed and keeps open
// dashboard sessions synchronized. Every event triggers a full refresh of
// each registered session; there is no incremental patching and no
// event-type branching. Simplicity over efficiency.
package realtime

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/tracing"
)

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// Consumer reads the runs CDC topic and fans refreshes out to every live
// dashboard session
type Consumer struct {
	reader     *kafka.Reader
	registry   *dashboard.Registry
	aggregator *dashboard.Aggregator
	logger     ectologger.Logger
	wg         sync.WaitGroup
	cancel     context.CancelFunc
}

// NewConsumer creates a new change-feed consumer
func NewConsumer(cfg ConsumerConfig, registry *dashboard.Registry, aggregator *dashboard.Aggregator, logger ectologger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:     reader,
		registry:   registry,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Start begins consuming change events
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": c.reader.Config().Topic,
	}).Info("Change-feed consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			c.logger.WithContext(ctx).Info("Change-feed consumer stopping")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if err == context.Canceled || err == io.EOF {
					return
				}
				c.logger.WithContext(ctx).WithError(err).Error("Failed to fetch change event")
				continue
			}

			c.processMessage(ctx, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	ctx, span := tracing.StartSpan(ctx, "realtime.Consumer.processMessage")
	defer span.End()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	envelope, err := ParseDebeziumMessage(msg.Value)
	if err != nil {
		log.WithError(err).Error("Failed to parse change event")
	} else if row, err := envelope.Payload.ParseRunRow(); err != nil {
		log.WithError(err).Error("Failed to parse run row from change event")
	} else if row != nil {
		log.WithFields(map[string]any{
			"op":     envelope.Payload.Op,
			"run_id": row.RunID,
		}).Debug("Run change observed")
	}

	// Refresh regardless of what the event said. Sessions re-read their own
	// owner's data, which is also what scopes the wildcard feed per user.
	c.refreshSessions(ctx)

	// Always commit: the feed is observe-only and a refresh failure is
	// recovered by the next event or a manual refresh.
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to commit change event")
	}
}

func (c *Consumer) refreshSessions(ctx context.Context) {
	sessions := c.registry.All()

	var wg sync.WaitGroup
	for _, session := range sessions {
		wg.Add(1)
		go func(s *dashboard.Session) {
			defer wg.Done()
			c.aggregator.Refresh(ctx, s)
		}(session)
	}
	wg.Wait()
}

// Health returns the consumer health status
func (c *Consumer) Health() bool {
	return c.reader != nil
}
