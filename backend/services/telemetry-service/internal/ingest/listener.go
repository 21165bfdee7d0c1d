package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/broker"
	"shuttletrack/backend/services/telemetry-service/internal/metrics"
)

// Subscriber registers topic handlers with the broker.
type Subscriber interface {
	Subscribe(topic string, handler broker.MessageHandler)
}

// Listener binds the inbound topics to validation and dispatch. The handlers
// run on the broker client's callback goroutine: they validate, hand the
// reading to the dispatcher and return. They never touch the store and never
// block.
type Listener struct {
	dispatcher *Dispatcher
	pipeline   *Pipeline
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewListener returns listener.
func NewListener(d *Dispatcher, p *Pipeline, m *metrics.Metrics, logger *zap.Logger) *Listener {
	return &Listener{dispatcher: d, pipeline: p, metrics: m, logger: logger}
}

// Bind subscribes the inbound topics.
func (l *Listener) Bind(s Subscriber) {
	s.Subscribe(broker.TopicShuttleGPS, l.handler(ClassFullUpdate))
	s.Subscribe(broker.TopicShuttlePosition, l.handler(ClassPositionOnly))
	s.Subscribe(broker.TopicDoorCount, l.handler(ClassDoorCount))
}

func (l *Listener) handler(class Class) broker.MessageHandler {
	return func(topic string, payload []byte) {
		if l.metrics != nil {
			l.metrics.MessagesReceived.WithLabelValues(class.String()).Inc()
		}

		reading, err := Parse(class, payload)
		if err != nil {
			if l.metrics != nil {
				l.metrics.MessagesRejected.WithLabelValues(rejectReason(err)).Inc()
			}
			l.logger.Warn("rejected inbound message",
				zap.String("topic", topic), zap.Error(err))
			return
		}

		submitted := l.dispatcher.TrySubmit(func(ctx context.Context) {
			l.pipeline.Process(ctx, reading)
		})
		if !submitted {
			l.logger.Warn("dropped reading, work queue unavailable",
				zap.String("topic", topic))
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingIdentity):
		return "missing_identity"
	case errors.Is(err, ErrInvalidNumeric):
		return "invalid_numeric"
	case errors.Is(err, ErrOutOfRangePosition):
		return "out_of_range_position"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	default:
		return "other"
	}
}
