package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/pkg/logger"
	"github.com/movermatch/marketplace-api/pkg/messaging"
)

// Engine event types published to the broker for downstream consumers
// (dashboards, push delivery).
const (
	TypeJobDispatched = "job.dispatched"
	TypeJobAssigned   = "job.assigned"
	TypeJobCompleted  = "job.completed"
	TypeJobExpired    = "job.expired"
	TypeJobPurged     = "job.purged"
)

const channel = "engine.events"

// Emitter publishes engine events. Implementations are best-effort: the
// state machine never depends on a publish succeeding.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type Service struct {
	broker messaging.Broker
	logger *logger.Logger
}

func NewService(broker messaging.Broker, logger *logger.Logger) *Service {
	return &Service{broker: broker, logger: logger}
}

// Emit publishes an event envelope. Failures are logged and dropped.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) {
	msg := map[string]interface{}{
		"id":         uuid.New().String(),
		"type":       eventType,
		"payload":    payload,
		"emitted_at": time.Now().UTC(),
	}
	if err := s.broker.Publish(ctx, channel, msg); err != nil {
		s.logger.Error(err, "failed to publish engine event", "event_type", eventType)
	}
}

// NopEmitter discards events; used where no broker is configured.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, interface{}) {}
