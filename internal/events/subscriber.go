// internal/events/subscriber.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"nearby/internal/domain/business"
	searchsvc "nearby/internal/service/search"
)

// BusinessUpdated is the event the business-mutation collaborator publishes
// after any committed write that changes a business's coordinates, category
// set, or active flag.
type BusinessUpdated struct {
	EventID    string                `json:"event_id,omitempty"`
	BusinessID string                `json:"business_id"`
	Old        *business.Coordinates `json:"old,omitempty"`
	New        *business.Coordinates `json:"new,omitempty"`
	ChangedAt  time.Time             `json:"changed_at"`
}

// Subscriber bridges business-update events to cache invalidation.
type Subscriber struct {
	nc          *nats.Conn
	invalidator *searchsvc.Invalidator
	subject     string
	timeout     time.Duration
	logger      *log.Logger

	sub *nats.Subscription
}

// NewSubscriber creates a Subscriber on the given subject.
func NewSubscriber(nc *nats.Conn, invalidator *searchsvc.Invalidator, subject string, timeout time.Duration, logger *log.Logger) *Subscriber {
	if subject == "" {
		subject = "business.updated"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Subscriber{nc: nc, invalidator: invalidator, subject: subject, timeout: timeout, logger: logger}
}

// Start subscribes to the update subject.
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(s.subject, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Printf("[events] subscribed to %s", s.subject)
	return nil
}

// Stop drains the subscription.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

func (s *Subscriber) handle(msg *nats.Msg) {
	var event BusinessUpdated
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Printf("[events] bad payload on %s: %v", s.subject, err)
		return
	}
	if event.BusinessID == "" {
		s.logger.Printf("[events] dropped event without business_id")
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.invalidator.OnBusinessLocationChanged(ctx, event.BusinessID, event.Old, event.New); err != nil {
		s.logger.Printf("[events] invalidation for %s (event %s): %v", event.BusinessID, event.EventID, err)
	}
}
