package service

import (
	"context"
	"log/slog"
	"sync"

	"cardledger/internal/domain"
	"cardledger/pkg/crypto"
)

// Publisher delivers a serialized event to the outside world, keyed so that
// events for one card keep their order.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// EventService signs and publishes balance-updated events off the request
// path. Events are queued on a buffered channel and drained by a small worker
// pool; a full queue drops the event rather than blocking reconciliation.
type EventService struct {
	publisher    Publisher
	signer       *crypto.Signer
	eventQueue   chan domain.BalanceUpdated
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

func NewEventService(publisher Publisher, signer *crypto.Signer, workers int, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &EventService{
		publisher:    publisher,
		signer:       signer,
		eventQueue:   make(chan domain.BalanceUpdated, 1000),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	s.startWorkers()

	return s
}

func (s *EventService) PublishBalanceUpdated(ctx context.Context, event domain.BalanceUpdated) error {
	if s.signer != nil {
		event.Signature = s.signer.SignBalanceEvent(event)
	}

	select {
	case s.eventQueue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.logger.Warn("Event queue full, dropping event",
			slog.String("event_id", event.EventID),
			slog.String("card_number", event.CardNumber))
		return nil
	}
}

func (s *EventService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *EventService) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.eventQueue:
			s.deliver(event, id)
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *EventService) deliver(event domain.BalanceUpdated, workerID int) {
	if err := s.publisher.Publish(context.Background(), event.CardNumber, event); err != nil {
		s.logger.Error("Failed to publish event",
			slog.String("event_id", event.EventID),
			slog.String("card_number", event.CardNumber),
			slog.Int("worker_id", workerID),
			slog.String("error", err.Error()))
		return
	}

	s.logger.Info("Event published",
		slog.String("event_id", event.EventID),
		slog.String("card_number", event.CardNumber))
}

func (s *EventService) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Event service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogPublisher is the fallback Publisher used when no broker is configured; it
// writes events to the log instead of a topic.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) Publish(ctx context.Context, key string, event any) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Event (no broker configured)", slog.String("key", key), slog.Any("event", event))
	return nil
}
