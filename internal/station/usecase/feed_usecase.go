package usecase

import (
	"context"
	"fmt"
	"sync"

	"evconnect/internal/shared/eventbus"
	"evconnect/internal/shared/logger"
	"evconnect/internal/station/domain/model"

	"github.com/google/uuid"
)

// Subscription receives the station events of one owner until Close is called
type Subscription struct {
	ID      string
	OwnerID string
	Events  <-chan model.StationEvent

	events chan model.StationEvent
	feed   *FeedUsecase
	once   sync.Once
}

// Close unsubscribes and closes Events. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.remove(s)
	})
}

// FeedUsecase fans station events out to per-owner subscribers
type FeedUsecase struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscription
	bufferSize  int
	logger      logger.Logger
}

// NewFeedUsecase subscribes to station events on bus
func NewFeedUsecase(bus eventbus.Bus, bufferSize int, log logger.Logger) *FeedUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	f := &FeedUsecase{
		subscribers: make(map[string]map[string]*Subscription),
		bufferSize:  bufferSize,
		logger:      log.WithComponent("station_feed"),
	}
	for _, t := range []model.EventType{model.EventStationCreated, model.EventStationUpdated, model.EventStationDeleted} {
		bus.Subscribe(string(t), f.handle)
	}
	return f
}

// Subscribe registers a subscriber for ownerID's station events
func (f *FeedUsecase) Subscribe(ownerID string) *Subscription {
	ch := make(chan model.StationEvent, f.bufferSize)
	sub := &Subscription{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Events:  ch,
		events:  ch,
		feed:    f,
	}

	f.mu.Lock()
	if f.subscribers[ownerID] == nil {
		f.subscribers[ownerID] = make(map[string]*Subscription)
	}
	f.subscribers[ownerID][sub.ID] = sub
	f.mu.Unlock()

	f.logger.Debugf("Feed subscriber %s added for owner %s", sub.ID, ownerID)
	return sub
}

// SubscriberCount returns the number of live subscribers for ownerID
func (f *FeedUsecase) SubscriberCount(ownerID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[ownerID])
}

// CloseAll closes every subscription. Websocket handlers see their Events channel close
// and drop the connection.
func (f *FeedUsecase) CloseAll() {
	f.mu.RLock()
	subs := make([]*Subscription, 0)
	for _, byID := range f.subscribers {
		for _, sub := range byID {
			subs = append(subs, sub)
		}
	}
	f.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// remove closes the channel under the write lock so handle never sends on it afterwards
func (f *FeedUsecase) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if subs, ok := f.subscribers[sub.OwnerID]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(f.subscribers, sub.OwnerID)
		}
	}
	close(sub.events)
}

func (f *FeedUsecase) handle(ctx context.Context, event eventbus.Event) error {
	payload, ok := event.Data().(model.StationEvent)
	if !ok || payload.Station == nil {
		return fmt.Errorf("unexpected payload for %s", event.Type())
	}
	owner := payload.Station.OwnerID.Hex()

	f.mu.RLock()
	defer f.mu.RUnlock()

	for id, sub := range f.subscribers[owner] {
		select {
		case sub.events <- payload:
		default:
			f.logger.Warnf("Feed subscriber %s is full, dropping %s", id, payload.Type)
		}
	}
	return nil
}
