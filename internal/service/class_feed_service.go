package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

type classSubscriber interface {
	Subscribe(ctx context.Context, onChange func([]models.DailyClass)) (recordstore.Unsubscribe, error)
}

// ClassFeedService watches the daily class collection, drops cached reports on
// every change and fans a summary event out to live listeners.
type ClassFeedService struct {
	source  classSubscriber
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	unsubscribe recordstore.Unsubscribe
	listeners   map[int]chan models.ClassFeedEvent
	nextID      int
	last        *models.ClassFeedEvent
}

// NewClassFeedService constructs a ClassFeedService.
func NewClassFeedService(source classSubscriber, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ClassFeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassFeedService{
		source:    source,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]chan models.ClassFeedEvent),
	}
}

// Start opens the subscription. Calling Start twice is a no-op.
func (s *ClassFeedService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return nil
	}
	unsubscribe, err := s.source.Subscribe(ctx, s.handle)
	if err != nil {
		return storeError(err, "classes not found", "failed to subscribe to classes")
	}
	s.unsubscribe = unsubscribe
	return nil
}

// Stop detaches from the store and closes every listener.
func (s *ClassFeedService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	listeners := s.listeners
	s.listeners = make(map[int]chan models.ClassFeedEvent)
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	for _, ch := range listeners {
		close(ch)
	}
	s.metrics.SetFeedListeners(0)
}

// Listen registers a listener. The channel holds at most one pending event and
// a slow reader only sees the latest one. The latest known event, if any, is
// delivered immediately. cancel must be called when the reader is done.
func (s *ClassFeedService) Listen() (<-chan models.ClassFeedEvent, func()) {
	ch := make(chan models.ClassFeedEvent, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = ch
	if s.last != nil {
		ch <- *s.last
	}
	count := len(s.listeners)
	s.mu.Unlock()
	s.metrics.SetFeedListeners(count)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if existing, ok := s.listeners[id]; ok {
				delete(s.listeners, id)
				close(existing)
			}
			count := len(s.listeners)
			s.mu.Unlock()
			s.metrics.SetFeedListeners(count)
		})
	}
	return ch, cancel
}

func (s *ClassFeedService) handle(classes []models.DailyClass) {
	event := models.ClassFeedEvent{
		Collection: "daily_classes",
		Total:      len(classes),
		ByStatus:   map[string]int{},
		At:         s.now().UTC(),
	}
	for _, class := range classes {
		if !class.Active() {
			continue
		}
		event.Active++
		event.ByStatus[string(class.Status)]++
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.cache.Invalidate(ctx, ReportCachePrefix+"*")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &event
	for _, ch := range s.listeners {
		select {
		case ch <- event:
		default:
			// Replace the stale pending event.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}
