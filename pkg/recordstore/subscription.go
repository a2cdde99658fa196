package recordstore

import (
	"sync"
)

// subscriber queues snapshots for a single listener and delivers them from its
// own goroutine so that writers never block on slow callbacks.
type subscriber struct {
	collection string
	onChange   func([]Record)

	mu      sync.Mutex
	pending [][]Record
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSubscriber(collection string, onChange func([]Record)) *subscriber {
	s := &subscriber{
		collection: collection,
		onChange:   onChange,
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscriber) push(snapshot []Record) {
	s.mu.Lock()
	s.pending = append(s.pending, snapshot)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}
		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			next := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.onChange(next)
		}
	}
}

// registry tracks subscribers per collection.
type registry struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*subscriber
}

func newRegistry() *registry {
	return &registry{subs: make(map[string]map[int]*subscriber)}
}

func (r *registry) add(sub *subscriber) Unsubscribe {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	if r.subs[sub.collection] == nil {
		r.subs[sub.collection] = make(map[int]*subscriber)
	}
	r.subs[sub.collection][id] = sub
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if group, ok := r.subs[sub.collection]; ok {
			delete(group, id)
			if len(group) == 0 {
				delete(r.subs, sub.collection)
			}
		}
		r.mu.Unlock()
		sub.stop()
	}
}

func (r *registry) listeners(collection string) []*subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group := r.subs[collection]
	out := make([]*subscriber, 0, len(group))
	for _, sub := range group {
		out = append(out, sub)
	}
	return out
}

func (r *registry) collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.subs))
	for name := range r.subs {
		out = append(out, name)
	}
	return out
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, group := range r.subs {
		for _, sub := range group {
			sub.stop()
		}
		delete(r.subs, name)
	}
}
