package state

import "log"

// Entity names the local collection a mutation applies to.
type Entity string

const (
	EntityUser        Entity = "user"
	EntityAccount     Entity = "account"
	EntityGeneralInfo Entity = "general_info"
	EntityProfile     Entity = "profile"
	EntityShare       Entity = "share"
	EntityOutbox      Entity = "outbox"
)

// Op is the kind of mutation applied.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpSelect Op = "select"
)

// Mutation is one applied local state change, fanned out to subscribers.
type Mutation struct {
	Entity Entity      `json:"entity"`
	Op     Op          `json:"op"`
	Data   interface{} `json:"data,omitempty"`
}

const subscriberBuffer = 64

// Subscribe registers a mutation consumer. The returned cancel func removes
// the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan Mutation, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan Mutation, subscriberBuffer)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// publish fans a mutation out to every subscriber. Delivery is best-effort: a
// subscriber that is not draining its buffer loses the event rather than
// blocking state application.
func (s *Store) publish(m Mutation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- m:
		default:
			log.Printf("[state] dropping %s/%s mutation for slow subscriber", m.Entity, m.Op)
		}
	}
}
