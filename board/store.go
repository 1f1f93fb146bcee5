package board

import (
	"fmt"
	"sync"
)

// AppendPolicy decides where a card dropped on a lane's end slot lands in
// the ambient sequence.
type AppendPolicy int

const (
	// AppendToLane places the card right after the last card of its lane,
	// or at the end of the sequence when the lane is empty.
	AppendToLane AppendPolicy = iota
	// AppendToEnd places the card after every other card.
	AppendToEnd
)

type ChangeKind int

const (
	ChangeReset ChangeKind = iota
	ChangeUpsert
	ChangeRemove
	ChangeMove
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeUpsert:
		return "upsert"
	case ChangeRemove:
		return "remove"
	case ChangeMove:
		return "move"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is delivered to subscribers after a mutation has been applied.
// Cards is a snapshot of the whole sequence at that point.
type Change struct {
	Kind  ChangeKind
	Card  Card
	Cards []Card
}

type Option func(*Store)

func WithAppendPolicy(p AppendPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// Store is the ordered collection of cards. Lane views are stable filters
// of the single ambient sequence. Every mutation runs to completion under
// the store lock, so observers never see intermediate state.
type Store struct {
	mu     sync.Mutex
	cards  []Card
	policy AppendPolicy
	subs   []func(Change)

	// notifyMu is taken before mu is released so changes reach
	// subscribers in the order they were applied.
	notifyMu sync.Mutex
}

func NewStore(opts ...Option) *Store {
	s := &Store{cards: []Card{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn to be called after every applied mutation, in
// the order mutations were applied. Callbacks run outside the store lock
// and may read the store, but must not mutate it.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) All() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCards(s.cards)
}

// ByLane returns the cards of one lane in ambient order.
func (s *Store) ByLane(lane Lane) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterLane(s.cards, lane)
}

func (s *Store) Get(id string) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.cards, id); i >= 0 {
		return s.cards[i], true
	}
	return Card{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// Replace swaps the whole sequence, typically with the result of the
// startup fetch. The store is left untouched if any card is invalid or an
// id repeats.
func (s *Store) Replace(cards []Card) error {
	seen := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	s.mu.Lock()
	s.cards = cloneCards(cards)
	ch := Change{Kind: ChangeReset, Cards: cloneCards(s.cards)}
	s.publish(ch)
	return nil
}

// Upsert replaces the card with the same id in place, or appends it to the
// end of the sequence.
func (s *Store) Upsert(c Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if i := indexOf(s.cards, c.ID); i >= 0 {
		s.cards[i] = c
	} else {
		s.cards = append(s.cards, c)
	}
	ch := Change{Kind: ChangeUpsert, Card: c, Cards: cloneCards(s.cards)}
	s.publish(ch)
	return nil
}

// Remove deletes the card with the given id. Removing an absent id is a
// no-op and reports false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := indexOf(s.cards, id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	c := s.cards[i]
	s.cards = append(s.cards[:i:i], s.cards[i+1:]...)
	ch := Change{Kind: ChangeRemove, Card: c, Cards: cloneCards(s.cards)}
	s.publish(ch)
	return true
}

// MoveAndReorder applies m to the sequence. It reports false and leaves the
// store unchanged when the move resolves to a no-op.
func (s *Store) MoveAndReorder(m MoveIntent) (Card, bool) {
	s.mu.Lock()
	next, moved, ok := Reorder(s.cards, m, s.policy)
	if !ok {
		s.mu.Unlock()
		return Card{}, false
	}
	s.cards = next
	ch := Change{Kind: ChangeMove, Card: moved, Cards: cloneCards(s.cards)}
	s.publish(ch)
	return moved, true
}

// publish must be called with s.mu held; it releases it.
func (s *Store) publish(ch Change) {
	subs := s.subs
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range subs {
		fn(ch)
	}
}

func indexOf(cards []Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func filterLane(cards []Card, lane Lane) []Card {
	out := []Card{}
	for _, c := range cards {
		if c.Lane == lane {
			out = append(out, c)
		}
	}
	return out
}

func cloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
