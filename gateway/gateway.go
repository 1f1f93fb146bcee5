package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gmllt/kanvan/board"
)

type EventKind int

const (
	EventLoaded EventKind = iota
	EventLoadFailed
	EventCreated
	EventCreateFailed
	EventDeleted
	EventDeleteFailed
	// EventCardDone fires when a move lands a card in the done lane.
	EventCardDone
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load-failed"
	case EventCreated:
		return "created"
	case EventCreateFailed:
		return "create-failed"
	case EventDeleted:
		return "deleted"
	case EventDeleteFailed:
		return "delete-failed"
	case EventCardDone:
		return "card-done"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is what the presentation layer is told about; failures carry Err.
type Event struct {
	Kind EventKind
	Card board.Card
	Err  error
}

type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type Option func(*Gateway)

func WithNotifier(n Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

func WithLogger(l *logrus.Entry) Option {
	return func(g *Gateway) { g.log = l }
}

// WithIDGenerator replaces the UUID generator used for new cards.
func WithIDGenerator(fn func() string) Option {
	return func(g *Gateway) { g.newID = fn }
}

// Gateway keeps a board.Store in line with the remote store. Creates and
// deletes only touch the local store once the remote has acknowledged
// them; a failed call leaves the store as it was.
type Gateway struct {
	store    *board.Store
	remote   Remote
	notifier Notifier
	log      *logrus.Entry
	newID    func() string

	mu      sync.Mutex
	pending map[string]struct{}
}

func New(store *board.Store, remote Remote, opts ...Option) *Gateway {
	g := &Gateway{
		store:    store,
		remote:   remote,
		notifier: NotifierFunc(func(Event) {}),
		log:      logrus.NewEntry(logrus.StandardLogger()),
		newID:    uuid.NewString,
		pending:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gateway) Store() *board.Store { return g.store }

// Load seeds the store from the remote. On failure the store keeps its
// current content.
func (g *Gateway) Load(ctx context.Context) error {
	cards, err := g.remote.Fetch(ctx)
	if err == nil {
		err = g.store.Replace(cards)
	}
	if err != nil {
		g.log.WithError(err).Error("loading tasks")
		g.notifier.Notify(Event{Kind: EventLoadFailed, Err: err})
		return fmt.Errorf("load: %w", err)
	}
	g.log.WithField("count", len(cards)).Info("tasks loaded")
	g.notifier.Notify(Event{Kind: EventLoaded})
	return nil
}

// Create sends a new card to the remote and inserts the acknowledged
// representation. Nothing is inserted if the remote call fails.
func (g *Gateway) Create(ctx context.Context, lane board.Lane, title, info string) (board.Card, error) {
	card, err := board.NewCard(g.newID(), lane, title, info)
	if err != nil {
		return board.Card{}, err
	}
	entry := g.log.WithFields(logrus.Fields{"card": card.ID, "lane": card.Lane})

	created, err := g.remote.Create(ctx, card)
	if err != nil {
		entry.WithError(err).Warn("create failed")
		g.notifier.Notify(Event{Kind: EventCreateFailed, Card: card, Err: err})
		return board.Card{}, fmt.Errorf("create %s: %w", card.ID, err)
	}
	if uerr := g.store.Upsert(created); uerr != nil {
		// The remote has the card; only its echo is unusable. Reload so the
		// store matches what the remote holds.
		err = fmt.Errorf("%w: remote stored card %s but returned an invalid record: %w", ErrInvalidEcho, card.ID, uerr)
		entry.WithError(err).Warn("create echo rejected, resyncing")
		g.notifier.Notify(Event{Kind: EventCreateFailed, Card: card, Err: err})
		if lerr := g.Load(ctx); lerr != nil {
			entry.WithError(lerr).Error("resync after create failed")
		}
		return board.Card{}, fmt.Errorf("create %s: %w", card.ID, err)
	}
	entry.Info("card created")
	g.notifier.Notify(Event{Kind: EventCreated, Card: created})
	return created, nil
}

// Delete removes the card remotely, then locally. It reports false without
// contacting the remote when the card is already gone or a delete for it is
// still in flight. On failure the card stays in the store.
func (g *Gateway) Delete(ctx context.Context, id string) (bool, error) {
	if !g.begin(id) {
		g.log.WithField("card", id).Debug("delete already pending")
		return false, nil
	}
	defer g.end(id)
	// Checked after begin: a delete that just finished has already removed
	// the card by the time its id leaves the pending set.
	card, ok := g.store.Get(id)
	if !ok {
		g.log.WithField("card", id).Debug("delete ignored")
		return false, nil
	}

	entry := g.log.WithField("card", id)
	if err := g.remote.Delete(ctx, id); err != nil {
		entry.WithError(err).Warn("delete failed")
		g.notifier.Notify(Event{Kind: EventDeleteFailed, Card: card, Err: err})
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	g.store.Remove(id)
	entry.Info("card deleted")
	g.notifier.Notify(Event{Kind: EventDeleted, Card: card})
	return true, nil
}

// Move reorders locally. Lane and order are not sent to the remote, so a
// reload restores the remote's order.
func (g *Gateway) Move(m board.MoveIntent) (board.Card, bool) {
	moved, ok := g.store.MoveAndReorder(m)
	if !ok {
		g.log.WithFields(logrus.Fields{"card": m.CardID, "before": m.BeforeID}).Debug("move ignored")
		return board.Card{}, false
	}
	if moved.Lane == board.Done {
		g.notifier.Notify(Event{Kind: EventCardDone, Card: moved})
	}
	return moved, true
}

// Pending reports whether a delete of id is in flight.
func (g *Gateway) Pending(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[id]
	return ok
}

func (g *Gateway) begin(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[id]; ok {
		return false
	}
	g.pending[id] = struct{}{}
	return true
}

func (g *Gateway) end(id string) {
	g.mu.Lock()
	delete(g.pending, id)
	g.mu.Unlock()
}

// IsRemoteFailure reports whether err came from the remote store: a
// rejection, a transport failure, or an unusable answer.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrRemoteRejected) || errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, ErrInvalidEcho)
}
