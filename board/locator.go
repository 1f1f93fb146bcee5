package board

import (
	"math"
	"sync"
)

// DefaultBias is the vertical distance added below a marker's top before it
// is compared with the pointer, roughly half a card height.
const DefaultBias = 50.0

// Slot is one insertion point in a lane.
type Slot struct {
	Lane     Lane
	BeforeID string
}

func (s Slot) AtEnd() bool { return s.BeforeID == EndOfLane }

// Intent turns the slot into a move of cardID.
func (s Slot) Intent(cardID string) MoveIntent {
	return MoveIntent{CardID: cardID, TargetLane: s.Lane, BeforeID: s.BeforeID}
}

// Marker is a slot together with its rendered vertical position.
type Marker struct {
	Slot
	Top float64
}

// Slots lists the markers a lane renders: one before each of its cards and
// the end sentinel last. Top is left for the caller to fill in.
func Slots(cards []Card, lane Lane) []Marker {
	lc := filterLane(cards, lane)
	out := make([]Marker, 0, len(lc)+1)
	for _, c := range lc {
		out = append(out, Marker{Slot: Slot{Lane: lane, BeforeID: c.ID}})
	}
	return append(out, Marker{Slot: Slot{Lane: lane, BeforeID: EndOfLane}})
}

type Locator struct {
	Bias float64
}

func NewLocator() Locator { return Locator{Bias: DefaultBias} }

// Locate returns the slot whose biased boundary is the nearest one below
// the pointer. When the pointer is below every boundary the result is the
// end of the lane; there is no "not found" outcome.
func (l Locator) Locate(lane Lane, markers []Marker, y float64) Slot {
	best := Slot{Lane: lane, BeforeID: EndOfLane}
	closest := math.Inf(-1)
	for _, m := range markers {
		offset := y - (m.Top + l.Bias)
		if offset < 0 && offset > closest {
			closest = offset
			best = Slot{Lane: lane, BeforeID: m.BeforeID}
		}
	}
	return best
}

// Registry holds the markers of every lane as of the last render.
type Registry struct {
	mu    sync.RWMutex
	lanes map[Lane][]Marker
}

func NewRegistry() *Registry {
	return &Registry{lanes: make(map[Lane][]Marker)}
}

// Register replaces the markers of lane.
func (r *Registry) Register(lane Lane, markers []Marker) {
	cp := make([]Marker, len(markers))
	copy(cp, markers)
	r.mu.Lock()
	r.lanes[lane] = cp
	r.mu.Unlock()
}

func (r *Registry) Markers(lane Lane) []Marker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]Marker, len(r.lanes[lane]))
	copy(cp, r.lanes[lane])
	return cp
}

func (r *Registry) Clear(lane Lane) {
	r.mu.Lock()
	delete(r.lanes, lane)
	r.mu.Unlock()
}
