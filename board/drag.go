package board

import "sync"

// Drag follows one pointer gesture over the board. Highlight state is
// transient: Leave, Cancel and Drop all clear it, and only Drop yields a
// MoveIntent.
type Drag struct {
	mu        sync.Mutex
	registry  *Registry
	locator   Locator
	cardID    string
	active    bool
	highlight Slot
	lit       bool
}

func NewDrag(registry *Registry, locator Locator) *Drag {
	return &Drag{registry: registry, locator: locator}
}

// Start begins dragging cardID, discarding any previous gesture.
func (d *Drag) Start(cardID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cardID = cardID
	d.active = cardID != ""
	d.lit = false
}

// Over records the slot under the pointer as highlighted. It reports false
// when no gesture is in progress.
func (d *Drag) Over(lane Lane, y float64) (Slot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return Slot{}, false
	}
	d.highlight = d.locator.Locate(lane, d.registry.Markers(lane), y)
	d.lit = true
	return d.highlight, true
}

func (d *Drag) Highlight() (Slot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.highlight, d.lit
}

// Leave clears the highlight when the pointer exits a lane. The gesture
// itself stays active so the pointer may enter another lane.
func (d *Drag) Leave() {
	d.mu.Lock()
	d.lit = false
	d.mu.Unlock()
}

// Cancel aborts the gesture without producing a move.
func (d *Drag) Cancel() {
	d.mu.Lock()
	d.reset()
	d.mu.Unlock()
}

// Drop ends the gesture and resolves where the card lands. The intent is
// handed out once; a second Drop without Start reports false.
func (d *Drag) Drop(lane Lane, y float64) (MoveIntent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return MoveIntent{}, false
	}
	slot := d.locator.Locate(lane, d.registry.Markers(lane), y)
	cardID := d.cardID
	d.reset()
	return slot.Intent(cardID), true
}

func (d *Drag) reset() {
	d.cardID = ""
	d.active = false
	d.lit = false
	d.highlight = Slot{}
}
