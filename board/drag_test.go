package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDrag() *Drag {
	r := NewRegistry()
	r.Register(Todo, laneMarkers())
	return NewDrag(r, NewLocator())
}

func TestDragDropResolvesIntentOnce(t *testing.T) {
	d := newTestDrag()
	d.Start("9")

	slot, ok := d.Over(Todo, 180)
	require.True(t, ok)
	assert.Equal(t, "2", slot.BeforeID)

	m, ok := d.Drop(Todo, 180)
	require.True(t, ok)
	assert.Equal(t, MoveIntent{CardID: "9", TargetLane: Todo, BeforeID: "2"}, m)

	_, ok = d.Drop(Todo, 180)
	assert.False(t, ok)
	_, lit := d.Highlight()
	assert.False(t, lit)
}

func TestDragLeaveClearsHighlightOnly(t *testing.T) {
	d := newTestDrag()
	d.Start("9")
	d.Over(Todo, 10)
	d.Leave()

	_, lit := d.Highlight()
	assert.False(t, lit)

	m, ok := d.Drop(Done, 10)
	require.True(t, ok)
	assert.Equal(t, MoveIntent{CardID: "9", TargetLane: Done, BeforeID: EndOfLane}, m)
}

func TestDragCancelProducesNoMove(t *testing.T) {
	d := newTestDrag()
	d.Start("9")
	d.Over(Todo, 10)
	d.Cancel()

	_, lit := d.Highlight()
	assert.False(t, lit)
	_, ok := d.Over(Todo, 10)
	assert.False(t, ok)
	_, ok = d.Drop(Todo, 10)
	assert.False(t, ok)
}

func TestDragIntoStoreEndToEnd(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Replace([]Card{
		{ID: "1", Lane: Todo}, {ID: "2", Lane: Todo}, {ID: "3", Lane: Doing},
	}))
	r := NewRegistry()
	markers := Slots(s.All(), Todo)
	for i := range markers {
		markers[i].Top = float64(i * 100)
	}
	r.Register(Todo, markers)

	d := NewDrag(r, NewLocator())
	d.Start("3")
	m, ok := d.Drop(Todo, 20)
	require.True(t, ok)
	_, ok = s.MoveAndReorder(m)
	require.True(t, ok)
	assert.Equal(t, []string{"3", "1", "2"}, ids(s.ByLane(Todo)))
}
