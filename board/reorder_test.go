package board

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveBeforeCardInOtherLane(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Replace([]Card{{ID: "1", Lane: Todo}, {ID: "2", Lane: Doing}}))

	moved, ok := s.MoveAndReorder(MoveIntent{CardID: "1", TargetLane: Doing, BeforeID: "2"})
	require.True(t, ok)
	assert.Equal(t, Card{ID: "1", Lane: Doing}, moved)
	assert.Equal(t, []Card{{ID: "1", Lane: Doing}, {ID: "2", Lane: Doing}}, s.All())
}

func TestMoveAbsentCardIsNoOp(t *testing.T) {
	s := seed(t)
	before := s.All()
	_, ok := s.MoveAndReorder(MoveIntent{CardID: "zz", TargetLane: Done})
	assert.False(t, ok)
	assert.Equal(t, before, s.All())
}

func TestMoveOntoOwnSlotIsNoOp(t *testing.T) {
	s := seed(t)
	before := s.All()
	_, ok := s.MoveAndReorder(MoveIntent{CardID: "c", TargetLane: Done, BeforeID: "c"})
	assert.False(t, ok)
	assert.Equal(t, before, s.All())
}

func TestMoveToUnknownLaneIsNoOp(t *testing.T) {
	s := seed(t)
	before := s.All()
	_, ok := s.MoveAndReorder(MoveIntent{CardID: "a", TargetLane: "archive"})
	assert.False(t, ok)
	assert.Equal(t, before, s.All())
}

func TestAppendToEndPlacesCardLast(t *testing.T) {
	s := seed(t, WithAppendPolicy(AppendToEnd))
	_, ok := s.MoveAndReorder(MoveIntent{CardID: "a", TargetLane: Doing})
	require.True(t, ok)

	all := s.All()
	assert.Equal(t, "a", all[len(all)-1].ID)
	lane := s.ByLane(Doing)
	assert.Equal(t, "a", lane[len(lane)-1].ID)
}

func TestAppendToLanePlacesCardAfterLaneTail(t *testing.T) {
	s := seed(t)
	_, ok := s.MoveAndReorder(MoveIntent{CardID: "d", TargetLane: Todo})
	require.True(t, ok)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(s.All()))
	assert.Equal(t, []string{"a", "c", "d"}, ids(s.ByLane(Todo)))

	_, ok = s.MoveAndReorder(MoveIntent{CardID: "a", TargetLane: Backlog})
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(s.All()))
}

func TestMoveBeforeVanishedCardFallsBackToLaneEnd(t *testing.T) {
	s := seed(t)
	s.Remove("b")
	_, ok := s.MoveAndReorder(MoveIntent{CardID: "a", TargetLane: Done, BeforeID: "b"})
	require.True(t, ok)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, Done, got.Lane)
	assert.Equal(t, []string{"d", "a"}, ids(s.ByLane(Done)))
}

func TestReorderDoesNotTouchInput(t *testing.T) {
	in := []Card{{ID: "1", Lane: Todo}, {ID: "2", Lane: Todo}, {ID: "3", Lane: Todo}}
	out, _, ok := Reorder(in, MoveIntent{CardID: "3", TargetLane: Todo, BeforeID: "1"}, AppendToLane)
	require.True(t, ok)
	assert.Equal(t, []string{"3", "1", "2"}, ids(out))
	assert.Equal(t, []string{"1", "2", "3"}, ids(in))
}

func TestRandomMovesPreserveEveryCard(t *testing.T) {
	for _, policy := range []AppendPolicy{AppendToLane, AppendToEnd} {
		s := NewStore(WithAppendPolicy(policy))
		var cards []Card
		lanes := Lanes()
		for i := 0; i < 12; i++ {
			cards = append(cards, Card{ID: string(rune('a' + i)), Lane: lanes[i%len(lanes)]})
		}
		require.NoError(t, s.Replace(cards))
		want := ids(cards)
		sort.Strings(want)

		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 500; i++ {
			m := MoveIntent{
				CardID:     want[rng.Intn(len(want))],
				TargetLane: lanes[rng.Intn(len(lanes))],
			}
			if rng.Intn(4) > 0 {
				m.BeforeID = want[rng.Intn(len(want))]
			}
			s.MoveAndReorder(m)

			got := ids(s.All())
			sort.Strings(got)
			require.Equal(t, want, got)
		}
	}
}
