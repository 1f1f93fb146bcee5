package board

// EndOfLane is the BeforeID of the sentinel slot at the end of a lane.
const EndOfLane = ""

// MoveIntent is the resolved outcome of a drag gesture: put CardID into
// TargetLane, right before BeforeID, or at the end of the lane when BeforeID
// is EndOfLane.
type MoveIntent struct {
	CardID     string
	TargetLane Lane
	BeforeID   string
}

// Reorder computes the sequence that results from applying m to cards.
// cards is never modified. The boolean is false, and cards is returned as
// is, when the move is a no-op: the card is gone, it is dropped onto its
// own leading slot, or the lane is unknown.
//
// A BeforeID that no longer exists falls back to the end of the target lane
// so the moved card is never lost.
func Reorder(cards []Card, m MoveIntent, policy AppendPolicy) ([]Card, Card, bool) {
	idx := indexOf(cards, m.CardID)
	if idx < 0 || m.BeforeID == m.CardID || !m.TargetLane.Valid() {
		return cards, Card{}, false
	}

	moved := cards[idx]
	moved.Lane = m.TargetLane

	next := make([]Card, 0, len(cards))
	next = append(next, cards[:idx]...)
	next = append(next, cards[idx+1:]...)

	at := -1
	if m.BeforeID != EndOfLane {
		at = indexOf(next, m.BeforeID)
	}
	if at < 0 {
		at = appendIndex(next, m.TargetLane, policy)
	}

	next = append(next, Card{})
	copy(next[at+1:], next[at:])
	next[at] = moved
	return next, moved, true
}

func appendIndex(cards []Card, lane Lane, policy AppendPolicy) int {
	if policy == AppendToEnd {
		return len(cards)
	}
	for i := len(cards) - 1; i >= 0; i-- {
		if cards[i].Lane == lane {
			return i + 1
		}
	}
	return len(cards)
}
