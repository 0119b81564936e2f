package pager

// ReplacementPolicy decides which resident page to evict when a fault
// occurs with no free frame. Implementations hold no reference to the
// engine's page or frame tables; the engine tells them what happened
// via NoteAdmit/NoteAccess and asks them to choose a victim when it
// needs one. This keeps FIFO, LRU, and Clock each a small, independently
// testable piece of state rather than tangled into the fault handler.
type ReplacementPolicy interface {
	// NoteAdmit records that page p was just given frame f (either on
	// first use or after being faulted back in). Clock needs the frame
	// index to walk its circular hand in frame-slot order; FIFO and LRU
	// ignore it.
	NoteAdmit(p PageID, f FrameID)

	// NoteAccess records a hit on a resident page; a faulted-in page is
	// reported through NoteAdmit instead.
	// FIFO ignores this; LRU and Clock use it to update recency state.
	NoteAccess(p PageID)

	// NoteEvict records that page p was chosen and removed.
	NoteEvict(p PageID)

	// ChooseVictim returns a currently resident page to evict. resident
	// is the page table's current residency view, supplied by the
	// engine so the policy never needs to hold its own copy.
	ChooseVictim(resident []PageID) (PageID, error)

	// Name identifies the policy for Statistics and diagnostics.
	Name() string
}

// PolicyKind selects a ReplacementPolicy implementation.
type PolicyKind int

const (
	PolicyFIFO PolicyKind = iota
	PolicyLRU
	PolicyClock
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyFIFO:
		return "fifo"
	case PolicyLRU:
		return "lru"
	case PolicyClock:
		return "clock"
	default:
		return "unknown"
	}
}

// NewPolicy constructs the named policy, sized for a run of totalFrames
// frames and virtualPages virtual pages.
func NewPolicy(kind PolicyKind, totalFrames, virtualPages int) (ReplacementPolicy, error) {
	switch kind {
	case PolicyFIFO:
		return newFIFOPolicy(totalFrames), nil
	case PolicyLRU:
		return newLRUPolicy(virtualPages), nil
	case PolicyClock:
		return newClockPolicy(totalFrames, virtualPages), nil
	default:
		return nil, &ConfigError{Reason: "unknown replacement policy"}
	}
}
