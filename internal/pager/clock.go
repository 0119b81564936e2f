package pager

// clockPolicy is the second-chance algorithm: a hand cycles over
// physical frame slots in index order — not page number order, since
// after an eviction the page that replaces another inherits its
// frame's position in the cycle rather than taking a fresh slot. Each
// resident page carries a reference bit; the hand advances, clearing
// bits as it passes, and evicts the first occupant whose bit is
// already clear.
type clockPolicy struct {
	refBit   []bool    // indexed by page
	occupant []PageID  // indexed by frame
	occupied []bool    // indexed by frame: has this slot ever been admitted into
	hand     FrameID
}

func newClockPolicy(totalFrames, virtualPages int) *clockPolicy {
	return &clockPolicy{
		refBit:   make([]bool, virtualPages),
		occupant: make([]PageID, totalFrames),
		occupied: make([]bool, totalFrames),
	}
}

func (c *clockPolicy) NoteAdmit(p PageID, f FrameID) {
	c.refBit[p] = true
	c.occupant[f] = p
	c.occupied[f] = true
}

func (c *clockPolicy) NoteAccess(p PageID) { c.refBit[p] = true }

func (c *clockPolicy) NoteEvict(p PageID) {
	c.refBit[p] = false
}

// ChooseVictim advances the hand over frame slots starting from its
// last position, giving each occupant one reprieve before it can be
// chosen. len(resident) frames are occupied at the point this is
// called (no free frame remains), so 2*len(occupant) steps always
// completes at least one full sweep plus one reprieve per occupant.
func (c *clockPolicy) ChooseVictim(resident []PageID) (PageID, error) {
	if len(resident) == 0 {
		return 0, &LogicError{Reason: "clock: no resident page to evict"}
	}

	n := len(c.occupant)
	maxSteps := 2 * n
	h := c.hand
	for steps := 0; steps <= maxSteps; steps++ {
		if c.occupied[h] {
			p := c.occupant[h]
			if !c.refBit[p] {
				c.hand = (h + 1) % FrameID(n)
				return p, nil
			}
			c.refBit[p] = false
		}
		h = (h + 1) % FrameID(n)
	}
	return 0, &LogicError{Reason: "clock: no victim found within bounded sweep"}
}

func (c *clockPolicy) Name() string { return PolicyClock.String() }
