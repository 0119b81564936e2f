package pager

// lruPolicy evicts the resident page with the oldest last-use time. Time
// is a monotonic logical clock ticked once per recorded access rather
// than a wall-clock timestamp, so results are deterministic and
// replayable regardless of how fast the engine actually runs.
type lruPolicy struct {
	lastUse []int64
	clock   int64
}

func newLRUPolicy(virtualPages int) *lruPolicy {
	lp := &lruPolicy{lastUse: make([]int64, virtualPages)}
	for i := range lp.lastUse {
		lp.lastUse[i] = -1
	}
	return lp
}

func (l *lruPolicy) touch(p PageID) {
	l.clock++
	l.lastUse[p] = l.clock
}

func (l *lruPolicy) NoteAdmit(p PageID, _ FrameID) { l.touch(p) }
func (l *lruPolicy) NoteAccess(p PageID) { l.touch(p) }
func (l *lruPolicy) NoteEvict(p PageID)  { l.lastUse[p] = -1 }

// ChooseVictim returns the resident page with the smallest last-use
// clock value, breaking ties by the lowest page number — resident is
// already in ascending page-number order, so the first strictly-smaller
// value found wins ties in favor of the page seen first.
func (l *lruPolicy) ChooseVictim(resident []PageID) (PageID, error) {
	if len(resident) == 0 {
		return 0, &LogicError{Reason: "lru: no resident page to evict"}
	}
	victim := resident[0]
	best := l.lastUse[victim]
	for _, p := range resident[1:] {
		if l.lastUse[p] < best {
			victim = p
			best = l.lastUse[p]
		}
	}
	return victim, nil
}

func (l *lruPolicy) Name() string { return PolicyLRU.String() }
