package pager

// PageID identifies a virtual page in [0, virtual_pages).
type PageID uint32

// SlotID identifies a block in the backing store. Slots are assigned
// monotonically the first time a page is evicted and never reclaimed.
type SlotID uint32

// noSlot marks a page that has never been evicted.
const noSlot = ^SlotID(0)

// PageEntry is the page-table record for one virtual page.
//
// Invariants (spec-mandated): Valid iff Frame is set; Valid implies the
// occupant frame's Occupant equals this page's id; once evicted, OnDisk
// is true and Slot is assigned; a Slot, once assigned, never changes.
type PageEntry struct {
	frame    FrameID
	hasFrame bool
	Dirty    bool
	OnDisk   bool
	slot     SlotID
	hasSlot  bool
}

// Frame returns the resident frame and whether the page is valid.
func (p *PageEntry) Frame() (FrameID, bool) {
	return p.frame, p.hasFrame
}

// Valid reports whether the page currently maps to a frame.
func (p *PageEntry) Valid() bool {
	return p.hasFrame
}

// Slot returns the page's assigned backing-store slot, if any.
func (p *PageEntry) Slot() (SlotID, bool) {
	return p.slot, p.hasSlot
}

func (p *PageEntry) assignFrame(f FrameID) {
	p.frame = f
	p.hasFrame = true
}

func (p *PageEntry) clearFrame() {
	p.frame = 0
	p.hasFrame = false
	p.Dirty = false
}

// assignSlot allocates a slot the first time a page is evicted; later
// calls are no-ops, matching "once assigned, a disk_slot never changes".
func (p *PageEntry) assignSlot(next *SlotID) SlotID {
	if !p.hasSlot {
		p.slot = *next
		p.hasSlot = true
		*next++
	}
	return p.slot
}

// PageTable is the passive, engine-owned mapping from virtual page
// number to residency state. It performs no I/O and no policy
// reasoning — every method is a field-level read or write.
type PageTable struct {
	entries []PageEntry
}

// NewPageTable allocates a page table sized for virtualPages pages, all
// initially invalid and never-evicted.
func NewPageTable(virtualPages int) *PageTable {
	pt := &PageTable{entries: make([]PageEntry, virtualPages)}
	for i := range pt.entries {
		pt.entries[i].hasSlot = false
	}
	return pt
}

// Len returns the number of virtual pages the table covers.
func (pt *PageTable) Len() int {
	return len(pt.entries)
}

// InBounds reports whether p is a valid virtual page number.
func (pt *PageTable) InBounds(p PageID) bool {
	return int(p) >= 0 && int(p) < len(pt.entries)
}

// Entry returns a mutable pointer to the page table entry for p. Callers
// must have already checked InBounds.
func (pt *PageTable) Entry(p PageID) *PageEntry {
	return &pt.entries[p]
}

// ResidentPages returns the set of currently-valid virtual pages, in
// ascending order. It is used by policies (LRU's tie-break) and by
// diagnostics endpoints, never on the engine's hot path.
func (pt *PageTable) ResidentPages() []PageID {
	out := make([]PageID, 0, len(pt.entries))
	for i := range pt.entries {
		if pt.entries[i].hasFrame {
			out = append(out, PageID(i))
		}
	}
	return out
}
