package pager

// FrameID identifies a physical frame in [0, total_frames).
type FrameID uint32

// FrameEntry is the frame-table record for one physical frame. The
// frame's buffer is owned here; the engine mutates it in place and
// nothing outside the engine holds a reference into it.
type FrameEntry struct {
	Occupied bool
	Occupant PageID
	buffer   []byte
}

// Buffer returns the frame's page-sized byte buffer.
func (f *FrameEntry) Buffer() []byte {
	return f.buffer
}

// FrameTable is the passive mapping from physical frame index to its
// current occupant. It performs no I/O and no policy reasoning.
type FrameTable struct {
	entries  []FrameEntry
	pageSize int
}

// NewFrameTable allocates totalFrames frames, each pageSize bytes, all
// initially free. Frame buffers are allocated once here and held for
// the table's lifetime.
func NewFrameTable(totalFrames, pageSize int) *FrameTable {
	ft := &FrameTable{
		entries:  make([]FrameEntry, totalFrames),
		pageSize: pageSize,
	}
	for i := range ft.entries {
		ft.entries[i].buffer = make([]byte, pageSize)
	}
	return ft
}

// Len returns the number of physical frames.
func (ft *FrameTable) Len() int {
	return len(ft.entries)
}

// Entry returns a mutable pointer to the frame table entry for f.
func (ft *FrameTable) Entry(f FrameID) *FrameEntry {
	return &ft.entries[f]
}

// FindFree scans frames in ascending index order and returns the first
// free one. Spec-mandated order: policies must not assume any other.
func (ft *FrameTable) FindFree() (FrameID, bool) {
	for i := range ft.entries {
		if !ft.entries[i].Occupied {
			return FrameID(i), true
		}
	}
	return 0, false
}

func (ft *FrameTable) occupy(f FrameID, page PageID) {
	e := &ft.entries[f]
	e.Occupied = true
	e.Occupant = page
}

func (ft *FrameTable) free(f FrameID) {
	e := &ft.entries[f]
	e.Occupied = false
	e.Occupant = 0
}
