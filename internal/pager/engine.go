package pager

import "time"

// AccessKind distinguishes a read from a write reference.
type AccessKind int

const (
	Read AccessKind = iota
	Write
)

func (k AccessKind) String() string {
	if k == Write {
		return "W"
	}
	return "R"
}

// Config bundles the parameters NewEngine needs to build a PagingEngine; all of
// them are fixed for the run's lifetime.
type Config struct {
	TotalFrames  int
	VirtualPages int
	PageSize     int
	Policy       PolicyKind
	BackingPath  string
}

// Sizes are chosen per NewEngine call but bounded so a single run's tables
// and backing file stay small enough to reason about by hand.
const (
	maxTotalFrames  = 256
	maxVirtualPages = 1024
)

func (c Config) validate() error {
	if c.TotalFrames <= 0 {
		return &ConfigError{Reason: "total_frames must be positive"}
	}
	if c.TotalFrames > maxTotalFrames {
		return &ConfigError{Reason: "total_frames exceeds the 256-frame ceiling"}
	}
	if c.VirtualPages <= 0 {
		return &ConfigError{Reason: "virtual_pages must be positive"}
	}
	if c.VirtualPages > maxVirtualPages {
		return &ConfigError{Reason: "virtual_pages exceeds the 1024-page ceiling"}
	}
	if c.TotalFrames > c.VirtualPages {
		return &ConfigError{Reason: "total_frames cannot exceed virtual_pages"}
	}
	if c.PageSize <= 0 {
		return &ConfigError{Reason: "page_size must be positive"}
	}
	return nil
}

// PagingEngine is the controller tying the page table, frame table,
// replacement policy, and backing store into one demand-paging
// simulation. One engine owns its BackingStore exclusively (see
// backingstore.go). PagingEngine does not synchronize its own methods —
// it is single-threaded and non-reentrant by design. internal/api.Server
// is responsible for serializing calls into a shared engine across
// goroutines (its own mutex wraps every Access/Stats/PageTable/FrameTable
// call); nothing in this package may be called concurrently on its own.
type PagingEngine struct {
	pages  *PageTable
	frames *FrameTable
	store  *BackingStore
	policy ReplacementPolicy
	stats  Statistics

	nextSlot SlotID
}

// NewEngine validates cfg and constructs a PagingEngine ready to serve
// Access calls. The backing store file is created (or truncated) at
// cfg.BackingPath.
func NewEngine(cfg Config) (*PagingEngine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(cfg.Policy, cfg.TotalFrames, cfg.VirtualPages)
	if err != nil {
		return nil, err
	}
	store, err := OpenBackingStore(cfg.BackingPath, cfg.PageSize)
	if err != nil {
		return nil, err
	}
	e := &PagingEngine{
		pages:  NewPageTable(cfg.VirtualPages),
		frames: NewFrameTable(cfg.TotalFrames, cfg.PageSize),
		store:  store,
		policy: policy,
	}
	e.stats.reset(policy.Name())
	return e, nil
}

// SetCodec installs a non-identity backing-store codec (compression or
// encryption). Must be called before the first Access.
func (e *PagingEngine) SetCodec(c blockCodec) {
	e.store.SetCodec(c)
}

// Stats returns a snapshot of the run's accumulated statistics.
func (e *PagingEngine) Stats() Statistics {
	return e.stats
}

// PageTable exposes the engine's page table for read-only diagnostics
// (the HTTP/GraphQL control plane's page-table query).
func (e *PagingEngine) PageTable() *PageTable {
	return e.pages
}

// FrameTable exposes the engine's frame table for read-only diagnostics.
func (e *PagingEngine) FrameTable() *FrameTable {
	return e.frames
}

// Close releases the engine's backing store.
func (e *PagingEngine) Close() error {
	return e.store.Close()
}

// Access services one reference to page p of the given kind. It is the
// engine's sole entry point: hit path touches the resident frame and
// notifies the policy; miss path counts the fault, times handleFault,
// and folds the elapsed time into FaultTimeTotal.
func (e *PagingEngine) Access(p PageID, kind AccessKind) error {
	if !e.pages.InBounds(p) {
		return &BoundsError{Reason: "page reference out of range"}
	}

	e.stats.Accesses++
	entry := e.pages.Entry(p)

	if entry.Valid() {
		e.stats.Hits++
		frame, _ := entry.Frame()
		buf := e.frames.Entry(frame).Buffer()
		if len(buf) > 0 {
			b := buf[0]
			buf[0] = b // touch: model the real memory access
		}
		if kind == Write {
			entry.Dirty = true
		}
		e.policy.NoteAccess(p)
		return nil
	}

	e.stats.Faults++
	start := time.Now()
	err := e.handleFault(p, kind)
	e.stats.FaultTimeTotal += time.Since(start)
	return err
}

// handleFault brings page p into a frame, evicting a victim and
// swapping it out first if no frame is free.
func (e *PagingEngine) handleFault(p PageID, kind AccessKind) error {
	frame, ok := e.frames.FindFree()
	if !ok {
		victimID, err := e.policy.ChooseVictim(e.pages.ResidentPages())
		if err != nil {
			return err
		}
		victim := e.pages.Entry(victimID)
		victimFrame, ok := victim.Frame()
		if !ok {
			return &LogicError{Reason: "policy chose a non-resident victim"}
		}
		if victimID == p {
			return &LogicError{Reason: "policy chose the faulting page as its own victim"}
		}

		// Write the victim back if it was dirtied since admission, or
		// unconditionally on its first-ever eviction so the round-trip
		// invariant holds even for a page that was read-only but never
		// previously swapped out. Keyed on OnDisk rather than Slot: slot
		// assignment must happen before the write (the slot is the write
		// target) and is itself a no-op past the first call, so it can't
		// serve as the "already persisted" flag. If Write fails, OnDisk
		// stays false and a retry recomputes the same decision instead of
		// silently skipping the write-back.
		slot := victim.assignSlot(&e.nextSlot)
		if victim.Dirty || !victim.OnDisk {
			swapStart := time.Now()
			if err := e.store.Write(slot, e.frames.Entry(victimFrame).Buffer()); err != nil {
				return err
			}
			victim.OnDisk = true
			e.stats.SwapsOut++
			e.stats.SwapOutTimeTotal += time.Since(swapStart)
		}

		e.policy.NoteEvict(victimID)
		victim.clearFrame()
		e.frames.free(victimFrame)
		frame = victimFrame
	}

	buf := e.frames.Entry(frame).Buffer()
	entry := e.pages.Entry(p)
	if entry.OnDisk {
		slot, _ := entry.Slot()
		swapStart := time.Now()
		if err := e.store.Read(slot, buf); err != nil {
			return err
		}
		e.stats.SwapsIn++
		e.stats.SwapInTimeTotal += time.Since(swapStart)
	} else {
		for i := range buf {
			buf[i] = 0
		}
	}

	e.frames.occupy(frame, p)
	entry.assignFrame(frame)
	entry.Dirty = kind == Write
	e.policy.NoteAdmit(p, frame)
	return nil
}
