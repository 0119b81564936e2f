package pager

import (
	"errors"
	"path/filepath"
	"testing"
)

// failNthCodec wraps the identity transform but fails the nth encode or
// decode call, then behaves normally afterward — a stand-in for a
// transient backing-store failure (a bad sector, a short write) used to
// exercise handleFault's partial-fault retry path.
type failNthCodec struct {
	failEncodeAt int // 0 means never fail encode
	failDecodeAt int // 0 means never fail decode
	encodeCalls  int
	decodeCalls  int
}

func (c *failNthCodec) encode(plain []byte) ([]byte, error) {
	c.encodeCalls++
	if c.failEncodeAt != 0 && c.encodeCalls == c.failEncodeAt {
		return nil, errors.New("injected encode failure")
	}
	return plain, nil
}

func (c *failNthCodec) decode(onDisk []byte, out []byte) error {
	c.decodeCalls++
	if c.failDecodeAt != 0 && c.decodeCalls == c.failDecodeAt {
		return errors.New("injected decode failure")
	}
	copy(out, onDisk)
	return nil
}

func (c *failNthCodec) overhead() int { return 0 }

func newTestEngine(t *testing.T, policy PolicyKind) *PagingEngine {
	t.Helper()
	e, err := NewEngine(Config{
		TotalFrames:  3,
		VirtualPages: 8,
		PageSize:     64,
		Policy:       policy,
		BackingPath:  filepath.Join(t.TempDir(), "swap.bin"),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func access(t *testing.T, e *PagingEngine, pages ...int) {
	t.Helper()
	for _, p := range pages {
		if err := e.Access(PageID(p), Read); err != nil {
			t.Fatalf("Access(%d): %v", p, err)
		}
	}
}

func residentSet(e *PagingEngine) map[PageID]bool {
	out := make(map[PageID]bool)
	for _, p := range e.PageTable().ResidentPages() {
		out[p] = true
	}
	return out
}

func assertResident(t *testing.T, e *PagingEngine, want ...int) {
	t.Helper()
	got := residentSet(e)
	if len(got) != len(want) {
		t.Fatalf("resident set size = %d, want %d (got %v)", len(got), len(want), got)
	}
	for _, p := range want {
		if !got[PageID(p)] {
			t.Fatalf("expected page %d resident, resident set = %v", p, got)
		}
	}
}

// Reference stream 1,2,3,4,1,2,5,1,2,3,4,5, the classic Bélády-anomaly
// string, under 3 frames faults 9 times and ends with resident set
// {3,4,5} (10 faults is the 4-frame case the anomaly contrasts
// against, not this one).
func TestFIFOScenario(t *testing.T) {
	e := newTestEngine(t, PolicyFIFO)
	access(t, e, 1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5)

	stats := e.Stats()
	if stats.Faults != 9 {
		t.Fatalf("faults = %d, want 9", stats.Faults)
	}
	assertResident(t, e, 3, 4, 5)
}

// Same stream under LRU: faults = 10, resident = {3,4,5}.
func TestLRUScenario(t *testing.T) {
	e := newTestEngine(t, PolicyLRU)
	access(t, e, 1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5)

	stats := e.Stats()
	if stats.Faults != 10 {
		t.Fatalf("faults = %d, want 10", stats.Faults)
	}
	assertResident(t, e, 3, 4, 5)
}

// Reference stream 1,2,3,1,4,1,5 under the second-chance algorithm
// ends with resident set {1,4,5}. Hand-simulating the literal
// choose_victim rule (inspect FrameTable[h].occupant; if ref_bit==0,
// evict; else clear and advance) against this stream gives 6 faults
// and 3 swap-outs: the earlier references to pages 1, 2, and 3 all
// leave their reference bits set by the time the first eviction sweep
// runs, so that sweep clears all three and evicts none of them until
// it wraps back to page 1.
func TestClockScenario(t *testing.T) {
	e := newTestEngine(t, PolicyClock)
	access(t, e, 1, 2, 3, 1, 4, 1, 5)

	stats := e.Stats()
	if stats.Faults != 6 {
		t.Fatalf("faults = %d, want 6", stats.Faults)
	}
	if stats.SwapsOut != 3 {
		t.Fatalf("swaps_out = %d, want 3", stats.SwapsOut)
	}
	assertResident(t, e, 1, 4, 5)
}

// Cold-start fault law: the first total_frames distinct references
// always fault and never evict (swaps_out stays 0).
func TestColdStartNeverEvicts(t *testing.T) {
	for _, kind := range []PolicyKind{PolicyFIFO, PolicyLRU, PolicyClock} {
		e := newTestEngine(t, kind)
		access(t, e, 0, 1, 2)
		stats := e.Stats()
		if stats.Faults != 3 {
			t.Fatalf("%s: faults = %d, want 3", kind, stats.Faults)
		}
		if stats.SwapsOut != 0 {
			t.Fatalf("%s: swaps_out = %d, want 0", kind, stats.SwapsOut)
		}
	}
}

// Loop-free streams: LRU and FIFO fault counts are equal, both equal
// to the number of distinct pages touched.
func TestLoopFreeFaultParity(t *testing.T) {
	stream := []int{0, 1, 2, 3, 4, 5}

	fifo := newTestEngine(t, PolicyFIFO)
	access(t, fifo, stream...)

	lru := newTestEngine(t, PolicyLRU)
	access(t, lru, stream...)

	if fifo.Stats().Faults != lru.Stats().Faults {
		t.Fatalf("fifo faults = %d, lru faults = %d, want equal", fifo.Stats().Faults, lru.Stats().Faults)
	}
	if fifo.Stats().Faults != int64(len(stream)) {
		t.Fatalf("faults = %d, want %d (one per distinct page)", fifo.Stats().Faults, len(stream))
	}
}

// Write-evict-reread: write(7), force eviction, then read(7) again.
// The second access is a fault and a swap_in; the eviction that forced
// it out counts a swap_out because it was dirty.
func TestWriteEvictReread(t *testing.T) {
	e := newTestEngine(t, PolicyFIFO)

	if err := e.Access(7, Write); err != nil {
		t.Fatalf("write 7: %v", err)
	}
	// Fill the remaining two frames then one more distinct page to
	// force page 7 (the oldest FIFO admission) out.
	access(t, e, 0, 1, 2)

	before := e.Stats()
	if before.SwapsOut != 1 {
		t.Fatalf("swaps_out after forcing eviction = %d, want 1", before.SwapsOut)
	}

	if err := e.Access(7, Read); err != nil {
		t.Fatalf("reread 7: %v", err)
	}
	after := e.Stats()
	if after.Faults != before.Faults+1 {
		t.Fatalf("faults did not increase by 1 on reread")
	}
	if after.SwapsIn != 1 {
		t.Fatalf("swaps_in = %d, want 1", after.SwapsIn)
	}
}

// Round-trip invariant: a byte pattern written into a page's frame
// survives eviction and reload.
func TestRoundTripBytePattern(t *testing.T) {
	e := newTestEngine(t, PolicyFIFO)

	if err := e.Access(2, Write); err != nil {
		t.Fatalf("write 2: %v", err)
	}
	frame, _ := e.PageTable().Entry(2).Frame()
	buf := e.FrameTable().Entry(frame).Buffer()
	for i := range buf {
		buf[i] = byte(i % 256)
	}
	pattern := append([]byte(nil), buf...)

	// Evict page 2 by touching total_frames further distinct pages.
	access(t, e, 3, 4, 5)
	assertResidentExcludes(t, e, 2)

	if err := e.Access(2, Read); err != nil {
		t.Fatalf("reread 2: %v", err)
	}
	frame, _ = e.PageTable().Entry(2).Frame()
	got := e.FrameTable().Entry(frame).Buffer()
	for i := range pattern {
		if got[i] != pattern[i] {
			t.Fatalf("byte %d = %d, want %d (round-trip mismatch)", i, got[i], pattern[i])
		}
	}
}

func assertResidentExcludes(t *testing.T, e *PagingEngine, p int) {
	t.Helper()
	if residentSet(e)[PageID(p)] {
		t.Fatalf("expected page %d to have been evicted", p)
	}
}

// Invariant sweep: 1000 references over a small address space, under
// each policy, checking hits+faults==accesses and the resident-set
// size bound hold throughout.
func TestInvariantSweep(t *testing.T) {
	// Deterministic pseudo-random sequence (no math/rand seeding
	// dependency): an LCG over a small modulus.
	const n = 1000
	seq := make([]int, n)
	x := uint32(12345)
	for i := range seq {
		x = x*1103515245 + 12345
		seq[i] = int((x >> 16) % 8)
	}

	for _, kind := range []PolicyKind{PolicyFIFO, PolicyLRU, PolicyClock} {
		e := newTestEngine(t, kind)
		for _, p := range seq {
			if err := e.Access(PageID(p), Read); err != nil {
				t.Fatalf("%s: access(%d): %v", kind, p, err)
			}
			if len(e.PageTable().ResidentPages()) > 3 {
				t.Fatalf("%s: resident set exceeded total_frames", kind)
			}
			s := e.Stats()
			if s.Hits+s.Faults != s.Accesses {
				t.Fatalf("%s: hits+faults != accesses", kind)
			}
		}
		s := e.Stats()
		if s.SwapsOut > s.Faults || s.SwapsIn > s.Faults {
			t.Fatalf("%s: swaps exceeded faults", kind)
		}
	}
}

func TestBoundsErrorOnOutOfRangePage(t *testing.T) {
	e := newTestEngine(t, PolicyFIFO)
	err := e.Access(100, Read)
	if err == nil {
		t.Fatal("expected BoundsError for out-of-range page")
	}
	if _, ok := err.(*BoundsError); !ok {
		t.Fatalf("got %T, want *BoundsError", err)
	}
}

// A failed write-back during eviction must leave the victim exactly as
// it was: still resident, still not marked OnDisk, so a retry of the
// same access recomputes the same write-back decision instead of
// silently treating the (never persisted) page as already swapped out.
func TestFailedSwapOutLeavesVictimResident(t *testing.T) {
	e, err := NewEngine(Config{
		TotalFrames:  1,
		VirtualPages: 2,
		PageSize:     64,
		Policy:       PolicyFIFO,
		BackingPath:  filepath.Join(t.TempDir(), "swap.bin"),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { e.Close() })

	if err := e.Access(0, Write); err != nil {
		t.Fatalf("admit page 0: %v", err)
	}

	codec := &failNthCodec{failEncodeAt: 1}
	e.SetCodec(codec)

	if err := e.Access(1, Read); err == nil {
		t.Fatal("expected injected encode failure to surface as an error")
	} else if _, ok := err.(*IoError); !ok {
		t.Fatalf("got %T, want *IoError", err)
	}

	victim := e.PageTable().Entry(0)
	if !victim.Valid() {
		t.Fatal("victim page 0 should still be resident after a failed write-back")
	}
	if victim.OnDisk {
		t.Fatal("victim page 0 must not be marked OnDisk when its write-back failed")
	}
	if e.Stats().SwapsOut != 0 {
		t.Fatalf("swaps_out = %d, want 0 (failed write must not be counted)", e.Stats().SwapsOut)
	}

	// Retry with the codec healthy: the engine must attempt the
	// write-back again rather than skipping it because a slot was
	// already reserved on the failed attempt.
	codec.failEncodeAt = 0
	if err := e.Access(1, Read); err != nil {
		t.Fatalf("retried access(1): %v", err)
	}
	if !victim.OnDisk {
		t.Fatal("victim page 0 should be OnDisk after the retried write-back succeeds")
	}
	if victim.Valid() {
		t.Fatal("victim page 0 should no longer be resident after the retry evicts it")
	}
	if e.Stats().SwapsOut != 1 {
		t.Fatalf("swaps_out = %d, want 1 after the successful retry", e.Stats().SwapsOut)
	}
	assertResident(t, e, 1)
}

// A failed swap-in (read-back from the backing store) must leave the
// faulting page un-admitted rather than partially installed, so a retry
// attempts the read again instead of serving zeroed or stale content.
func TestFailedSwapInLeavesPageUnadmitted(t *testing.T) {
	e, err := NewEngine(Config{
		TotalFrames:  1,
		VirtualPages: 2,
		PageSize:     64,
		Policy:       PolicyFIFO,
		BackingPath:  filepath.Join(t.TempDir(), "swap.bin"),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { e.Close() })

	// Admit page 0, dirty it, then force it out so it has real,
	// on-disk content (OnDisk=true) to read back later.
	if err := e.Access(0, Write); err != nil {
		t.Fatalf("admit page 0: %v", err)
	}
	if err := e.Access(1, Read); err != nil {
		t.Fatalf("evict page 0 by admitting page 1: %v", err)
	}
	if !e.PageTable().Entry(0).OnDisk {
		t.Fatal("page 0 should have been swapped out with real content")
	}

	codec := &failNthCodec{failDecodeAt: 1}
	e.SetCodec(codec)

	// Faulting page 0 back in evicts page 1 (clean, first-ever
	// eviction, write-back succeeds) then tries to read page 0's
	// content back, which fails.
	if err := e.Access(0, Read); err == nil {
		t.Fatal("expected injected decode failure to surface as an error")
	} else if _, ok := err.(*IoError); !ok {
		t.Fatalf("got %T, want *IoError", err)
	}

	if e.PageTable().Entry(0).Valid() {
		t.Fatal("page 0 must not be admitted when its swap-in failed")
	}
	if e.Stats().SwapsIn != 0 {
		t.Fatalf("swaps_in = %d, want 0 (failed read must not be counted)", e.Stats().SwapsIn)
	}

	// Retry with the codec healthy: the now-free frame lets the
	// engine read page 0 back in without needing another eviction.
	codec.failDecodeAt = 0
	if err := e.Access(0, Read); err != nil {
		t.Fatalf("retried access(0): %v", err)
	}
	if !e.PageTable().Entry(0).Valid() {
		t.Fatal("page 0 should be resident after the retried swap-in succeeds")
	}
	if e.Stats().SwapsIn != 1 {
		t.Fatalf("swaps_in = %d, want 1 after the successful retry", e.Stats().SwapsIn)
	}
}

func TestConfigErrorOnCeilingViolation(t *testing.T) {
	_, err := NewEngine(Config{
		TotalFrames:  3,
		VirtualPages: 2000,
		PageSize:     64,
		Policy:       PolicyFIFO,
		BackingPath:  filepath.Join(t.TempDir(), "swap.bin"),
	})
	if err == nil {
		t.Fatal("expected ConfigError for virtual_pages over the ceiling")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("got %T, want *ConfigError", err)
	}
}
