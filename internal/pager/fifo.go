package pager

import "container/list"

// fifoPolicy evicts the resident page that has been in a frame longest,
// regardless of later accesses. Admission order is tracked with
// container/list, the same structure an LRU cache uses for its recency
// list — this queue just never reorders on access.
type fifoPolicy struct {
	queue *list.List
	node  map[PageID]*list.Element
}

func newFIFOPolicy(totalFrames int) *fifoPolicy {
	return &fifoPolicy{
		queue: list.New(),
		node:  make(map[PageID]*list.Element, totalFrames),
	}
}

func (f *fifoPolicy) NoteAdmit(p PageID, _ FrameID) {
	if _, ok := f.node[p]; ok {
		return
	}
	f.node[p] = f.queue.PushBack(p)
}

func (f *fifoPolicy) NoteAccess(PageID) {
	// FIFO is blind to access recency by definition.
}

func (f *fifoPolicy) NoteEvict(p PageID) {
	if e, ok := f.node[p]; ok {
		f.queue.Remove(e)
		delete(f.node, p)
	}
}

func (f *fifoPolicy) ChooseVictim(resident []PageID) (PageID, error) {
	e := f.queue.Front()
	if e == nil {
		return 0, &LogicError{Reason: "fifo: no admitted page to evict"}
	}
	return e.Value.(PageID), nil
}

func (f *fifoPolicy) Name() string { return PolicyFIFO.String() }
