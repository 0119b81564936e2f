package pager

import "time"

// Statistics accumulates the counters and timings a PagingEngine run
// produces. Field names follow the counter style common to a storage
// buffer pool (hits/misses/evictions), extended with swap-in/swap-out
// counts and per-category timing breakdowns.
type Statistics struct {
	PolicyName string

	Accesses int64
	Hits     int64
	Faults   int64

	SwapsOut int64
	SwapsIn  int64

	FaultTimeTotal   time.Duration
	SwapOutTimeTotal time.Duration
	SwapInTimeTotal  time.Duration
}

// HitRatio returns Hits/Accesses, or 0 if there have been no accesses.
func (s *Statistics) HitRatio() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses)
}

// FaultRatio returns Faults/Accesses, or 0 if there have been no accesses.
func (s *Statistics) FaultRatio() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Faults) / float64(s.Accesses)
}

func (s *Statistics) reset(policyName string) {
	*s = Statistics{PolicyName: policyName}
}
