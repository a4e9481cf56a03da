package memory

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"figure-stand/internal/opencv/safe"
)

// DefaultLimit caps the bytes held by one coordinator's artifacts.
const DefaultLimit int64 = 1 << 30

var ErrLimitExceeded = errors.New("memory limit exceeded")

// Budget accounts for the Mats a pipeline keeps alive between steps. Each
// step registers its artifacts under a key and drops them when they are
// discarded. It does not own the Mats.
type Budget struct {
	mu    sync.RWMutex
	limit int64
	held  map[string]int64
	peak  int64
}

type Stats struct {
	Held  int64
	Peak  int64
	Limit int64
}

func NewBudget(limit int64) *Budget {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Budget{limit: limit, held: make(map[string]int64)}
}

// Fits checks that size bytes under key would fit once the releasing keys and
// any previous entry under key are dropped. Nothing changes.
func (b *Budget) Fits(key string, size int64, releasing ...string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fitsLocked(key, size, releasing)
}

// Reserve checks that mats fit beside everything already held, replacing any
// previous entry under key. On failure nothing changes.
func (b *Budget) Reserve(key string, mats ...*safe.Mat) error {
	size := Size(mats...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.fitsLocked(key, size, nil); err != nil {
		return err
	}

	b.held[key] = size
	total := b.totalLocked()
	if total > b.peak {
		b.peak = total
	}
	return nil
}

func (b *Budget) Release(keys ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.held, k)
	}
}

func (b *Budget) Held() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalLocked()
}

func (b *Budget) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{Held: b.totalLocked(), Peak: b.peak, Limit: b.limit}
}

func (b *Budget) fitsLocked(key string, size int64, releasing []string) error {
	kept := b.totalLocked() - b.held[key]
	for _, k := range releasing {
		if k != key {
			kept -= b.held[k]
		}
	}
	if kept+size > b.limit {
		return fmt.Errorf("%w: %s needs %d bytes, %d of %d in use",
			ErrLimitExceeded, key, size, kept, b.limit)
	}
	return nil
}

func (b *Budget) totalLocked() int64 {
	var total int64
	for _, v := range b.held {
		total += v
	}
	return total
}

// Size sums MatSize over mats.
func Size(mats ...*safe.Mat) int64 {
	var size int64
	for _, m := range mats {
		size += MatSize(m)
	}
	return size
}

// MatSize is the pixel buffer size of m in bytes. Invalid Mats count as zero.
func MatSize(m *safe.Mat) int64 {
	if m == nil || !m.IsValid() {
		return 0
	}
	return int64(m.Rows()) * int64(m.Cols()) * int64(elemSize(m.Type()))
}

func elemSize(matType gocv.MatType) int {
	switch matType {
	case gocv.MatTypeCV8UC1:
		return 1
	case gocv.MatTypeCV8UC3:
		return 3
	case gocv.MatTypeCV8UC4:
		return 4
	case gocv.MatTypeCV16UC1:
		return 2
	case gocv.MatTypeCV32FC1:
		return 4
	case gocv.MatTypeCV32FC4:
		return 16
	default:
		return 1
	}
}
