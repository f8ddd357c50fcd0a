package usecase

import "sync"

const lockStripes = 64

// KeyLock serializes updates to the same company id without a process-wide
// lock. Locks are striped: two ids may share a stripe, two updates to the
// same id never run concurrently.
type KeyLock struct {
	stripes [lockStripes]sync.Mutex
}

// NewKeyLock creates a KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{}
}

// Lock acquires the stripe owning companyID and returns its unlock func.
func (l *KeyLock) Lock(companyID int) func() {
	idx := companyID % lockStripes
	if idx < 0 {
		idx += lockStripes
	}

	l.stripes[idx].Lock()

	return l.stripes[idx].Unlock
}
