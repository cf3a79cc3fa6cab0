package storage

import (
	"sync"
)

// OperationType says whether an operation only reads the document or
// rewrites it.
type OperationType int

const (
	// ReadOperation may run concurrently with other reads.
	ReadOperation OperationType = iota

	// WriteOperation is exclusive: no read or write runs alongside it.
	WriteOperation
)

// LockManager serializes access to the in-memory view of the document.
// Every read-modify-write sequence of the document store runs inside a
// single WriteOperation so two goroutines cannot lose each other's upserts.
type LockManager struct {
	mu sync.RWMutex
}

// NewLockManager creates a ready to use lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn while holding the lock matching opType.
//
//	err := lm.Execute(WriteOperation, func() error {
//	    doc.Dishes = append(doc.Dishes, rec)
//	    return save(doc)
//	})
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// ExecuteWithResult is Execute for functions that also produce a value
func ExecuteWithResult[T any](lm *LockManager, opType OperationType, fn func() (T, error)) (T, error) {
	var result T
	err := lm.Execute(opType, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
