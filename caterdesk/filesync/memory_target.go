package filesync

import (
	"bytes"
	"context"
	"sync"
)

// MemoryTarget is an in-memory Target for tests. Its permission answers and
// failures are set directly on the struct.
type MemoryTarget struct {
	mu sync.Mutex

	Name string

	// Permission is returned by QueryPermission
	Permission PermissionState
	// RequestAnswer is what the simulated prompt returns
	RequestAnswer PermissionState
	// RequestErr is returned by RequestPermission, e.g. ErrCancelled
	RequestErr error

	// OpenErr, WriteErr and CloseErr inject failures into a write session
	OpenErr  error
	WriteErr error
	CloseErr error

	content []byte

	QueryCalls   int
	RequestCalls int
	Opened       int
	Committed    int
	Aborted      int
}

// NewMemoryTarget returns a target with write permission granted
func NewMemoryTarget(name string) *MemoryTarget {
	return &MemoryTarget{
		Name:          name,
		Permission:    PermissionGranted,
		RequestAnswer: PermissionGranted,
	}
}

// DisplayName implements Target.DisplayName
func (m *MemoryTarget) DisplayName() string {
	return m.Name
}

// QueryPermission implements Target.QueryPermission
func (m *MemoryTarget) QueryPermission(mode Mode) (PermissionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	return m.Permission, nil
}

// RequestPermission implements Target.RequestPermission
func (m *MemoryTarget) RequestPermission(ctx context.Context, mode Mode) (PermissionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCalls++
	if m.RequestErr != nil {
		return PermissionDenied, m.RequestErr
	}
	if m.RequestAnswer == PermissionGranted {
		m.Permission = PermissionGranted
	}
	return m.RequestAnswer, nil
}

// OpenWritable implements Target.OpenWritable
func (m *MemoryTarget) OpenWritable(ctx context.Context) (Writable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.Opened++
	return &memoryWritable{target: m}, nil
}

// Content returns the last committed content
func (m *MemoryTarget) Content() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.content...)
}

// Writes returns how many write sessions were committed
func (m *MemoryTarget) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Committed
}

// SetPermission changes the permission state, e.g. to simulate revocation
func (m *MemoryTarget) SetPermission(state PermissionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Permission = state
}

// SetWriteErr changes the injected write failure
func (m *MemoryTarget) SetWriteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteErr = err
}

// OpenSessions returns sessions that were neither committed nor aborted
func (m *MemoryTarget) OpenSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Opened - m.Committed - m.Aborted
}

type memoryWritable struct {
	target *MemoryTarget
	buf    bytes.Buffer
}

func (w *memoryWritable) Write(p []byte) (int, error) {
	w.target.mu.Lock()
	err := w.target.WriteErr
	w.target.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return w.buf.Write(p)
}

func (w *memoryWritable) Close() error {
	m := w.target
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CloseErr != nil {
		m.Aborted++
		return m.CloseErr
	}
	m.content = append([]byte(nil), w.buf.Bytes()...)
	m.Committed++
	return nil
}

func (w *memoryWritable) Abort() error {
	m := w.target
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Aborted++
	return nil
}
