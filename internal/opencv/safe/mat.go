package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Mat owns a gocv.Mat and guards it against use after Close. Every artifact the
// pipeline hands between stages is a *Mat so a stage can validate its input
// before touching OpenCV.
type Mat struct {
	mat     gocv.Mat
	isValid int32
	mu      sync.RWMutex
	id      uint64
	tag     string
}

var nextMatID uint64

func NewMat(rows, cols int, matType gocv.MatType) (*Mat, error) {
	return NewMatWithTag(rows, cols, matType, "")
}

// NewMatWithTag allocates a zero-filled Mat. The tag shows up in error messages.
func NewMatWithTag(rows, cols int, matType gocv.MatType, tag string) (*Mat, error) {
	if err := ValidateDimensions(cols, rows, "NewMat"); err != nil {
		return nil, err
	}

	mat := gocv.Zeros(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create Mat with size %dx%d", cols, rows)
	}

	return wrap(mat, tag), nil
}

// NewMatFromMat clones srcMat; the caller keeps ownership of srcMat.
func NewMatFromMat(srcMat gocv.Mat, tag string) (*Mat, error) {
	if srcMat.Empty() {
		return nil, fmt.Errorf("source Mat is empty")
	}

	if srcMat.Rows() <= 0 || srcMat.Cols() <= 0 {
		return nil, fmt.Errorf("source Mat has invalid dimensions: %dx%d", srcMat.Cols(), srcMat.Rows())
	}

	clonedMat := srcMat.Clone()
	if clonedMat.Empty() {
		clonedMat.Close()
		return nil, fmt.Errorf("failed to clone Mat")
	}

	return wrap(clonedMat, tag), nil
}

// Take wraps m without copying. Ownership moves to the returned Mat.
func Take(m gocv.Mat, tag string) (*Mat, error) {
	if m.Empty() {
		m.Close()
		return nil, fmt.Errorf("cannot take empty Mat (%s)", tag)
	}
	return wrap(m, tag), nil
}

func wrap(m gocv.Mat, tag string) *Mat {
	sm := &Mat{
		mat:     m,
		isValid: 1,
		id:      atomic.AddUint64(&nextMatID, 1),
		tag:     tag,
	}
	runtime.SetFinalizer(sm, (*Mat).finalize)
	return sm
}

func (sm *Mat) IsValid() bool {
	return sm != nil && atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	if !sm.IsValid() {
		return true
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Channels()
}

func (sm *Mat) Type() gocv.MatType {
	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Type()
}

func (sm *Mat) Tag() string {
	return sm.tag
}

func (sm *Mat) Clone() (*Mat, error) {
	if !sm.IsValid() {
		return nil, fmt.Errorf("cannot clone invalid Mat")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.mat.Empty() {
		return nil, fmt.Errorf("cannot clone empty Mat")
	}

	return NewMatFromMat(sm.mat, sm.tag+"_clone")
}

// Bytes returns a copy of the raw pixel buffer in row-major order.
func (sm *Mat) Bytes() ([]byte, error) {
	if !sm.IsValid() {
		return nil, fmt.Errorf("Mat is invalid")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.ToBytes(), nil
}

func (sm *Mat) GetUCharAt(row, col int) (uint8, error) {
	if !sm.IsValid() {
		return 0, fmt.Errorf("Mat is invalid")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if err := ValidateCoordinates(row, col, sm.mat.Rows(), sm.mat.Cols(), "GetUCharAt"); err != nil {
		return 0, err
	}

	return sm.mat.GetUCharAt(row, col), nil
}

func (sm *Mat) GetUCharAt3(row, col, channel int) (uint8, error) {
	if !sm.IsValid() {
		return 0, fmt.Errorf("Mat is invalid")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if err := ValidateCoordinates(row, col, sm.mat.Rows(), sm.mat.Cols(), "GetUCharAt3"); err != nil {
		return 0, err
	}
	if err := ValidateChannel(channel, sm.mat.Channels(), "GetUCharAt3"); err != nil {
		return 0, err
	}

	// Interleaved channels: the byte index within the row is col*channels+channel.
	return sm.mat.GetUCharAt(row, col*sm.mat.Channels()+channel), nil
}

// GetMat exposes the underlying gocv.Mat for read-only OpenCV calls. The
// returned value shares memory with sm and must not be closed by the caller.
func (sm *Mat) GetMat() gocv.Mat {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat
}

func (sm *Mat) ID() uint64 {
	return sm.id
}

func (sm *Mat) Close() {
	if sm == nil {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		if !sm.mat.Empty() {
			sm.mat.Close()
		}
		runtime.SetFinalizer(sm, nil)
	}
}

// finalize is called by Go's garbage collector as last resort cleanup
func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}
