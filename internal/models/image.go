package models

import (
	"fmt"

	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// RasterImage is an 8-bit BGRA image produced by one pipeline stage. Stages
// never mutate a RasterImage they receive; they return a new one.
type RasterImage struct {
	Mat *safe.Mat

	// HasAlpha is true when the decoded source carried real transparency.
	// Fully opaque sources are treated as color-only by the binarizer.
	HasAlpha bool

	// Format is the decoder format name ("png", "jpeg", ...) or empty for
	// images synthesized in memory.
	Format string
}

// NewRasterImage wraps mat, which must be BGRA.
func NewRasterImage(mat *safe.Mat, hasAlpha bool) (*RasterImage, error) {
	if err := safe.ValidateBGRA(mat, "NewRasterImage"); err != nil {
		return nil, err
	}
	return &RasterImage{Mat: mat, HasAlpha: hasAlpha}, nil
}

func (r *RasterImage) Width() int {
	if r == nil {
		return 0
	}
	return r.Mat.Cols()
}

func (r *RasterImage) Height() int {
	if r == nil {
		return 0
	}
	return r.Mat.Rows()
}

// Clone deep-copies the pixel buffer.
func (r *RasterImage) Clone() (*RasterImage, error) {
	mat, err := r.Mat.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone raster: %w", err)
	}
	return &RasterImage{Mat: mat, HasAlpha: r.HasAlpha, Format: r.Format}, nil
}

func (r *RasterImage) Close() {
	if r != nil {
		r.Mat.Close()
	}
}

// BinaryMask is a single-channel mask, 255 for foreground and 0 for background.
type BinaryMask struct {
	Mat *safe.Mat
}

// NewBinaryMask wraps mat, which must be 8-bit single channel.
func NewBinaryMask(mat *safe.Mat) (*BinaryMask, error) {
	if err := safe.ValidateMask(mat, "NewBinaryMask"); err != nil {
		return nil, err
	}
	return &BinaryMask{Mat: mat}, nil
}

func (m *BinaryMask) Width() int  { return m.Mat.Cols() }
func (m *BinaryMask) Height() int { return m.Mat.Rows() }

// Count returns the number of foreground pixels.
func (m *BinaryMask) Count() int {
	return gocv.CountNonZero(m.Mat.GetMat())
}

// Coverage returns the foreground fraction in [0,1].
func (m *BinaryMask) Coverage() float64 {
	total := m.Width() * m.Height()
	if total == 0 {
		return 0
	}
	return float64(m.Count()) / float64(total)
}

func (m *BinaryMask) Empty() bool {
	return m.Count() == 0
}

func (m *BinaryMask) Clone() (*BinaryMask, error) {
	mat, err := m.Mat.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone mask: %w", err)
	}
	return &BinaryMask{Mat: mat}, nil
}

func (m *BinaryMask) Close() {
	if m != nil {
		m.Mat.Close()
	}
}
