package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"figure-stand/internal/opencv/safe"
)

func newMat(t *testing.T, rows, cols int, matType gocv.MatType) *safe.Mat {
	t.Helper()
	m, err := safe.NewMat(rows, cols, matType)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestMatSize(t *testing.T) {
	assert.Equal(t, int64(400), MatSize(newMat(t, 10, 10, gocv.MatTypeCV8UC4)))
	assert.Equal(t, int64(100), MatSize(newMat(t, 10, 10, gocv.MatTypeCV8UC1)))
	assert.Zero(t, MatSize(nil))
}

func TestBudgetReserveAndRelease(t *testing.T) {
	b := NewBudget(1000)
	bgra := newMat(t, 10, 10, gocv.MatTypeCV8UC4)
	mask := newMat(t, 10, 10, gocv.MatTypeCV8UC1)

	require.NoError(t, b.Reserve("loaded", bgra, mask))
	assert.Equal(t, int64(500), b.Held())

	// Replacing a key does not double count.
	require.NoError(t, b.Reserve("loaded", bgra))
	assert.Equal(t, int64(400), b.Held())

	require.NoError(t, b.Reserve("outlined", bgra, mask))

	b.Release("outlined", "missing")
	assert.Equal(t, int64(400), b.Held())

	stats := b.Stats()
	assert.Equal(t, int64(900), stats.Peak)
	assert.Equal(t, int64(1000), stats.Limit)
}

func TestBudgetLimit(t *testing.T) {
	b := NewBudget(600)
	bgra := newMat(t, 10, 10, gocv.MatTypeCV8UC4)

	require.NoError(t, b.Reserve("a", bgra))
	err := b.Reserve("b", bgra)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, int64(400), b.Held())

	assert.Equal(t, DefaultLimit, NewBudget(0).Stats().Limit)
}

func TestBudgetFits(t *testing.T) {
	b := NewBudget(1000)
	bgra := newMat(t, 10, 10, gocv.MatTypeCV8UC4)
	mask := newMat(t, 10, 10, gocv.MatTypeCV8UC1)

	require.NoError(t, b.Reserve("loaded", bgra, mask))
	require.NoError(t, b.Reserve("outlined", bgra))
	assert.Equal(t, int64(900), b.Held())

	// 400 more only fits once "outlined" is gone.
	assert.ErrorIs(t, b.Fits("composited", 400), ErrLimitExceeded)
	assert.NoError(t, b.Fits("composited", 400, "outlined"))
	// A key's own previous entry never counts against it.
	assert.NoError(t, b.Fits("outlined", 500))
	assert.Equal(t, int64(900), b.Held(), "a dry run holds nothing")

	assert.Equal(t, int64(500), Size(bgra, mask, nil))
}
