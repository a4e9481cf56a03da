package footprint

import (
	"image"
	"image/color"
	"testing"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func circleMask(t *testing.T, size int, center image.Point, radius int) (*models.BinaryMask, models.Contour) {
	t.Helper()
	m, err := safe.NewMatWithTag(size, size, gocv.MatTypeCV8UC1, "mask")
	require.NoError(t, err)
	mat := m.GetMat()
	gocv.Circle(&mat, center, radius, color.RGBA{255, 255, 255, 255}, -1)

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	require.Equal(t, 1, contours.Size())

	return &models.BinaryMask{Mat: m}, models.Contour(contours.At(0).ToPoints())
}

func TestLocateCircle(t *testing.T) {
	mask, contour := circleMask(t, 300, image.Pt(140, 120), 50)
	defer mask.Close()

	fp, err := NewLocator(DefaultMargin, nil).Locate(mask, contour)
	require.NoError(t, err)

	assert.InDelta(t, 140, fp.CenterX, 1)
	assert.InDelta(t, 120, fp.CenterY, 1)
	assert.InDelta(t, 170, fp.LowestY, 1)
	assert.Less(t, fp.LeftX, 140)
	assert.Greater(t, fp.RightX, 140)
	// The band near the bottom of a circle is much narrower than its diameter.
	assert.Less(t, fp.RightX-fp.LeftX, 100)
}

func TestLocateSquare(t *testing.T) {
	m, err := safe.NewMatWithTag(400, 400, gocv.MatTypeCV8UC1, "mask")
	require.NoError(t, err)
	defer m.Close()
	mat := m.GetMat()
	gocv.Rectangle(&mat, image.Rect(150, 150, 250, 250), color.RGBA{255, 255, 255, 255}, -1)
	contour := models.Contour{{150, 150}, {150, 249}, {249, 249}, {249, 150}}

	fp, err := NewLocator(DefaultMargin, nil).Locate(&models.BinaryMask{Mat: m}, contour)
	require.NoError(t, err)

	assert.InDelta(t, 200, fp.CenterX, 2)
	assert.InDelta(t, 200, fp.CenterY, 2)
	assert.InDelta(t, 250, fp.LowestY, 2)
	assert.Equal(t, 150, fp.LeftX)
	assert.Equal(t, 249, fp.RightX)
}

func TestLocateEmptyMask(t *testing.T) {
	m, err := safe.NewMatWithTag(50, 50, gocv.MatTypeCV8UC1, "mask")
	require.NoError(t, err)
	defer m.Close()

	_, err = NewLocator(DefaultMargin, nil).Locate(&models.BinaryMask{Mat: m}, nil)
	require.Error(t, err)
	assert.True(t, models.IsGeometry(err))
	assert.ErrorIs(t, err, models.ErrEmptyFootprint)
}
