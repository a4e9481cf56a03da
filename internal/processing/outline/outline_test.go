package outline

import (
	"image"
	"image/color"
	"testing"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"
	"figure-stand/internal/processing/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func fixture(t *testing.T) (*models.RasterImage, *models.BinaryMask) {
	t.Helper()
	m, err := safe.NewMatWithTag(120, 120, gocv.MatTypeCV8UC1, "mask")
	require.NoError(t, err)
	mat := m.GetMat()
	gocv.Circle(&mat, image.Pt(60, 60), 20, color.RGBA{255, 255, 255, 255}, -1)

	img, err := safe.NewMatWithTag(120, 120, gocv.MatTypeCV8UC4, "image")
	require.NoError(t, err)
	raster, err := models.NewRasterImage(img, true)
	require.NoError(t, err)

	return raster, &models.BinaryMask{Mat: m}
}

func TestRingIsBetweenDilations(t *testing.T) {
	img, mask := fixture(t)
	defer img.Close()
	defer mask.Close()

	res, err := NewGenerator(nil).Generate(img, mask, 10, 3)
	require.NoError(t, err)
	defer res.Close()

	outer, err := filters.Dilate(mask.Mat, 13)
	require.NoError(t, err)
	defer outer.Close()
	inner, err := filters.Dilate(mask.Mat, 10)
	require.NoError(t, err)
	defer inner.Close()

	require.False(t, res.Ring.Empty())
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			r, _ := res.Ring.Mat.GetUCharAt(y, x)
			if r == 0 {
				continue
			}
			o, _ := outer.GetUCharAt(y, x)
			i, _ := inner.GetUCharAt(y, x)
			require.Equal(t, uint8(255), o, "ring pixel (%d,%d) outside outer dilation", x, y)
			require.Equal(t, uint8(0), i, "ring pixel (%d,%d) inside inner dilation", x, y)
		}
	}
}

func TestRingIsPaintedRed(t *testing.T) {
	img, mask := fixture(t)
	defer img.Close()
	defer mask.Close()

	res, err := NewGenerator(nil).Generate(img, mask, 10, 3)
	require.NoError(t, err)
	defer res.Close()

	// Ring crosses the row y=60 around x = 60+20+10+1.
	x := 91
	ring, _ := res.Ring.Mat.GetUCharAt(60, x)
	require.Equal(t, uint8(255), ring)

	b, _ := res.Outlined.Mat.GetUCharAt3(60, x, 0)
	g, _ := res.Outlined.Mat.GetUCharAt3(60, x, 1)
	r, _ := res.Outlined.Mat.GetUCharAt3(60, x, 2)
	a, _ := res.Outlined.Mat.GetUCharAt3(60, x, 3)
	assert.Equal(t, []uint8{0, 0, 255, 255}, []uint8{b, g, r, a})

	untouched, _ := img.Mat.GetUCharAt3(60, x, 2)
	assert.Equal(t, uint8(0), untouched, "input image must not be modified")
}

func TestZeroThicknessGivesEmptyRing(t *testing.T) {
	img, mask := fixture(t)
	defer img.Close()
	defer mask.Close()

	res, err := NewGenerator(nil).Generate(img, mask, 10, 0)
	require.NoError(t, err)
	defer res.Close()

	assert.True(t, res.Ring.Empty())
}

func TestNegativeParamsRejected(t *testing.T) {
	img, mask := fixture(t)
	defer img.Close()
	defer mask.Close()

	_, err := NewGenerator(nil).Generate(img, mask, -1, 3)
	require.Error(t, err)
	assert.True(t, models.IsInput(err))
	assert.ErrorIs(t, err, models.ErrInvalidParams)

	_, err = NewGenerator(nil).Generate(img, mask, 5, -2)
	assert.True(t, models.IsInput(err))
}
