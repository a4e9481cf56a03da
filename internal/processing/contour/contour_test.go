package contour

import (
	"errors"
	"image"
	"testing"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func maskWith(t *testing.T, w, h int, rects ...image.Rectangle) *models.BinaryMask {
	t.Helper()
	m, err := safe.NewMatWithTag(h, w, gocv.MatTypeCV8UC1, "mask")
	require.NoError(t, err)
	mat := m.GetMat()
	for _, r := range rects {
		gocv.Rectangle(&mat, r, white, -1)
	}
	return &models.BinaryMask{Mat: m}
}

func TestExtractPicksLargestRegion(t *testing.T) {
	mask := maskWith(t, 200, 200,
		image.Rect(10, 10, 30, 30),
		image.Rect(60, 60, 160, 140),
	)
	defer mask.Close()

	res, err := NewExtractor(DefaultOptions(), nil).Extract(mask)
	require.NoError(t, err)
	defer res.Close()

	bounds := res.Contour.Bounds()
	assert.Equal(t, image.Rect(60, 60, 160, 140), bounds)
	assert.InDelta(t, 99*79, res.Contour.Area(), 1)

	v, _ := res.Silhouette.Mat.GetUCharAt(20, 20)
	assert.Equal(t, uint8(0), v, "smaller region must not be in the silhouette")
	v, _ = res.Silhouette.Mat.GetUCharAt(100, 100)
	assert.Equal(t, uint8(255), v)
}

func TestExtractEmptyMask(t *testing.T) {
	mask := maskWith(t, 50, 50)
	defer mask.Close()

	_, err := NewExtractor(DefaultOptions(), nil).Extract(mask)
	require.Error(t, err)
	assert.True(t, models.IsGeometry(err))
	assert.True(t, errors.Is(err, models.ErrNoContour))
}

func TestExtractTieKeepsFirst(t *testing.T) {
	mask := maskWith(t, 100, 100,
		image.Rect(10, 10, 30, 30),
		image.Rect(60, 60, 80, 80),
	)
	defer mask.Close()

	contours := gocv.FindContours(mask.Mat.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	first := contours.At(0).ToPoints()

	res, err := NewExtractor(DefaultOptions(), nil).Extract(mask)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, models.Contour(first).Bounds(), res.Contour.Bounds())
}

func TestDensify(t *testing.T) {
	square := models.Contour{{0, 0}, {8, 0}, {8, 8}, {0, 8}}
	dense := Densify(square, 8)

	assert.Len(t, dense, 32)
	assert.Equal(t, image.Pt(1, 0), dense[1])
	assert.Equal(t, image.Pt(8, 1), dense[9])
	assert.Equal(t, image.Pt(0, 1), dense[31])
}

func TestRefineKeepsShape(t *testing.T) {
	square := models.Contour{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	refined := Refine(square, 8, 0.0008)

	assert.GreaterOrEqual(t, len(refined), 4)
	assert.InDelta(t, square.Area(), refined.Area(), 1)
	assert.Equal(t, square.Bounds(), refined.Bounds())
}
