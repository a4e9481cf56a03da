package merge

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

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

func newCanvas(t *testing.T, w, h int) (*models.RasterImage, gocv.Mat) {
	t.Helper()
	m, err := safe.NewMatWithTag(h, w, gocv.MatTypeCV8UC4, "canvas")
	require.NoError(t, err)
	r, err := models.NewRasterImage(m, true)
	require.NoError(t, err)
	return r, m.GetMat()
}

// Red shape on top, green shape below, two green bridges reaching up into the
// red one.
func bridgedCanvas(t *testing.T) *models.RasterImage {
	t.Helper()
	canvas, mat := newCanvas(t, 400, 300)
	gocv.Rectangle(&mat, image.Rect(149, 150, 152, 200), green, -1)
	gocv.Rectangle(&mat, image.Rect(249, 150, 252, 200), green, -1)
	gocv.Rectangle(&mat, image.Rect(100, 50, 300, 151), red, -1)
	gocv.Rectangle(&mat, image.Rect(80, 200, 320, 260), green, -1)
	return canvas
}

func TestMergeBridgedShapes(t *testing.T) {
	canvas := bridgedCanvas(t)
	defer canvas.Close()

	res, err := NewMerger(DefaultOptions(), nil).Merge(canvas, nil)
	require.NoError(t, err)
	defer res.Close()

	require.Len(t, res.Intersections, 2)
	assert.InDelta(t, 150, res.Intersections[0].X, 2)
	assert.InDelta(t, 250, res.Intersections[1].X, 2)

	// A + B + the region enclosed by the bridges and the seam.
	expected := 200.0*100 + 240*60 + 100*50
	assert.InEpsilon(t, expected, res.Contour.Area(), 0.03)

	bounds := res.Contour.Bounds()
	assert.Equal(t, 80, bounds.Min.X)
	assert.Equal(t, 50, bounds.Min.Y)
	assert.Equal(t, 320, bounds.Max.X)
	assert.Equal(t, 260, bounds.Max.Y)
}

func TestMergeErasesTracesOutsideProtect(t *testing.T) {
	canvas := bridgedCanvas(t)
	defer canvas.Close()

	protectMat, err := safe.NewMatWithTag(300, 400, gocv.MatTypeCV8UC1, "protect")
	require.NoError(t, err)
	pm := protectMat.GetMat()
	gocv.Rectangle(&pm, image.Rect(180, 80, 220, 120), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	protect := &models.BinaryMask{Mat: protectMat}
	defer protect.Close()

	res, err := NewMerger(DefaultOptions(), nil).Merge(canvas, protect)
	require.NoError(t, err)
	defer res.Close()

	// Inside protect: red kept.
	r, _ := res.Canvas.Mat.GetUCharAt3(100, 200, 2)
	assert.Equal(t, uint8(255), r)

	// Inside the red shape but outside protect: erased.
	a, _ := res.Canvas.Mat.GetUCharAt3(100, 130, 3)
	assert.Equal(t, uint8(0), a)

	// Inside the green shape: erased.
	a, _ = res.Canvas.Mat.GetUCharAt3(230, 200, 3)
	assert.Equal(t, uint8(0), a)

	// On the unified boundary: stroked.
	r, _ = res.Canvas.Mat.GetUCharAt3(259, 200, 2)
	assert.Equal(t, uint8(255), r)
}

func TestMergeWithoutContactFails(t *testing.T) {
	canvas, mat := newCanvas(t, 300, 300)
	defer canvas.Close()
	gocv.Rectangle(&mat, image.Rect(20, 20, 100, 100), red, -1)
	gocv.Rectangle(&mat, image.Rect(150, 150, 250, 250), green, -1)

	_, err := NewMerger(DefaultOptions(), nil).Merge(canvas, nil)
	require.Error(t, err)
	assert.True(t, models.IsGeometry(err))
	assert.ErrorIs(t, err, models.ErrCannotMerge)
}

func TestMergeSingleContactFails(t *testing.T) {
	canvas, mat := newCanvas(t, 300, 300)
	defer canvas.Close()
	gocv.Rectangle(&mat, image.Rect(20, 20, 100, 100), red, -1)
	gocv.Rectangle(&mat, image.Rect(60, 100, 63, 150), green, -1)
	gocv.Rectangle(&mat, image.Rect(20, 150, 200, 200), green, -1)

	_, err := NewMerger(DefaultOptions(), nil).Merge(canvas, nil)
	assert.ErrorIs(t, err, models.ErrCannotMerge)
}

func TestSignatureRanges(t *testing.T) {
	canvas, mat := newCanvas(t, 10, 10)
	defer canvas.Close()
	mat.SetUCharAt(0, 0*4+2, 230) // reddish
	mat.SetUCharAt(0, 1*4+1, 230) // greenish
	for c := 0; c < 3; c++ {
		mat.SetUCharAt(0, 2*4+c, 255) // white
	}

	fig, err := Signature(canvas.Mat, FigureRange)
	require.NoError(t, err)
	defer fig.Close()
	ped, err := Signature(canvas.Mat, PedestalRange)
	require.NoError(t, err)
	defer ped.Close()

	v, _ := fig.GetUCharAt(0, 0)
	assert.Equal(t, uint8(255), v)
	v, _ = ped.GetUCharAt(0, 1)
	assert.Equal(t, uint8(255), v)
	v, _ = fig.GetUCharAt(0, 2)
	assert.Equal(t, uint8(0), v)
	v, _ = ped.GetUCharAt(0, 2)
	assert.Equal(t, uint8(0), v)
}
