package pedestal

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func blankCanvas(t *testing.T, w, h int) *models.RasterImage {
	t.Helper()
	m, err := safe.NewMatWithTag(h, w, gocv.MatTypeCV8UC4, "canvas")
	require.NoError(t, err)
	mat := m.GetMat()
	gocv.Rectangle(&mat, image.Rect(40, 20, 60, 80), color.RGBA{R: 50, G: 60, B: 70, A: 255}, -1)
	r, err := models.NewRasterImage(m, true)
	require.NoError(t, err)
	return r
}

func testSpec() models.PedestalSpec {
	return models.PedestalSpec{Name: "test", Width: 60, Height: 20}
}

func placeholderAsset(t *testing.T) *models.PedestalAsset {
	t.Helper()
	img, err := Placeholder(testSpec())
	require.NoError(t, err)
	return &models.PedestalAsset{Spec: testSpec(), Image: img, Placeholder: true}
}

func TestPlaceholderIsDeterministic(t *testing.T) {
	a, err := Placeholder(testSpec())
	require.NoError(t, err)
	defer a.Close()
	b, err := Placeholder(testSpec())
	require.NoError(t, err)
	defer b.Close()

	ab, _ := a.Bytes()
	bb, _ := b.Bytes()
	assert.True(t, bytes.Equal(ab, bb))

	alpha, _ := a.GetUCharAt3(10, 30, 3)
	assert.Equal(t, uint8(255), alpha)
	corner, _ := a.GetUCharAt3(0, 0, 3)
	assert.Equal(t, uint8(0), corner, "top corners are outside the trapezoid")

	_, err = Placeholder(models.PedestalSpec{Name: "empty"})
	assert.Error(t, err)
}

func TestCompositeGrowsCanvas(t *testing.T) {
	canvas := blankCanvas(t, 100, 100)
	defer canvas.Close()
	asset := placeholderAsset(t)
	defer asset.Image.Close()

	fp := models.Footprint{CenterX: 50, LowestY: 90}
	placed, err := NewCompositor(nil).Composite(canvas, fp, asset, 5)
	require.NoError(t, err)
	defer placed.Close()

	assert.Equal(t, image.Point{}, placed.Offset)
	assert.Equal(t, image.Pt(20, 95), placed.Origin)
	assert.Equal(t, 100, placed.Canvas.Width())
	assert.Equal(t, 115, placed.Canvas.Height())

	// Original content is preserved.
	b, _ := placed.Canvas.Mat.GetUCharAt3(50, 50, 0)
	assert.Equal(t, uint8(70), b)

	// Pedestal interior replaced the canvas.
	g, _ := placed.Canvas.Mat.GetUCharAt3(105, 50, 1)
	assert.Equal(t, uint8(180), g)

	bounds := placed.Trace.Bounds()
	assert.Equal(t, 95, bounds.Min.Y)
	assert.Equal(t, 115, bounds.Max.Y)

	// Input canvas untouched.
	assert.Equal(t, 100, canvas.Height())
}

func TestCompositeShiftsForNegativePlacement(t *testing.T) {
	canvas := blankCanvas(t, 100, 100)
	defer canvas.Close()
	asset := placeholderAsset(t)
	defer asset.Image.Close()

	fp := models.Footprint{CenterX: 10, LowestY: 90}
	placed, err := NewCompositor(nil).Composite(canvas, fp, asset, 0)
	require.NoError(t, err)
	defer placed.Close()

	assert.Equal(t, image.Pt(20, 0), placed.Offset)
	assert.Equal(t, image.Pt(0, 90), placed.Origin)
	assert.Equal(t, 120, placed.Canvas.Width())
	assert.Equal(t, 110, placed.Canvas.Height())

	b, _ := placed.Canvas.Mat.GetUCharAt3(50, 70, 0)
	assert.Equal(t, uint8(70), b, "content moves right by the offset")
}

func TestCompositeIsIdempotent(t *testing.T) {
	asset := placeholderAsset(t)
	defer asset.Image.Close()
	fp := models.Footprint{CenterX: 50, LowestY: 80}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		canvas := blankCanvas(t, 100, 100)
		placed, err := NewCompositor(nil).Composite(canvas, fp, asset, -5)
		require.NoError(t, err)
		data, err := placed.Canvas.Mat.Bytes()
		require.NoError(t, err)
		outputs = append(outputs, data)
		placed.Close()
		canvas.Close()
	}

	assert.True(t, bytes.Equal(outputs[0], outputs[1]))
}

func TestCatalogUnknownName(t *testing.T) {
	cat := NewCatalog(t.TempDir(), nil, nil)
	defer cat.Close()

	_, err := cat.Get("99mm")
	require.Error(t, err)
	assert.True(t, models.IsInput(err))
	assert.ErrorIs(t, err, models.ErrUnknownPedestal)
	assert.Equal(t, []string{"11mm", "16mm", "20mm"}, cat.Names())
}

func TestCatalogMissingAssetFallsBack(t *testing.T) {
	cat := NewCatalog(t.TempDir(), nil, nil)
	defer cat.Close()

	asset, err := cat.Get("16mm")
	require.Error(t, err)
	assert.True(t, models.IsAsset(err))
	require.NotNil(t, asset)
	assert.True(t, asset.Placeholder)
	assert.Equal(t, 220, asset.Width())
	assert.Equal(t, 80, asset.Height())

	again, _ := cat.Get("16mm")
	assert.Same(t, asset, again, "assets are cached")
}

func TestCatalogLoadsAndResizesAsset(t *testing.T) {
	dir := t.TempDir()
	src := imaging.New(40, 10, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	require.NoError(t, imaging.Save(src, filepath.Join(dir, "base.png")))

	specs := []models.PedestalSpec{{Name: "wide", File: "base.png", Width: 80, Height: 20}}
	cat := NewCatalog(dir, specs, nil)
	defer cat.Close()

	asset, err := cat.Get("wide")
	require.NoError(t, err)
	assert.False(t, asset.Placeholder)
	assert.Equal(t, 80, asset.Width())
	assert.Equal(t, 20, asset.Height())
}

func TestCatalogCorruptAsset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a png"), 0o644))

	specs := []models.PedestalSpec{{Name: "bad", File: "bad.png", Width: 30, Height: 10}}
	cat := NewCatalog(dir, specs, nil)
	defer cat.Close()

	asset, err := cat.Get("bad")
	assert.True(t, models.IsAsset(err))
	require.NotNil(t, asset)
	assert.True(t, asset.Placeholder)
}

func TestDrawMarkerAvoidsTraceColors(t *testing.T) {
	m, err := safe.NewMatWithTag(40, 40, gocv.MatTypeCV8UC4, "marker")
	require.NoError(t, err)
	defer m.Close()

	DrawMarker(m, image.Pt(20, 20))

	b, _ := m.GetUCharAt3(20, 20, 0)
	g, _ := m.GetUCharAt3(20, 20, 1)
	r, _ := m.GetUCharAt3(20, 20, 2)
	assert.Equal(t, []uint8{0, 255, 255}, []uint8{b, g, r})
}
