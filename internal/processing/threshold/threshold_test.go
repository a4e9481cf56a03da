package threshold

import (
	"image"
	"image/color"
	"testing"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rasterFrom(t *testing.T, img image.Image, hasAlpha bool) *models.RasterImage {
	t.Helper()
	mat, err := conversion.ImageToBGRA(img)
	require.NoError(t, err)
	r, err := models.NewRasterImage(mat, hasAlpha)
	require.NoError(t, err)
	return r
}

func fill(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func TestBinarizeAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	fill(img, image.Rect(30, 30, 70, 70), color.NRGBA{10, 20, 30, 255})
	fill(img, image.Rect(0, 0, 10, 10), color.NRGBA{10, 20, 30, 120}) // below alpha threshold

	raster := rasterFrom(t, img, true)
	defer raster.Close()

	mask, err := NewBinarizer(DefaultOptions(), nil).Binarize(raster)
	require.NoError(t, err)
	defer mask.Close()

	v, _ := mask.Mat.GetUCharAt(50, 50)
	assert.Equal(t, uint8(255), v)
	v, _ = mask.Mat.GetUCharAt(5, 5)
	assert.Equal(t, uint8(0), v)
	assert.InDelta(t, 1600, mask.Count(), 40)
}

func TestBinarizeOtsuPolarity(t *testing.T) {
	tests := []struct {
		name       string
		background color.NRGBA
		figure     color.NRGBA
	}{
		{"dark figure on white", color.NRGBA{255, 255, 255, 255}, color.NRGBA{20, 20, 20, 255}},
		{"light figure on black", color.NRGBA{0, 0, 0, 255}, color.NRGBA{240, 240, 240, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 80, 80))
			fill(img, img.Bounds(), tt.background)
			fill(img, image.Rect(20, 20, 50, 50), tt.figure)

			raster := rasterFrom(t, img, false)
			defer raster.Close()

			mask, err := NewBinarizer(DefaultOptions(), nil).Binarize(raster)
			require.NoError(t, err)
			defer mask.Close()

			assert.Less(t, mask.Coverage(), 0.5)
			v, _ := mask.Mat.GetUCharAt(35, 35)
			assert.Equal(t, uint8(255), v, "figure should be foreground")
			v, _ = mask.Mat.GetUCharAt(5, 5)
			assert.Equal(t, uint8(0), v, "background should be clear")
		})
	}
}

func TestBinarizeBlankImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	fill(img, img.Bounds(), color.NRGBA{128, 128, 128, 255})

	raster := rasterFrom(t, img, false)
	defer raster.Close()

	mask, err := NewBinarizer(DefaultOptions(), nil).Binarize(raster)
	require.NoError(t, err)
	defer mask.Close()

	assert.True(t, mask.Empty())
}

func TestBinarizeNil(t *testing.T) {
	_, err := NewBinarizer(DefaultOptions(), nil).Binarize(nil)
	assert.Error(t, err)
}

func TestBinarizeNoisyWithBlur(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 80, 80))
	fill(img, img.Bounds(), color.NRGBA{230, 230, 230, 255})
	fill(img, image.Rect(20, 20, 50, 50), color.NRGBA{30, 30, 30, 255})
	// Salt noise in the background.
	for i := 0; i < 80; i += 7 {
		img.SetNRGBA(i, 70, color.NRGBA{0, 0, 0, 255})
	}

	raster := rasterFrom(t, img, false)
	defer raster.Close()

	opts := DefaultOptions()
	opts.BlurSigma = 1
	mask, err := NewBinarizer(opts, nil).Binarize(raster)
	require.NoError(t, err)
	defer mask.Close()

	v, _ := mask.Mat.GetUCharAt(35, 35)
	assert.Equal(t, uint8(255), v)
	v, _ = mask.Mat.GetUCharAt(70, 7)
	assert.Equal(t, uint8(0), v)
}
