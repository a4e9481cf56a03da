package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"

	"github.com/disintegration/imaging"
)

type imageLoader struct {
	logger        logger.Logger
	timingTracker TimingTracker
}

func (l *imageLoader) LoadFromPath(path string) (*models.RasterImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.InputError("ImageLoader", fmt.Errorf("failed to read image: %w", err))
	}
	return l.LoadFromBytes(data, filepath.Base(path))
}

func (l *imageLoader) LoadFromReader(reader io.Reader, name string) (*models.RasterImage, error) {
	ctx := l.timingTracker.StartTiming("load_from_reader")
	defer l.timingTracker.EndTiming(ctx)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, models.InputError("ImageLoader", fmt.Errorf("failed to read image data: %w", err))
	}

	l.logger.Debug("ImageLoader", "image data read", map[string]interface{}{
		"name":       name,
		"size_bytes": len(data),
	})

	return l.LoadFromBytes(data, name)
}

func (l *imageLoader) LoadFromBytes(data []byte, name string) (*models.RasterImage, error) {
	ctx := l.timingTracker.StartTiming("load_from_bytes")
	defer l.timingTracker.EndTiming(ctx)

	_, stdFormat, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.InputError("ImageLoader", fmt.Errorf("unrecognized image data: %w", err))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.InputError("ImageLoader", fmt.Errorf("failed to decode image: %w", err))
	}

	mat, err := conversion.ImageToBGRA(img)
	if err != nil {
		return nil, models.InputError("ImageLoader", err)
	}

	raster := &models.RasterImage{
		Mat:      mat,
		HasAlpha: hasTransparency(img),
		Format:   determineActualFormat(strings.ToLower(filepath.Ext(name)), stdFormat),
	}

	l.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"width":     raster.Width(),
		"height":    raster.Height(),
		"format":    raster.Format,
		"has_alpha": raster.HasAlpha,
	})

	return raster, nil
}

// hasTransparency reports whether any pixel is not fully opaque.
func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

func determineActualFormat(extension, stdLibFormat string) string {
	switch extension {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	default:
		if stdLibFormat != "" {
			return stdLibFormat
		}
		return "unknown"
	}
}
