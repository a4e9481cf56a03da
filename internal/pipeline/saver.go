package pipeline

import (
	"fmt"
	"io"
	"strings"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"

	"github.com/disintegration/imaging"
)

type imageSaver struct {
	logger        logger.Logger
	timingTracker TimingTracker
}

func (s *imageSaver) SaveToWriter(writer io.Writer, raster *models.RasterImage, format string) error {
	if raster == nil {
		return fmt.Errorf("no image data to save")
	}

	ctx := s.timingTracker.StartTiming("save_to_writer")
	defer s.timingTracker.EndTiming(ctx)

	img, err := conversion.MatToImage(raster.Mat)
	if err != nil {
		return fmt.Errorf("failed to convert raster: %w", err)
	}

	saveFormat := strings.ToLower(format)
	if saveFormat == "" {
		saveFormat = "png"
	}

	var encodeFormat imaging.Format
	switch saveFormat {
	case "png":
		encodeFormat = imaging.PNG
	case "jpeg", "jpg":
		// JPEG drops the transparency the outline canvas depends on.
		s.logger.Warning("ImageSaver", "JPEG output discards transparency", nil)
		encodeFormat = imaging.JPEG
	default:
		s.logger.Warning("ImageSaver", "format not supported, using PNG", map[string]interface{}{
			"requested_format": strings.ToUpper(saveFormat),
		})
		encodeFormat = imaging.PNG
	}

	s.logger.Debug("ImageSaver", "saving image", map[string]interface{}{
		"format": encodeFormat.String(),
		"width":  raster.Width(),
		"height": raster.Height(),
	})

	if err := imaging.Encode(writer, img, encodeFormat, imaging.JPEGQuality(95)); err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": encodeFormat.String(),
		})
		return err
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"format": encodeFormat.String(),
	})

	return nil
}

// SaveToPath picks the encoder from the file extension.
func (s *imageSaver) SaveToPath(path string, raster *models.RasterImage) error {
	if raster == nil {
		return fmt.Errorf("no image data to save")
	}

	img, err := conversion.MatToImage(raster.Mat)
	if err != nil {
		return fmt.Errorf("failed to convert raster: %w", err)
	}

	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path": path,
	})
	return nil
}
