package threshold

import (
	"fmt"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"
	"figure-stand/internal/opencv/safe"
	"figure-stand/internal/processing/filters"

	"gocv.io/x/gocv"
)

const componentName = "Binarizer"

// Options tune the binarizer.
type Options struct {
	// AlphaThreshold is the alpha level above which a pixel counts as
	// foreground when the image has transparency.
	AlphaThreshold uint8
	// CleanupKernel is the elliptical kernel size for open-then-close. Values
	// below 2 disable cleanup.
	CleanupKernel int
	// BlurSigma smooths the gray levels before Otsu. Zero disables it.
	BlurSigma float64
}

func DefaultOptions() Options {
	return Options{AlphaThreshold: 200, CleanupKernel: 3}
}

// Binarizer separates the figure from its background.
type Binarizer struct {
	opts   Options
	logger logger.Logger
}

func NewBinarizer(opts Options, log logger.Logger) *Binarizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Binarizer{opts: opts, logger: log}
}

// Binarize returns a mask with the figure at 255. Transparent images are split
// on alpha, opaque images on an Otsu threshold of the gray levels. Whichever
// class covers more than half the image is treated as background. A blank
// image gives an all-zero mask.
func (b *Binarizer) Binarize(img *models.RasterImage) (*models.BinaryMask, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if err := safe.ValidateBGRA(img.Mat, "binarization"); err != nil {
		return nil, err
	}

	var raw *safe.Mat
	var err error
	method := "otsu"
	if img.HasAlpha {
		method = "alpha"
		raw, err = b.alphaMask(img.Mat)
	} else {
		raw, err = b.otsuMask(img.Mat)
	}
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	inverted, err := normalizePolarity(raw)
	if err != nil {
		return nil, err
	}

	clean, err := filters.Cleanup(raw, b.opts.CleanupKernel)
	if err != nil {
		return nil, fmt.Errorf("mask cleanup failed: %w", err)
	}

	mask, err := models.NewBinaryMask(clean)
	if err != nil {
		clean.Close()
		return nil, err
	}

	b.logger.Debug(componentName, "mask computed", map[string]interface{}{
		"method":   method,
		"inverted": inverted,
		"coverage": mask.Coverage(),
	})

	return mask, nil
}

func (b *Binarizer) alphaMask(src *safe.Mat) (*safe.Mat, error) {
	alpha, err := conversion.ExtractAlpha(src)
	if err != nil {
		return nil, fmt.Errorf("alpha extraction failed: %w", err)
	}
	defer alpha.Close()

	dst := gocv.NewMat()
	gocv.Threshold(alpha.GetMat(), &dst, float32(b.opts.AlphaThreshold), 255, gocv.ThresholdBinary)

	return safe.Take(dst, "alpha_mask")
}

func (b *Binarizer) otsuMask(src *safe.Mat) (*safe.Mat, error) {
	gray, err := conversion.ConvertToGrayscale(src)
	if err != nil {
		return nil, fmt.Errorf("grayscale conversion failed: %w", err)
	}
	defer gray.Close()

	if b.opts.BlurSigma > 0 {
		smoothed, err := filters.Smooth(gray, b.opts.BlurSigma)
		if err != nil {
			return nil, err
		}
		defer smoothed.Close()
		gray = smoothed
	}

	// Zero variance has no meaningful split; Otsu would mark everything.
	minVal, maxVal, _, _ := gocv.MinMaxLoc(gray.GetMat())
	if minVal == maxVal {
		return safe.NewMatWithTag(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1, "otsu_mask")
	}

	dst := gocv.NewMat()
	gocv.Threshold(gray.GetMat(), &dst, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	return safe.Take(dst, "otsu_mask")
}

// normalizePolarity inverts mask in place when foreground is the majority.
func normalizePolarity(mask *safe.Mat) (bool, error) {
	if err := safe.ValidateMask(mask, "polarity normalization"); err != nil {
		return false, err
	}

	total := mask.Rows() * mask.Cols()
	count := gocv.CountNonZero(mask.GetMat())
	if 2*count <= total {
		return false, nil
	}

	mat := mask.GetMat()
	gocv.BitwiseNot(mat, &mat)
	return true, nil
}
