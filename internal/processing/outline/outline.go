package outline

import (
	"fmt"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"
	"figure-stand/internal/processing/filters"

	"gocv.io/x/gocv"
)

const componentName = "OutlineRingGenerator"

// Color is the BGRA highlight the ring is painted with. The merge stage finds
// the figure outline by this color.
var Color = gocv.NewScalar(0, 0, 255, 255)

// Result is the ring and the source image with the ring painted over it.
// Regions narrower than 2*gap+1 pixels may close up and receive no ring.
type Result struct {
	Ring     *models.BinaryMask
	Outlined *models.RasterImage
}

func (r *Result) Close() {
	if r != nil {
		r.Ring.Close()
		r.Outlined.Close()
	}
}

type Generator struct {
	logger logger.Logger
}

func NewGenerator(log logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{logger: log}
}

// Generate computes dilate(mask, gap+thickness) minus dilate(mask, gap) and
// paints it onto a copy of img. The input image is never modified.
func (g *Generator) Generate(img *models.RasterImage, mask *models.BinaryMask, gap, thickness int) (*Result, error) {
	if gap < 0 || thickness < 0 {
		return nil, models.InputError(componentName,
			fmt.Errorf("%w: gap=%d thickness=%d", models.ErrInvalidParams, gap, thickness))
	}
	if img == nil || mask == nil {
		return nil, fmt.Errorf("image and mask are required")
	}
	if err := safe.ValidateSameSize(img.Mat, mask.Mat, "outline generation"); err != nil {
		return nil, err
	}

	ring, err := Ring(mask.Mat, gap, thickness)
	if err != nil {
		return nil, err
	}

	outlined, err := img.Clone()
	if err != nil {
		ring.Close()
		return nil, err
	}

	if err := Paint(outlined.Mat, ring, Color); err != nil {
		ring.Close()
		outlined.Close()
		return nil, err
	}
	outlined.HasAlpha = true

	result := &Result{Ring: &models.BinaryMask{Mat: ring}, Outlined: outlined}

	g.logger.Debug(componentName, "ring generated", map[string]interface{}{
		"gap":         gap,
		"thickness":   thickness,
		"ring_pixels": result.Ring.Count(),
	})

	return result, nil
}

// Ring returns the band of pixels between distance gap and gap+thickness
// from the mask.
func Ring(mask *safe.Mat, gap, thickness int) (*safe.Mat, error) {
	outer, err := filters.Dilate(mask, gap+thickness)
	if err != nil {
		return nil, fmt.Errorf("outer dilation failed: %w", err)
	}
	defer outer.Close()

	inner, err := filters.Dilate(mask, gap)
	if err != nil {
		return nil, fmt.Errorf("inner dilation failed: %w", err)
	}
	defer inner.Close()

	return filters.Subtract(outer, inner)
}

// Paint sets every pixel of dst under mask to color, in place.
func Paint(dst *safe.Mat, mask *safe.Mat, c gocv.Scalar) error {
	if err := safe.ValidateSameSize(dst, mask, "paint"); err != nil {
		return err
	}
	if err := safe.ValidateMask(mask, "paint"); err != nil {
		return err
	}

	solid := gocv.NewMatWithSizeFromScalar(c, dst.Rows(), dst.Cols(), dst.Type())
	defer solid.Close()

	dstMat := dst.GetMat()
	if err := solid.CopyToWithMask(&dstMat, mask.GetMat()); err != nil {
		return fmt.Errorf("paint failed: %w", err)
	}
	return nil
}
