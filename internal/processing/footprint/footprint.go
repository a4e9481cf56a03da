package footprint

import (
	"fmt"
	"math"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const componentName = "FootprintLocator"

// DefaultMargin is the height of the band above the lowest point that counts
// as ground contact.
const DefaultMargin = 8

type Locator struct {
	margin int
	logger logger.Logger
}

func NewLocator(margin int, log logger.Logger) *Locator {
	if log == nil {
		log = logger.NewNop()
	}
	if margin < 0 {
		margin = 0
	}
	return &Locator{margin: margin, logger: log}
}

// Locate derives the footprint from the mask's centroid and the contour's
// lowest points.
//
// LeftX and RightX take every contour point in the band
// [LowestY-margin, LowestY]. A pose with another limb reaching the same height
// widens the span. This is an approximation; it is not a contact analysis.
func (l *Locator) Locate(mask *models.BinaryMask, contour models.Contour) (models.Footprint, error) {
	if mask == nil {
		return models.Footprint{}, fmt.Errorf("input mask is nil")
	}
	if err := safe.ValidateMask(mask.Mat, "footprint location"); err != nil {
		return models.Footprint{}, err
	}

	m := gocv.Moments(mask.Mat.GetMat(), true)
	m00 := m["m00"]
	if m00 == 0 || len(contour) == 0 {
		return models.Footprint{}, models.GeometryError(componentName, models.ErrEmptyFootprint)
	}

	fp := models.Footprint{
		CenterX: int(math.Round(m["m10"] / m00)),
		CenterY: int(math.Round(m["m01"] / m00)),
		Area:    m00,
	}

	fp.LowestY = contour[0].Y
	for _, p := range contour[1:] {
		fp.LowestY = max(fp.LowestY, p.Y)
	}

	fp.LeftX, fp.RightX = math.MaxInt, math.MinInt
	for _, p := range contour {
		if p.Y >= fp.LowestY-l.margin {
			fp.LeftX = min(fp.LeftX, p.X)
			fp.RightX = max(fp.RightX, p.X)
		}
	}

	l.logger.Debug(componentName, "footprint located", map[string]interface{}{
		"center_x": fp.CenterX,
		"center_y": fp.CenterY,
		"lowest_y": fp.LowestY,
		"left_x":   fp.LeftX,
		"right_x":  fp.RightX,
	})

	return fp, nil
}
