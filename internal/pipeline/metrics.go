package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// RunMetrics summarizes the artifacts of the current run. Zero values mean the
// stage has not run yet.
type RunMetrics struct {
	State            string  `json:"state"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Coverage         float64 `json:"coverage"`
	ContourPoints    int     `json:"contour_points"`
	ContourArea      float64 `json:"contour_area"`
	ContourPerimeter float64 `json:"contour_perimeter"`
	RingPixels       int     `json:"ring_pixels"`
	FootprintWidth   int     `json:"footprint_width"`
	Pedestal         string  `json:"pedestal,omitempty"`
	Placeholder      bool    `json:"placeholder,omitempty"`
	Intersections    int     `json:"intersections"`
	BoundaryArea     float64 `json:"boundary_area"`
	HeldBytes        int64   `json:"held_bytes"`
	PeakBytes        int64   `json:"peak_bytes"`
	MemoryLimit      int64   `json:"memory_limit"`

	// Containment is the share of silhouette pixels inside the unified
	// boundary. A correct merge gives 1.
	Containment float64 `json:"containment"`
}

// Containment returns the fraction of mask pixels that lie inside the closed
// boundary, after shifting the mask by offset onto a canvas of the given size.
func Containment(mask *models.BinaryMask, offset image.Point, boundary models.Contour, width, height int) (float64, error) {
	if mask == nil || len(boundary) < 3 {
		return 0, fmt.Errorf("mask and a closed boundary are required")
	}

	placed, err := PlaceMask(mask, offset, width, height)
	if err != nil {
		return 0, err
	}
	defer placed.Close()

	total := gocv.CountNonZero(placed.GetMat())
	if total == 0 {
		return 0, nil
	}

	inside, err := safe.NewMatWithTag(height, width, gocv.MatTypeCV8UC1, "boundary_fill")
	if err != nil {
		return 0, err
	}
	defer inside.Close()

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{boundary})
	defer pts.Close()
	insideMat := inside.GetMat()
	gocv.FillPoly(&insideMat, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	both := gocv.NewMat()
	defer both.Close()
	gocv.BitwiseAnd(placed.GetMat(), insideMat, &both)

	return float64(gocv.CountNonZero(both)) / float64(total), nil
}

// PlaceMask copies mask onto a zero mask of width x height at offset.
func PlaceMask(mask *models.BinaryMask, offset image.Point, width, height int) (*safe.Mat, error) {
	if err := safe.ValidateMask(mask.Mat, "mask placement"); err != nil {
		return nil, err
	}
	if offset.X < 0 || offset.Y < 0 || offset.X+mask.Width() > width || offset.Y+mask.Height() > height {
		return nil, fmt.Errorf("mask %dx%d at %v does not fit %dx%d", mask.Width(), mask.Height(), offset, width, height)
	}

	out, err := safe.NewMatWithTag(height, width, gocv.MatTypeCV8UC1, "placed_mask")
	if err != nil {
		return nil, err
	}

	outMat := out.GetMat()
	region := outMat.Region(image.Rect(offset.X, offset.Y, offset.X+mask.Width(), offset.Y+mask.Height()))
	maskMat := mask.Mat.GetMat()
	err = maskMat.CopyTo(&region)
	region.Close()
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to place mask: %w", err)
	}

	return out, nil
}
