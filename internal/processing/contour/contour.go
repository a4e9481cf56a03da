package contour

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const componentName = "ContourExtractor"

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

type Options struct {
	// Refine densifies and then simplifies the traced boundary.
	Refine bool
	// Subdivisions is the number of sub-segments each edge is split into
	// before simplification.
	Subdivisions int
	// EpsilonRatio scales the Douglas-Peucker tolerance by the perimeter.
	EpsilonRatio float64
}

func DefaultOptions() Options {
	return Options{Refine: false, Subdivisions: 8, EpsilonRatio: 0.0008}
}

// Result holds the outer boundary of the largest region and that region
// rasterized on its own.
type Result struct {
	Contour    models.Contour
	Silhouette *models.BinaryMask
}

func (r *Result) Close() {
	if r != nil {
		r.Silhouette.Close()
	}
}

type Extractor struct {
	opts   Options
	logger logger.Logger
}

func NewExtractor(opts Options, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Subdivisions < 1 {
		opts.Subdivisions = 1
	}
	return &Extractor{opts: opts, logger: log}
}

// Extract traces outer boundaries only and keeps the one enclosing the largest
// area. On an exact tie the first boundary found wins.
func (e *Extractor) Extract(mask *models.BinaryMask) (*Result, error) {
	if mask == nil {
		return nil, fmt.Errorf("input mask is nil")
	}
	if err := safe.ValidateMask(mask.Mat, "contour extraction"); err != nil {
		return nil, err
	}

	contours := gocv.FindContours(mask.Mat.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	index, area := Largest(contours)
	if index < 0 {
		return nil, models.GeometryError(componentName, models.ErrNoContour)
	}

	silhouette, err := safe.NewMatWithTag(mask.Height(), mask.Width(), gocv.MatTypeCV8UC1, "silhouette")
	if err != nil {
		return nil, err
	}
	silMat := silhouette.GetMat()
	gocv.DrawContours(&silMat, contours, index, white, -1)

	points := models.Contour(contours.At(index).ToPoints())
	if e.opts.Refine {
		points = Refine(points, e.opts.Subdivisions, e.opts.EpsilonRatio)
	}

	e.logger.Debug(componentName, "largest contour selected", map[string]interface{}{
		"candidates": contours.Size(),
		"area":       area,
		"points":     len(points),
		"refined":    e.opts.Refine,
	})

	return &Result{Contour: points, Silhouette: &models.BinaryMask{Mat: silhouette}}, nil
}

// Largest returns the index and area of the contour with the largest area, or
// -1 when there are none.
func Largest(contours gocv.PointsVector) (int, float64) {
	index := -1
	maxArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			index = i
		}
	}
	return index, maxArea
}

// Refine splits every edge of the closed polygon into n equal parts, then
// simplifies with a tolerance of epsilonRatio times the perimeter.
func Refine(c models.Contour, n int, epsilonRatio float64) models.Contour {
	if len(c) < 3 {
		return c
	}

	dense := Densify(c, n)
	pv := gocv.NewPointVectorFromPoints(dense)
	defer pv.Close()

	epsilon := epsilonRatio * gocv.ArcLength(pv, true)
	approx := gocv.ApproxPolyDP(pv, epsilon, true)
	defer approx.Close()

	return models.Contour(approx.ToPoints())
}

// Densify linearly interpolates n-1 extra points on each edge, including the
// closing edge.
func Densify(c models.Contour, n int) []image.Point {
	if n < 2 || len(c) < 2 {
		return append([]image.Point(nil), c...)
	}

	out := make([]image.Point, 0, len(c)*n)
	for i := range c {
		a := c[i]
		b := c[(i+1)%len(c)]
		for k := 0; k < n; k++ {
			t := float64(k) / float64(n)
			out = append(out, image.Pt(
				a.X+int(math.Round(t*float64(b.X-a.X))),
				a.Y+int(math.Round(t*float64(b.Y-a.Y))),
			))
		}
	}
	return out
}

