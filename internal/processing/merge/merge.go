package merge

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"
	"figure-stand/internal/processing/contour"
	"figure-stand/internal/processing/filters"

	"gocv.io/x/gocv"
)

const componentName = "BoundaryMerger"

// ColorRange is an inclusive per-channel BGR range.
type ColorRange struct {
	Lower gocv.Scalar
	Upper gocv.Scalar
}

var (
	// FigureRange matches the outline ring color.
	FigureRange = ColorRange{Lower: gocv.NewScalar(0, 0, 200, 0), Upper: gocv.NewScalar(60, 60, 255, 255)}
	// PedestalRange matches the pedestal guide color.
	PedestalRange = ColorRange{Lower: gocv.NewScalar(0, 200, 0, 0), Upper: gocv.NewScalar(60, 255, 60, 255)}
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

type Options struct {
	// TouchRadius is how far the figure trace is grown before testing for
	// contact with the pedestal trace.
	TouchRadius int
	// SeamThickness is the stroke used to join intersection points.
	SeamThickness int
	// StrokeColor and StrokeThickness draw the unified boundary.
	StrokeColor     color.RGBA
	StrokeThickness int
}

func DefaultOptions() Options {
	return Options{
		TouchRadius:     1,
		SeamThickness:   3,
		StrokeColor:     color.RGBA{R: 255, G: 0, B: 0, A: 255},
		StrokeThickness: 3,
	}
}

// Result is the single outer boundary and the canvas redrawn with it.
type Result struct {
	Contour       models.Contour
	Intersections []image.Point
	Canvas        *models.RasterImage
}

func (r *Result) Close() {
	if r != nil {
		r.Canvas.Close()
	}
}

type Merger struct {
	opts   Options
	logger logger.Logger
}

func NewMerger(opts Options, log logger.Logger) *Merger {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.SeamThickness < 1 {
		opts.SeamThickness = 1
	}
	if opts.StrokeThickness < 1 {
		opts.StrokeThickness = 1
	}
	return &Merger{opts: opts, logger: log}
}

// Merge fuses the figure outline and the pedestal outline drawn on canvas into
// one boundary. Pixels of either trace color are removed from the output except
// under protect, which may be nil.
func (m *Merger) Merge(canvas *models.RasterImage, protect *models.BinaryMask) (*Result, error) {
	if canvas == nil {
		return nil, fmt.Errorf("canvas is nil")
	}
	if err := safe.ValidateBGRA(canvas.Mat, "boundary merge"); err != nil {
		return nil, err
	}
	if protect != nil {
		if err := safe.ValidateSameSize(canvas.Mat, protect.Mat, "boundary merge"); err != nil {
			return nil, err
		}
	}

	figure, err := Signature(canvas.Mat, FigureRange)
	if err != nil {
		return nil, err
	}
	defer figure.Close()

	pedestal, err := Signature(canvas.Mat, PedestalRange)
	if err != nil {
		return nil, err
	}
	defer pedestal.Close()

	points, err := Intersections(figure, pedestal, m.opts.TouchRadius)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, models.GeometryError(componentName,
			fmt.Errorf("%w: found %d intersection points, need at least 2", models.ErrCannotMerge, len(points)))
	}

	figureFill, err := m.sealAndFill(figure, points)
	if err != nil {
		return nil, err
	}
	defer figureFill.Close()

	pedestalFill, err := m.sealAndFill(pedestal, points)
	if err != nil {
		return nil, err
	}
	defer pedestalFill.Close()

	union, err := filters.Union(figureFill, pedestalFill)
	if err != nil {
		return nil, err
	}
	defer union.Close()

	unified, err := outerBoundary(union)
	if err != nil {
		return nil, err
	}

	out, err := m.redraw(canvas.Mat, figure, pedestal, protect, unified)
	if err != nil {
		return nil, err
	}

	m.logger.Info(componentName, "boundaries merged", map[string]interface{}{
		"intersections": len(points),
		"points":        len(unified),
		"area":          unified.Area(),
	})

	return &Result{
		Contour:       unified,
		Intersections: points,
		Canvas:        &models.RasterImage{Mat: out, HasAlpha: true, Format: canvas.Format},
	}, nil
}

// Signature returns the mask of pixels whose BGR values fall inside r.
func Signature(src *safe.Mat, r ColorRange) (*safe.Mat, error) {
	if err := safe.ValidateBGRA(src, "color signature"); err != nil {
		return nil, err
	}

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(src.GetMat(), &bgr, gocv.ColorBGRAToBGR)

	lower := gocv.NewScalar(r.Lower.Val1, r.Lower.Val2, r.Lower.Val3, 0)
	upper := gocv.NewScalar(r.Upper.Val1, r.Upper.Val2, r.Upper.Val3, 0)

	dst := gocv.NewMat()
	gocv.InRangeWithScalar(bgr, lower, upper, &dst)

	return safe.Take(dst, "signature")
}

// Intersections finds where the grown figure trace overlaps the pedestal trace.
// Each connected contact region yields one point, the center of its bounding
// box. Points are ordered by x, then y.
func Intersections(figure, pedestal *safe.Mat, touchRadius int) ([]image.Point, error) {
	grown, err := filters.DilateRect(figure, 2*touchRadius+1)
	if err != nil {
		return nil, err
	}
	defer grown.Close()

	touch, err := filters.Intersect(grown, pedestal)
	if err != nil {
		return nil, err
	}
	defer touch.Close()

	// Neighbouring contact pixels form one crossing.
	blobs, err := filters.DilateRect(touch, 5)
	if err != nil {
		return nil, err
	}
	defer blobs.Close()

	contours := gocv.FindContours(blobs.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	points := make([]image.Point, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		points = append(points, image.Pt((rect.Min.X+rect.Max.X)/2, (rect.Min.Y+rect.Max.Y)/2))
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].X != points[j].X {
			return points[i].X < points[j].X
		}
		return points[i].Y < points[j].Y
	})

	return points, nil
}

// sealAndFill joins consecutive points with a seam stroke on a copy of trace
// and fills every outer boundary of the result.
func (m *Merger) sealAndFill(trace *safe.Mat, points []image.Point) (*safe.Mat, error) {
	sealed, err := trace.Clone()
	if err != nil {
		return nil, err
	}
	defer sealed.Close()

	sealedMat := sealed.GetMat()
	for i := 0; i+1 < len(points); i++ {
		gocv.Line(&sealedMat, points[i], points[i+1], white, m.opts.SeamThickness)
	}

	filled, err := safe.NewMatWithTag(trace.Rows(), trace.Cols(), gocv.MatTypeCV8UC1, "fill")
	if err != nil {
		return nil, err
	}

	contours := gocv.FindContours(sealedMat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	filledMat := filled.GetMat()
	if contours.Size() > 0 {
		gocv.DrawContours(&filledMat, contours, -1, white, -1)
	}

	return filled, nil
}

func outerBoundary(mask *safe.Mat) (models.Contour, error) {
	contours := gocv.FindContours(mask.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	index, _ := contour.Largest(contours)
	if index < 0 {
		return nil, models.GeometryError(componentName, fmt.Errorf("%w: union is empty", models.ErrCannotMerge))
	}
	return models.Contour(contours.At(index).ToPoints()), nil
}

// redraw erases both traces outside protect and strokes the unified boundary.
func (m *Merger) redraw(src, figure, pedestal *safe.Mat, protect *models.BinaryMask, unified models.Contour) (*safe.Mat, error) {
	out, err := src.Clone()
	if err != nil {
		return nil, err
	}

	erase, err := filters.Union(figure, pedestal)
	if err != nil {
		out.Close()
		return nil, err
	}
	defer erase.Close()

	eraseMat := erase.GetMat()
	if protect != nil {
		keep := gocv.NewMat()
		gocv.BitwiseNot(protect.Mat.GetMat(), &keep)
		gocv.BitwiseAnd(eraseMat, keep, &eraseMat)
		keep.Close()
	}

	transparent := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), out.Rows(), out.Cols(), out.Type())
	defer transparent.Close()

	outMat := out.GetMat()
	if err := transparent.CopyToWithMask(&outMat, eraseMat); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to erase traces: %w", err)
	}

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{unified})
	defer pts.Close()
	gocv.Polylines(&outMat, pts, true, m.opts.StrokeColor, m.opts.StrokeThickness)

	return out, nil
}
