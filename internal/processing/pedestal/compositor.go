package pedestal

import (
	"fmt"
	"image"
	"image/color"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"
	"figure-stand/internal/opencv/safe"
	"figure-stand/internal/processing/contour"

	"gocv.io/x/gocv"
)

const compositorComponent = "PedestalCompositor"

// GuideColor marks the pedestal outline for the merge stage.
var GuideColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// GuideThickness is the stroke width of the pedestal outline.
const GuideThickness = 2

var (
	markerFill = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	markerRing = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Placement is the enlarged canvas and where things ended up on it.
type Placement struct {
	Canvas *models.RasterImage

	// Offset is how far the original canvas content moved right and down.
	Offset image.Point

	// Origin is the pedestal's top-left corner on the new canvas.
	Origin image.Point

	// Trace is the pedestal outline in canvas coordinates.
	Trace models.Contour
}

func (p *Placement) Close() {
	if p != nil {
		p.Canvas.Close()
	}
}

type Compositor struct {
	logger logger.Logger
}

func NewCompositor(log logger.Logger) *Compositor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Compositor{logger: log}
}

// Composite places the asset so its top edge sits standoff pixels below the
// footprint's lowest point, centered on the footprint's column. The canvas
// grows as needed and is never cropped. Pedestal pixels replace the canvas
// wherever the pedestal alpha is nonzero. The canvas passed in is not modified.
func (c *Compositor) Composite(canvas *models.RasterImage, fp models.Footprint, asset *models.PedestalAsset, standoff int) (*Placement, error) {
	if canvas == nil || asset == nil {
		return nil, fmt.Errorf("canvas and asset are required")
	}
	if err := safe.ValidateBGRA(canvas.Mat, "pedestal composite"); err != nil {
		return nil, err
	}
	if err := safe.ValidateBGRA(asset.Image, "pedestal composite"); err != nil {
		return nil, err
	}

	pw, ph := asset.Width(), asset.Height()
	x0 := fp.CenterX - pw/2
	y0 := fp.LowestY + standoff

	offset := image.Pt(max(0, -x0), max(0, -y0))
	origin := image.Pt(x0, y0).Add(offset)
	width := max(canvas.Width()+offset.X, origin.X+pw)
	height := max(canvas.Height()+offset.Y, origin.Y+ph)

	out, err := safe.NewMatWithTag(height, width, gocv.MatTypeCV8UC4, "composite")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate canvas: %w", err)
	}

	outMat := out.GetMat()
	base := outMat.Region(image.Rect(offset.X, offset.Y, offset.X+canvas.Width(), offset.Y+canvas.Height()))
	canvasMat := canvas.Mat.GetMat()
	err = canvasMat.CopyTo(&base)
	base.Close()
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to copy canvas: %w", err)
	}

	alpha, err := opaqueMask(asset.Image)
	if err != nil {
		out.Close()
		return nil, err
	}
	defer alpha.Close()

	dst := outMat.Region(image.Rect(origin.X, origin.Y, origin.X+pw, origin.Y+ph))
	assetMat := asset.Image.GetMat()
	err = assetMat.CopyToWithMask(&dst, alpha.GetMat())
	dst.Close()
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to copy pedestal: %w", err)
	}

	trace, err := traceOf(alpha)
	if err != nil {
		out.Close()
		return nil, err
	}
	trace = trace.Translate(origin)

	if err := DrawTrace(out, trace, GuideColor, GuideThickness); err != nil {
		out.Close()
		return nil, err
	}

	c.logger.Debug(compositorComponent, "pedestal composited", map[string]interface{}{
		"pedestal":    asset.Spec.Name,
		"placeholder": asset.Placeholder,
		"origin_x":    origin.X,
		"origin_y":    origin.Y,
		"canvas_w":    width,
		"canvas_h":    height,
	})

	return &Placement{
		Canvas: &models.RasterImage{Mat: out, HasAlpha: true, Format: canvas.Format},
		Offset: offset,
		Origin: origin,
		Trace:  trace,
	}, nil
}

func opaqueMask(bgra *safe.Mat) (*safe.Mat, error) {
	alpha, err := conversion.ExtractAlpha(bgra)
	if err != nil {
		return nil, err
	}
	defer alpha.Close()

	mask := gocv.NewMat()
	gocv.Threshold(alpha.GetMat(), &mask, 0, 255, gocv.ThresholdBinary)
	return safe.Take(mask, "pedestal_alpha")
}

func traceOf(mask *safe.Mat) (models.Contour, error) {
	contours := gocv.FindContours(mask.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	index, _ := contour.Largest(contours)
	if index < 0 {
		return nil, models.GeometryError(compositorComponent, fmt.Errorf("%w: pedestal is fully transparent", models.ErrNoContour))
	}
	return models.Contour(contours.At(index).ToPoints()), nil
}

// DrawTrace strokes a closed contour onto dst in place.
func DrawTrace(dst *safe.Mat, c models.Contour, col color.RGBA, thickness int) error {
	if len(c) < 2 {
		return fmt.Errorf("trace needs at least two points")
	}
	pts := gocv.NewPointsVectorFromPoints([][]image.Point{c})
	defer pts.Close()

	mat := dst.GetMat()
	gocv.Polylines(&mat, pts, true, col, thickness)
	return nil
}

// DrawMarker stamps the footprint marker, a filled dot with a white ring, at p.
func DrawMarker(dst *safe.Mat, p image.Point) {
	mat := dst.GetMat()
	gocv.Circle(&mat, p, 12, markerRing, 2)
	gocv.Circle(&mat, p, 10, markerFill, -1)
}
