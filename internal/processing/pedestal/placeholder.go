package pedestal

import (
	"fmt"
	"image"
	"image/color"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

var placeholderFill = color.RGBA{R: 180, G: 180, B: 180, A: 255}

// Placeholder draws a plain trapezoid of the catalog size on a transparent
// background. Output depends only on the spec.
func Placeholder(spec models.PedestalSpec) (*safe.Mat, error) {
	w, h := spec.Width, spec.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("pedestal %q has no size", spec.Name)
	}

	mat, err := safe.NewMatWithTag(h, w, gocv.MatTypeCV8UC4, "placeholder_"+spec.Name)
	if err != nil {
		return nil, err
	}

	inset := w / 10
	pts := gocv.NewPointsVectorFromPoints([][]image.Point{{
		{X: inset, Y: 0},
		{X: w - 1 - inset, Y: 0},
		{X: w - 1, Y: h - 1},
		{X: 0, Y: h - 1},
	}})
	defer pts.Close()

	dst := mat.GetMat()
	gocv.FillPoly(&dst, pts, placeholderFill)

	return mat, nil
}
