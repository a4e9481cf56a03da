package filters

import (
	"fmt"
	"image"

	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// DiscKernel returns an elliptical structuring element of size 2r+1. The
// caller closes it.
func DiscKernel(radius int) gocv.Mat {
	size := 2*radius + 1
	return gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: size, Y: size})
}

// Dilate grows a mask by a disc of the given radius. Radius 0 returns a copy.
func Dilate(src *safe.Mat, radius int) (*safe.Mat, error) {
	if err := safe.ValidateMask(src, "dilation"); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("dilation radius must be >= 0, got %d", radius)
	}
	if radius == 0 {
		return src.Clone()
	}

	kernel := DiscKernel(radius)
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.Dilate(src.GetMat(), &dst, kernel)

	return safe.Take(dst, src.Tag()+"_dilated")
}

// DilateRect grows a mask by a square kernel of side size.
func DilateRect(src *safe.Mat, size int) (*safe.Mat, error) {
	if err := safe.ValidateMask(src, "rect dilation"); err != nil {
		return nil, err
	}
	if size <= 1 {
		return src.Clone()
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: size, Y: size})
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.Dilate(src.GetMat(), &dst, kernel)

	return safe.Take(dst, src.Tag()+"_dilated")
}

// Cleanup removes speckles with an opening, then fills pinholes with a closing,
// both using an elliptical kernel of kernelSize. kernelSize below 2 disables it.
func Cleanup(src *safe.Mat, kernelSize int) (*safe.Mat, error) {
	if err := safe.ValidateMask(src, "morphological cleanup"); err != nil {
		return nil, err
	}
	if kernelSize < 2 {
		return src.Clone()
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(src.GetMat(), &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	return safe.Take(closed, src.Tag()+"_clean")
}

// Subtract returns a AND NOT b for two masks of the same size.
func Subtract(a, b *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateSameSize(a, b, "mask subtraction"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.Subtract(a.GetMat(), b.GetMat(), &dst)

	return safe.Take(dst, "difference")
}

// Union returns a OR b for two masks of the same size.
func Union(a, b *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateSameSize(a, b, "mask union"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.BitwiseOr(a.GetMat(), b.GetMat(), &dst)

	return safe.Take(dst, "union")
}

// Intersect returns a AND b for two masks of the same size.
func Intersect(a, b *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateSameSize(a, b, "mask intersection"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.BitwiseAnd(a.GetMat(), b.GetMat(), &dst)

	return safe.Take(dst, "intersection")
}
