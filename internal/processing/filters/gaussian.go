package filters

import (
	"fmt"
	"image"

	"figure-stand/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Smooth blurs src with a Gaussian of the given sigma. The kernel grows with
// sigma and is clamped to [3,15]. Sigma <= 0 returns a copy.
func Smooth(src *safe.Mat, sigma float64) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "gaussian smoothing"); err != nil {
		return nil, err
	}
	if sigma <= 0 {
		return src.Clone()
	}

	dst := gocv.NewMat()
	size := KernelSize(sigma)
	gocv.GaussianBlur(src.GetMat(), &dst, image.Point{X: size, Y: size}, sigma, sigma, gocv.BorderReplicate)

	out, err := safe.Take(dst, src.Tag()+"_smoothed")
	if err != nil {
		return nil, fmt.Errorf("gaussian smoothing failed: %w", err)
	}
	return out, nil
}

func KernelSize(sigma float64) int {
	size := int(sigma*6) + 1
	if size%2 == 0 {
		size++
	}
	return max(3, min(size, 15))
}
