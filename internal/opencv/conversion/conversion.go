package conversion

import (
	"fmt"
	"image"
	"runtime"

	"figure-stand/internal/opencv/safe"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// ImageToBGRA normalizes any decoded Go image into an 8-bit BGRA Mat. The
// alpha channel is straight (non-premultiplied), matching what the compositor
// expects.
func ImageToBGRA(img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if err := safe.ValidateDimensions(width, height, "ImageToBGRA"); err != nil {
		return nil, err
	}

	// imaging.Clone always yields a tightly packed NRGBA with origin (0,0).
	nrgba := imaging.Clone(img)

	rgba, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, nrgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap pixel buffer: %w", err)
	}
	defer rgba.Close()

	bgra := gocv.NewMat()
	gocv.CvtColor(rgba, &bgra, gocv.ColorRGBAToBGRA)
	runtime.KeepAlive(nrgba)

	return safe.Take(bgra, "bgra")
}

// MatToImage converts a BGRA, BGR or single channel Mat back into a Go image.
// Four channel Mats become *image.NRGBA, masks become *image.Gray.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	rect := image.Rect(0, 0, cols, rows)

	switch src.Channels() {
	case 1:
		pix, err := src.Bytes()
		if err != nil {
			return nil, err
		}
		return &image.Gray{Pix: pix, Stride: cols, Rect: rect}, nil
	case 3, 4:
		code := gocv.ColorBGRAToRGBA
		if src.Channels() == 3 {
			code = gocv.ColorBGRToRGBA
		}
		rgba := gocv.NewMat()
		defer rgba.Close()
		gocv.CvtColor(src.GetMat(), &rgba, code)
		return &image.NRGBA{Pix: rgba.ToBytes(), Stride: cols * 4, Rect: rect}, nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}

// ConvertToGrayscale converts BGR or BGRA Mats to single-channel grayscale.
func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 1 {
		return src.Clone()
	}

	dst := gocv.NewMat()
	switch src.Channels() {
	case 3:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	return safe.Take(dst, "gray")
}

// ExtractAlpha returns the alpha plane of a BGRA Mat.
func ExtractAlpha(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateBGRA(src, "alpha extraction"); err != nil {
		return nil, err
	}

	planes := gocv.Split(src.GetMat())
	for i := 0; i < 3; i++ {
		planes[i].Close()
	}

	return safe.Take(planes[3], "alpha")
}

// ResizeMat resizes src to newWidth x newHeight. INTER_AREA is used when
// shrinking, INTER_LINEAR when enlarging.
func ResizeMat(src *safe.Mat, newWidth, newHeight int) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "Mat resizing"); err != nil {
		return nil, err
	}
	if err := safe.ValidateDimensions(newWidth, newHeight, "Mat resizing"); err != nil {
		return nil, err
	}

	if newWidth == src.Cols() && newHeight == src.Rows() {
		return src.Clone()
	}

	interp := gocv.InterpolationLinear
	if newWidth*newHeight < src.Cols()*src.Rows() {
		interp = gocv.InterpolationArea
	}

	dst := gocv.NewMat()
	gocv.Resize(src.GetMat(), &dst, image.Pt(newWidth, newHeight), 0, 0, interp)

	return safe.Take(dst, src.Tag()+"_resized")
}
