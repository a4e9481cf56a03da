package pipeline

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"

	"github.com/disintegration/imaging"
)

// WriteSVG writes the raster as an embedded PNG with the boundary as a closed
// polygon on top, both in pixel units.
func WriteSVG(writer io.Writer, raster *models.RasterImage, boundary models.Contour) error {
	if raster == nil {
		return fmt.Errorf("no image data to export")
	}

	img, err := conversion.MatToImage(raster.Mat)
	if err != nil {
		return fmt.Errorf("failed to convert raster: %w", err)
	}

	var png bytes.Buffer
	if err := imaging.Encode(&png, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	w, h := raster.Width(), raster.Height()
	out := bufio.NewWriter(writer)

	fmt.Fprintf(out, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", w, h, w, h)
	fmt.Fprintf(out, `  <image x="0" y="0" width="%d" height="%d" href="data:image/png;base64,%s"/>`+"\n",
		w, h, base64.StdEncoding.EncodeToString(png.Bytes()))

	if len(boundary) >= 3 {
		points := make([]string, len(boundary))
		for i, p := range boundary {
			points[i] = fmt.Sprintf("%d,%d", p.X, p.Y)
		}
		fmt.Fprintf(out, `  <polygon id="cut-line" points="%s" fill="none" stroke="#ff0000" stroke-width="1"/>`+"\n",
			strings.Join(points, " "))
	}

	fmt.Fprintln(out, "</svg>")
	return out.Flush()
}
