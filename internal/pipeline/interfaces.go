package pipeline

import (
	"image"
	"io"

	"figure-stand/internal/models"
)

// ImageLoader decodes user images into the pipeline's raster format.
type ImageLoader interface {
	LoadFromReader(reader io.Reader, name string) (*models.RasterImage, error)
	LoadFromBytes(data []byte, name string) (*models.RasterImage, error)
	LoadFromPath(path string) (*models.RasterImage, error)
}

// ImageSaver writes rasters out.
type ImageSaver interface {
	SaveToWriter(writer io.Writer, raster *models.RasterImage, format string) error
	SaveToPath(path string, raster *models.RasterImage) error
}

// ProcessingCoordinator is what the GUI and CLI drive.
type ProcessingCoordinator interface {
	LoadImage(reader io.Reader, name string) error
	LoadFile(path string) error
	Outline(gap, thickness int) error
	Composite(pedestalName string) error
	Merge() error
	Run(params models.Params) error

	State() models.State
	Footprint() (models.Footprint, bool)
	Boundary() models.Contour
	CurrentImage() (image.Image, error)
	PedestalNames() []string

	SaveCurrent(writer io.Writer, format string) error
	ExportSVG(writer io.Writer) error
	Metrics() RunMetrics
	Close()
}
