package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 500
	ImageAreaHeight = 400
)

// ImageDisplay shows the loaded figure next to the current pipeline result.
// Zoom only changes the result's on-screen size.
type ImageDisplay struct {
	container    fyne.CanvasObject
	sourceImage  *canvas.Image
	resultImage  *canvas.Image
	resultScroll *container.Scroll
	splitView    *container.Split
	zoom         float32
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{zoom: 1}
	display.createComponents()
	display.setupLayout()
	return display
}

func (id *ImageDisplay) createComponents() {
	id.sourceImage = canvas.NewImageFromImage(nil)
	id.sourceImage.FillMode = canvas.ImageFillContain
	id.sourceImage.ScaleMode = canvas.ImageScaleSmooth
	id.sourceImage.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))

	id.resultImage = canvas.NewImageFromImage(nil)
	id.resultImage.FillMode = canvas.ImageFillContain
	id.resultImage.ScaleMode = canvas.ImageScaleSmooth
	id.resultImage.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
}

func (id *ImageDisplay) setupLayout() {
	sourceContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Figure**"),
		nil, nil, nil,
		id.sourceImage,
	)

	id.resultScroll = container.NewScroll(id.resultImage)
	resultContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Result**"),
		nil, nil, nil,
		id.resultScroll,
	)

	id.splitView = container.NewHSplit(sourceContainer, resultContainer)
	id.splitView.SetOffset(0.5)
	id.container = id.splitView
}

func (id *ImageDisplay) GetContainer() fyne.CanvasObject {
	return id.container
}

func (id *ImageDisplay) SetSourceImage(img image.Image) {
	id.sourceImage.Image = img
	id.sourceImage.Refresh()
}

func (id *ImageDisplay) SetResultImage(img image.Image) {
	id.resultImage.Image = img
	id.applyZoom()
}

// SetZoom scales the result view; 1 fits the result area.
func (id *ImageDisplay) SetZoom(factor float32) {
	if factor <= 0 {
		factor = 1
	}
	id.zoom = factor
	id.applyZoom()
}

func (id *ImageDisplay) applyZoom() {
	id.resultImage.SetMinSize(fyne.NewSize(ImageAreaWidth*id.zoom, ImageAreaHeight*id.zoom))
	id.resultImage.Refresh()
	id.resultScroll.Refresh()
}
