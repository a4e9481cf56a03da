package pipeline

import (
	"fmt"
	"image"
	"io"
	"sync"

	"figure-stand/internal/config"
	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"
	"figure-stand/internal/opencv/memory"
	"figure-stand/internal/opencv/safe"
	"figure-stand/internal/processing/contour"
	"figure-stand/internal/processing/footprint"
	"figure-stand/internal/processing/merge"
	"figure-stand/internal/processing/outline"
	"figure-stand/internal/processing/pedestal"
	"figure-stand/internal/processing/threshold"
)

const componentName = "Coordinator"

var _ ProcessingCoordinator = (*Coordinator)(nil)

// Options configure every stage of a Coordinator.
type Options struct {
	Threshold       threshold.Options
	Contour         contour.Options
	FootprintMargin int
	Merge           merge.Options
	Marker          bool
	MemoryLimit     int64
}

func DefaultOptions() Options {
	return Options{
		Threshold:       threshold.DefaultOptions(),
		Contour:         contour.DefaultOptions(),
		FootprintMargin: footprint.DefaultMargin,
		Merge:           merge.DefaultOptions(),
		MemoryLimit:     memory.DefaultLimit,
	}
}

// OptionsFromConfig maps the loaded configuration onto stage options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Threshold.AlphaThreshold = uint8(cfg.Threshold.Alpha)
	opts.Threshold.CleanupKernel = cfg.Threshold.CleanupKernel
	opts.Threshold.BlurSigma = cfg.Threshold.BlurSigma
	opts.Contour.Refine = cfg.Contour.Refine
	opts.Contour.Subdivisions = cfg.Contour.Subdivisions
	opts.Contour.EpsilonRatio = cfg.Contour.EpsilonRatio
	opts.FootprintMargin = cfg.Footprint.Margin
	opts.Merge.TouchRadius = cfg.Merge.TouchRadius
	opts.Merge.StrokeColor = cfg.Merge.Stroke()
	opts.Merge.StrokeThickness = max(cfg.Outline.Thickness, 1)
	opts.Marker = cfg.Pedestal.Marker
	opts.MemoryLimit = int64(cfg.MemoryLimitMB) << 20
	return opts
}

// Coordinator owns one figure and the artifacts derived from it. Operations
// are only valid in certain states:
//
//	Empty      --LoadImage-->  Loaded
//	Loaded     --Outline-->    Outlined
//	Outlined   --Composite-->  Composited
//	Composited --Merge-->      Merged
//
// Re-running an earlier step from a later state discards everything after it.
// LoadImage is valid in every state and starts over.
type Coordinator struct {
	mu    sync.RWMutex
	state models.State
	opts  Options

	// Loaded
	original   *models.RasterImage
	silhouette *models.BinaryMask
	contour    models.Contour
	footprint  models.Footprint

	// Outlined
	params   models.Params
	ring     *models.BinaryMask
	outlined *models.RasterImage

	// Composited
	asset     *models.PedestalAsset
	placement *pedestal.Placement

	// Merged
	merged *merge.Result

	loader        *imageLoader
	saver         *imageSaver
	binarizer     *threshold.Binarizer
	extractor     *contour.Extractor
	locator       *footprint.Locator
	generator     *outline.Generator
	compositor    *pedestal.Compositor
	merger        *merge.Merger
	catalog       *pedestal.Catalog
	budget        *memory.Budget
	logger        logger.Logger
	timingTracker TimingTracker
}

func NewCoordinator(opts Options, catalog *pedestal.Catalog, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NewNop()
	}
	if catalog == nil {
		catalog = pedestal.NewCatalog("", nil, log)
	}
	tt := newTimingTracker(log)

	return &Coordinator{
		state:         models.StateEmpty,
		opts:          opts,
		loader:        &imageLoader{logger: log, timingTracker: tt},
		saver:         &imageSaver{logger: log, timingTracker: tt},
		binarizer:     threshold.NewBinarizer(opts.Threshold, log),
		extractor:     contour.NewExtractor(opts.Contour, log),
		locator:       footprint.NewLocator(opts.FootprintMargin, log),
		generator:     outline.NewGenerator(log),
		compositor:    pedestal.NewCompositor(log),
		merger:        merge.NewMerger(opts.Merge, log),
		catalog:       catalog,
		budget:        memory.NewBudget(opts.MemoryLimit),
		logger:        log,
		timingTracker: tt,
	}
}

func (c *Coordinator) LoadImage(reader io.Reader, name string) error {
	raster, err := c.loader.LoadFromReader(reader, name)
	if err != nil {
		return err
	}
	return c.SetImage(raster)
}

func (c *Coordinator) LoadFile(path string) error {
	raster, err := c.loader.LoadFromPath(path)
	if err != nil {
		return err
	}
	return c.SetImage(raster)
}

// SetImage takes ownership of raster and derives the silhouette, its contour
// and the footprint. On failure the previous state is kept and raster is
// closed.
func (c *Coordinator) SetImage(raster *models.RasterImage) error {
	ctx := c.timingTracker.StartTiming("analyze")
	defer c.timingTracker.EndTiming(ctx)

	mask, err := c.binarizer.Binarize(raster)
	if err != nil {
		raster.Close()
		return models.InputError("Binarizer", err)
	}
	defer mask.Close()

	if mask.Empty() {
		raster.Close()
		return models.InputError("Binarizer", models.ErrNoForeground)
	}

	extracted, err := c.extractor.Extract(mask)
	if err != nil {
		raster.Close()
		return err
	}

	fp, err := c.locator.Locate(extracted.Silhouette, extracted.Contour)
	if err != nil {
		extracted.Close()
		raster.Close()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.admitLocked(models.StateEmpty, raster.Mat, extracted.Silhouette.Mat); err != nil {
		extracted.Close()
		raster.Close()
		return err
	}
	c.original = raster
	c.silhouette = extracted.Silhouette
	c.contour = extracted.Contour
	c.footprint = fp
	c.state = models.StateLoaded

	c.logger.Info(componentName, "figure analyzed", map[string]interface{}{
		"width":    raster.Width(),
		"height":   raster.Height(),
		"points":   len(extracted.Contour),
		"center_x": fp.CenterX,
		"lowest_y": fp.LowestY,
	})

	return nil
}

// Outline draws the ring at the given distance and width.
func (c *Coordinator) Outline(gap, thickness int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state < models.StateLoaded {
		return c.stateErr("outline")
	}

	ctx := c.timingTracker.StartTiming("outline")
	defer c.timingTracker.EndTiming(ctx)

	res, err := c.generator.Generate(c.original, c.silhouette, gap, thickness)
	if err != nil {
		return err
	}

	if err := c.admitLocked(models.StateLoaded, res.Ring.Mat, res.Outlined.Mat); err != nil {
		res.Close()
		return err
	}
	c.ring = res.Ring
	c.outlined = res.Outlined
	c.params.Gap = gap
	c.params.Thickness = thickness
	c.state = models.StateOutlined

	return nil
}

// Composite attaches the named pedestal under the outlined figure. A missing
// asset file is logged and replaced by a placeholder.
func (c *Coordinator) Composite(pedestalName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state < models.StateOutlined {
		return c.stateErr("composite")
	}

	ctx := c.timingTracker.StartTiming("composite")
	defer c.timingTracker.EndTiming(ctx)

	asset, err := c.catalog.Get(pedestalName)
	if asset == nil {
		return err
	}
	if err != nil {
		c.logger.Warning(componentName, "pedestal asset degraded", map[string]interface{}{
			"pedestal": pedestalName,
			"error":    err.Error(),
		})
	}

	base := c.outlined
	if c.opts.Marker {
		marked, err := c.outlined.Clone()
		if err != nil {
			return err
		}
		defer marked.Close()
		pedestal.DrawMarker(marked.Mat, c.footprint.Anchor())
		base = marked
	}

	standoff := c.params.Gap + c.params.Thickness + asset.Spec.OverlapY
	placement, err := c.compositor.Composite(base, c.footprint, asset, standoff)
	if err != nil {
		return err
	}

	if err := c.admitLocked(models.StateOutlined, placement.Canvas.Mat); err != nil {
		placement.Close()
		return err
	}
	c.asset = asset
	c.placement = placement
	c.params.Pedestal = pedestalName
	c.state = models.StateComposited

	return nil
}

// Merge fuses the figure outline and the pedestal outline into one boundary.
func (c *Coordinator) Merge() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state < models.StateComposited {
		return c.stateErr("merge")
	}

	ctx := c.timingTracker.StartTiming("merge")
	defer c.timingTracker.EndTiming(ctx)

	canvas := c.placement.Canvas
	protectMat, err := PlaceMask(c.silhouette, c.placement.Offset, canvas.Width(), canvas.Height())
	if err != nil {
		return err
	}
	protect := &models.BinaryMask{Mat: protectMat}
	defer protect.Close()

	res, err := c.merger.Merge(canvas, protect)
	if err != nil {
		c.logger.Warning(componentName, "merge failed, try another gap or pedestal", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	if err := c.admitLocked(models.StateComposited, res.Canvas.Mat); err != nil {
		res.Close()
		return err
	}
	c.merged = res
	c.state = models.StateMerged

	return nil
}

// Run executes every step with params. It stops at the first error.
func (c *Coordinator) Run(params models.Params) error {
	if err := params.Validate(); err != nil {
		return models.InputError(componentName, err)
	}
	if err := c.Outline(params.Gap, params.Thickness); err != nil {
		return fmt.Errorf("outline: %w", err)
	}
	if err := c.Composite(params.Pedestal); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	if err := c.Merge(); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}

func (c *Coordinator) State() models.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) Footprint() (models.Footprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.footprint, c.state >= models.StateLoaded
}

// Boundary returns the unified outer boundary, or nil before Merge.
func (c *Coordinator) Boundary() models.Contour {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.merged == nil {
		return nil
	}
	return append(models.Contour(nil), c.merged.Contour...)
}

func (c *Coordinator) PedestalNames() []string {
	return c.catalog.Names()
}

// CurrentImage converts the newest artifact to a Go image. The result does
// not share memory with the coordinator.
func (c *Coordinator) CurrentImage() (image.Image, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.currentLocked()
	if current == nil {
		return nil, c.stateErr("display")
	}
	return conversion.MatToImage(current.Mat)
}

// CurrentBytes returns a copy of the newest artifact's BGRA buffer.
func (c *Coordinator) CurrentBytes() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.currentLocked()
	if current == nil {
		return nil, c.stateErr("read")
	}
	return current.Mat.Bytes()
}

func (c *Coordinator) SaveCurrent(writer io.Writer, format string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.currentLocked()
	if current == nil {
		return c.stateErr("save")
	}
	return c.saver.SaveToWriter(writer, current, format)
}

func (c *Coordinator) SaveCurrentToPath(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.currentLocked()
	if current == nil {
		return c.stateErr("save")
	}
	return c.saver.SaveToPath(path, current)
}

// ExportSVG writes the merged canvas with its cut line. Only valid once merged.
func (c *Coordinator) ExportSVG(writer io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != models.StateMerged {
		return c.stateErr("export")
	}
	return WriteSVG(writer, c.merged.Canvas, c.merged.Contour)
}

func (c *Coordinator) Metrics() RunMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	mem := c.budget.Stats()
	m := RunMetrics{
		State:       c.state.String(),
		HeldBytes:   mem.Held,
		PeakBytes:   mem.Peak,
		MemoryLimit: mem.Limit,
	}
	if c.state >= models.StateLoaded {
		m.Width = c.original.Width()
		m.Height = c.original.Height()
		m.Coverage = c.silhouette.Coverage()
		m.ContourPoints = len(c.contour)
		m.ContourArea = c.contour.Area()
		m.ContourPerimeter = c.contour.Perimeter()
		m.FootprintWidth = c.footprint.RightX - c.footprint.LeftX + 1
	}
	if c.state >= models.StateOutlined {
		m.RingPixels = c.ring.Count()
	}
	if c.state >= models.StateComposited {
		m.Pedestal = c.asset.Spec.Name
		m.Placeholder = c.asset.Placeholder
		m.Width = c.placement.Canvas.Width()
		m.Height = c.placement.Canvas.Height()
	}
	if c.state >= models.StateMerged {
		m.Intersections = len(c.merged.Intersections)
		m.BoundaryArea = c.merged.Contour.Area()
		containment, err := Containment(c.silhouette, c.placement.Offset, c.merged.Contour, m.Width, m.Height)
		if err == nil {
			m.Containment = containment
		}
	}
	return m
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(models.StateEmpty)
	c.state = models.StateEmpty
}

func (c *Coordinator) currentLocked() *models.RasterImage {
	switch c.state {
	case models.StateMerged:
		return c.merged.Canvas
	case models.StateComposited:
		return c.placement.Canvas
	case models.StateOutlined:
		return c.outlined
	case models.StateLoaded:
		return c.original
	default:
		return nil
	}
}

// admitLocked makes room for the artifacts of the state after keep: it drops
// everything after keep and registers mats. When mats would not fit even then,
// it fails before touching anything.
func (c *Coordinator) admitLocked(keep models.State, mats ...*safe.Mat) error {
	next := keep + 1
	var releasing []string
	for s := next; s <= models.StateMerged; s++ {
		releasing = append(releasing, s.String())
	}
	if err := c.budget.Fits(next.String(), memory.Size(mats...), releasing...); err != nil {
		return models.InputError(componentName, err)
	}

	c.resetLocked(keep)
	if err := c.budget.Reserve(next.String(), mats...); err != nil {
		return models.InputError(componentName, err)
	}
	return nil
}

// resetLocked drops every artifact produced after keep.
func (c *Coordinator) resetLocked(keep models.State) {
	for s := keep + 1; s <= models.StateMerged; s++ {
		c.budget.Release(s.String())
	}
	if keep < models.StateMerged {
		c.merged.Close()
		c.merged = nil
	}
	if keep < models.StateComposited {
		c.placement.Close()
		c.placement = nil
		c.asset = nil
	}
	if keep < models.StateOutlined {
		c.ring.Close()
		c.outlined.Close()
		c.ring, c.outlined = nil, nil
	}
	if keep < models.StateLoaded {
		c.silhouette.Close()
		c.original.Close()
		c.silhouette, c.original = nil, nil
		c.contour = nil
		c.footprint = models.Footprint{}
		c.params = models.Params{}
	}
	if c.state > keep {
		c.state = keep
	}
}

func (c *Coordinator) stateErr(operation string) error {
	return fmt.Errorf("%w: cannot %s in state %s", models.ErrInvalidState, operation, c.state)
}
