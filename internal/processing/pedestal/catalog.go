package pedestal

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/opencv/conversion"

	"github.com/disintegration/imaging"
)

const catalogComponent = "PedestalCatalog"

// DefaultSpecs is the built-in catalog. Sizes are the rendered pixel size of
// each base; names are the nominal acrylic thickness.
func DefaultSpecs() []models.PedestalSpec {
	return []models.PedestalSpec{
		{Name: "11mm", File: "base_11mm.png", Width: 180, Height: 60, OverlapY: -10},
		{Name: "16mm", File: "base_16mm.png", Width: 220, Height: 80, OverlapY: -15},
		{Name: "20mm", File: "base_20mm.png", Width: 260, Height: 100, OverlapY: -20},
	}
}

// Catalog resolves pedestal names to pixels. Loaded assets are cached for the
// lifetime of the catalog and must not be modified by callers.
type Catalog struct {
	mu       sync.RWMutex
	specs    map[string]models.PedestalSpec
	assetDir string
	assets   map[string]*models.PedestalAsset
	logger   logger.Logger
}

func NewCatalog(assetDir string, specs []models.PedestalSpec, log logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewNop()
	}
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}

	byName := make(map[string]models.PedestalSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	return &Catalog{
		specs:    byName,
		assetDir: assetDir,
		assets:   make(map[string]*models.PedestalAsset),
		logger:   log,
	}
}

// Names lists catalog entries sorted by name.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.specs))
	for name := range c.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Spec(name string) (models.PedestalSpec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// Get returns the asset for name. An unknown name is an input error and
// returns no asset. When the file is missing or unreadable Get returns a
// placeholder together with an asset error; callers may continue with it.
func (c *Catalog) Get(name string) (*models.PedestalAsset, error) {
	spec, ok := c.specs[name]
	if !ok {
		return nil, models.InputError(catalogComponent, fmt.Errorf("%w: %q", models.ErrUnknownPedestal, name))
	}

	c.mu.RLock()
	if asset, ok := c.assets[name]; ok {
		c.mu.RUnlock()
		return asset, c.assetErr(asset)
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if asset, ok := c.assets[name]; ok {
		return asset, c.assetErr(asset)
	}

	asset, loadErr := c.load(spec)
	if loadErr != nil {
		c.logger.Warning(catalogComponent, "using placeholder pedestal", map[string]interface{}{
			"pedestal": name,
			"error":    loadErr.Error(),
		})

		placeholder, err := Placeholder(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to draw placeholder: %w", err)
		}
		asset = &models.PedestalAsset{Spec: spec, Image: placeholder, Placeholder: true}
	}

	c.assets[name] = asset
	return asset, c.assetErr(asset)
}

func (c *Catalog) assetErr(asset *models.PedestalAsset) error {
	if !asset.Placeholder {
		return nil
	}
	return models.AssetError(catalogComponent, fmt.Errorf("%w: %s", models.ErrAssetUnavailable, asset.Spec.Name))
}

func (c *Catalog) load(spec models.PedestalSpec) (*models.PedestalAsset, error) {
	if spec.File == "" {
		return nil, fmt.Errorf("no asset file configured")
	}

	path := spec.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.assetDir, path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	mat, err := conversion.ImageToBGRA(img)
	if err != nil {
		return nil, err
	}

	if spec.Width > 0 && spec.Height > 0 && (mat.Cols() != spec.Width || mat.Rows() != spec.Height) {
		resized, err := conversion.ResizeMat(mat, spec.Width, spec.Height)
		mat.Close()
		if err != nil {
			return nil, err
		}
		mat = resized
	}

	c.logger.Info(catalogComponent, "pedestal asset loaded", map[string]interface{}{
		"pedestal": spec.Name,
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	})

	return &models.PedestalAsset{Spec: spec, Image: mat}, nil
}

// Close frees every cached asset.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, asset := range c.assets {
		asset.Image.Close()
		delete(c.assets, name)
	}
}

