package models

import "figure-stand/internal/opencv/safe"

// PedestalSpec is one catalog entry: a nominal size name and the rendered
// dimensions that size is drawn at.
type PedestalSpec struct {
	Name   string `mapstructure:"name" json:"name"`
	File   string `mapstructure:"file" json:"file"`
	Width  int    `mapstructure:"width" json:"width"`
	Height int    `mapstructure:"height" json:"height"`

	// OverlapY shifts the pedestal top relative to the outline's lower edge.
	// Negative values pull it up so the two shapes overlap.
	OverlapY int `mapstructure:"overlap_y" json:"overlap_y"`
}

// PedestalAsset is a catalog entry resolved to pixels (BGRA).
type PedestalAsset struct {
	Spec  PedestalSpec
	Image *safe.Mat

	// Placeholder is set when the asset file could not be used and a plain
	// shape was drawn instead.
	Placeholder bool
}

func (p *PedestalAsset) Width() int  { return p.Image.Cols() }
func (p *PedestalAsset) Height() int { return p.Image.Rows() }
