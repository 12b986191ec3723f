// Package geometry defines the contract with the external mesh-processing
// collaborator. The core never implements mesh math itself; it only
// consumes analysis results and validates file formats on the way in.
package geometry

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrFormatNotSupported is returned for file formats the analyzer
	// cannot process.
	ErrFormatNotSupported = errors.New("file format not supported for analysis")

	// ErrAnalyzerUnavailable is returned by UnavailableAnalyzer when no
	// mesh-processing implementation is wired in.
	ErrAnalyzerUnavailable = errors.New("geometry analyzer unavailable")
)

// uploadExtensions are the model formats accepted for upload. STEP, IGES
// and 3MF are stored but not analyzable; their analysis support lives
// behind the collaborator.
var uploadExtensions = map[string]struct{}{
	".stl": {}, ".obj": {}, ".ply": {},
	".step": {}, ".stp": {},
	".iges": {}, ".igs": {},
	".3mf": {},
}

// SupportedUploadExtension reports whether filename has an accepted model
// file extension. Matching is case-insensitive.
func SupportedUploadExtension(filename string) bool {
	_, ok := uploadExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// BoundingBox is the axis-aligned extent of a mesh in millimetres.
type BoundingBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	MinZ   float64 `json:"min_z"`
	MaxX   float64 `json:"max_x"`
	MaxY   float64 `json:"max_y"`
	MaxZ   float64 `json:"max_z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Analysis is the measurement set produced for one model file.
type Analysis struct {
	Volume        float64     `json:"volume"`       // cm³
	SurfaceArea   float64     `json:"surface_area"` // cm²
	BoundingBox   BoundingBox `json:"bounding_box"`
	TriangleCount int         `json:"triangle_count"`
	VertexCount   int         `json:"vertex_count"`
	IsWatertight  bool        `json:"is_watertight"`
	HasHoles      bool        `json:"has_holes"`
	Units         string      `json:"units"`
}

// Analyzer is implemented by the external mesh-processing collaborator.
type Analyzer interface {
	// Analyze measures a model file's geometry. Implementations return
	// ErrFormatNotSupported for formats they cannot parse.
	Analyze(data []byte, filename string) (*Analysis, error)
}

// UnavailableAnalyzer is the placeholder wired in when no mesh library is
// present. Uploads still succeed; responses just omit the analysis.
type UnavailableAnalyzer struct{}

// Analyze always reports the analyzer as unavailable.
func (UnavailableAnalyzer) Analyze(data []byte, filename string) (*Analysis, error) {
	return nil, ErrAnalyzerUnavailable
}
