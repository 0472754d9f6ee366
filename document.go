package mapalign

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed map-description document. It carries the raw field
// values from the YAML; structural and semantic validation happens when the
// document is loaded into a Transformer.
type Document struct {
	RefMap   MapSection `yaml:"ref_map"`
	RobotMap MapSection `yaml:"robot_map"`
}

// MapSection describes one map in the document.
type MapSection struct {
	Name                 string            `yaml:"name"`
	ImageFile            string            `yaml:"image_file,omitempty"`
	Size                 []float64         `yaml:"size"`
	CorrespondencePoints [][]float64       `yaml:"correspondence_points"`
	Transform            *TransformSection `yaml:"transform,omitempty"` // robot_map only
}

// TransformSection is the optional global transform block of the robot map.
// Absent fields keep their defaults: scale (1,1), rotation 0, translation (0,0).
type TransformSection struct {
	Scale       []float64 `yaml:"scale"`
	Rotation    float64   `yaml:"rotation"`
	Translation []float64 `yaml:"translation"`
}

// ParseDocument parses a YAML map-description document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// pairToPoint converts a 2-element numeric sequence from the document.
func pairToPoint(section, field string, pair []float64) (Point, error) {
	if len(pair) != 2 {
		return Point{}, fmt.Errorf("%w: %s.%s must have exactly 2 elements, got %d",
			ErrInvalidDocument, section, field, len(pair))
	}
	return Point{X: pair[0], Y: pair[1]}, nil
}

// pairToVector converts a 2-element numeric sequence from the document.
func pairToVector(section, field string, pair []float64) (Vector, error) {
	p, err := pairToPoint(section, field, pair)
	if err != nil {
		return Vector{}, err
	}
	return Vector{X: p.X, Y: p.Y}, nil
}
