package mapalign

// Point is a 2D coordinate. Equality is exact component-wise comparison;
// the correspondence-point shortcut in the query path relies on it.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Vector is a 2D extent or scale factor. Same representation as Point,
// different semantic role.
type Vector struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Triangle holds three indices into the correspondence point lists. The
// reference and robot lists are index-aligned, so one triple addresses a
// triangle in either map.
type Triangle [3]int

// MapInfo describes one loaded map.
type MapInfo struct {
	Name      string `json:"name"`
	ImageFile string `json:"imageFile,omitempty"` // empty means no image
	Size      Vector `json:"size"`
}

// MapTransform is the global scale, rotation and translation relating
// robot-map coordinates to reference-map coordinates. It is applied as
// scale first, then rotation, then translation, and serves as the fallback
// for points outside the triangulated region.
type MapTransform struct {
	Scale       Vector  `json:"scale"`
	Rotation    float64 `json:"rotation"` // radians, positive is counter-clockwise
	Translation Point   `json:"translation"`
}

// DefaultMapTransform returns the transform of two perfectly aligned maps.
func DefaultMapTransform() MapTransform {
	return MapTransform{Scale: Vector{X: 1, Y: 1}}
}
