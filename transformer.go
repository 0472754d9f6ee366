// Package mapalign transforms 2D points between a reference map and a robot
// map that are related by a global affine transform plus a local
// piecewise-affine correction built from hand-specified correspondence
// points. The correction is exact at correspondence points, interpolated
// inside the Delaunay triangulation of the correspondence midpoints, and
// falls back to the global transform outside it.
package mapalign

import (
	"fmt"
	"math"
)

// Transformer maps points between a reference map and a robot map.
//
// A Transformer starts empty. Load populates it from a map document and
// precomputes the triangulation and per-triangle transforms; Reset returns it
// to the empty state. Accessors and queries fail with ErrNotLoaded while
// empty. After a successful Load all state is read-only, so queries and
// accessors may be called concurrently from multiple goroutines; Load and
// Reset provide no internal locking and must not race with queries on the
// same instance.
type Transformer struct {
	refMap       MapInfo
	robotMap     MapInfo
	mapTransform MapTransform

	refPoints   []Point
	robotPoints []Point

	// Precomputed at load time, immutable afterwards.
	triangles []Triangle
	toRef     []AffineMatrix
	toRobot   []AffineMatrix
}

// New returns an empty Transformer.
func New() *Transformer {
	return &Transformer{mapTransform: DefaultMapTransform()}
}

// empty reports whether every field is at its documented default.
func (t *Transformer) empty() bool {
	return t.refMap == (MapInfo{}) &&
		t.robotMap == (MapInfo{}) &&
		t.mapTransform == DefaultMapTransform() &&
		len(t.refPoints) == 0 &&
		len(t.robotPoints) == 0 &&
		len(t.triangles) == 0
}

// Load parses a YAML map document and loads it. The transformer must be
// empty; call Reset first to reuse an instance. The lifecycle check comes
// before parsing, so a non-empty transformer reports ErrAlreadyLoaded no
// matter what the document contains. On any failure the transformer is left
// untouched.
func (t *Transformer) Load(yamlDoc []byte) error {
	if !t.empty() {
		return ErrAlreadyLoaded
	}
	doc, err := ParseDocument(yamlDoc)
	if err != nil {
		return err
	}
	return t.LoadDocument(doc)
}

// LoadDocument loads an already parsed map document. A staged copy is built,
// validated in full and precomputed before being swapped into the receiver,
// so a failed load never leaves partially loaded state behind.
func (t *Transformer) LoadDocument(doc *Document) error {
	if !t.empty() {
		return ErrAlreadyLoaded
	}

	staged, err := stage(doc)
	if err != nil {
		return err
	}
	if err := staged.validate(); err != nil {
		return err
	}
	if err := staged.precalculate(); err != nil {
		return err
	}

	*t = *staged
	return nil
}

// Reset returns the transformer to the empty state, discarding all loaded
// and precomputed data. It always succeeds.
func (t *Transformer) Reset() {
	*t = Transformer{mapTransform: DefaultMapTransform()}
}

// stage builds an unvalidated candidate transformer from a parsed document.
func stage(doc *Document) (*Transformer, error) {
	staged := New()

	var err error
	staged.refMap, staged.refPoints, err = stageSection("ref_map", &doc.RefMap)
	if err != nil {
		return nil, err
	}
	staged.robotMap, staged.robotPoints, err = stageSection("robot_map", &doc.RobotMap)
	if err != nil {
		return nil, err
	}

	if tr := doc.RobotMap.Transform; tr != nil {
		if tr.Scale != nil {
			staged.mapTransform.Scale, err = pairToVector("robot_map", "transform.scale", tr.Scale)
			if err != nil {
				return nil, err
			}
		}
		staged.mapTransform.Rotation = tr.Rotation
		if tr.Translation != nil {
			staged.mapTransform.Translation, err = pairToPoint("robot_map", "transform.translation", tr.Translation)
			if err != nil {
				return nil, err
			}
		}
	}

	return staged, nil
}

// stageSection converts one document section into typed values.
func stageSection(section string, s *MapSection) (MapInfo, []Point, error) {
	size, err := pairToVector(section, "size", s.Size)
	if err != nil {
		return MapInfo{}, nil, err
	}

	points := make([]Point, len(s.CorrespondencePoints))
	for i, pair := range s.CorrespondencePoints {
		points[i], err = pairToPoint(section, fmt.Sprintf("correspondence_points[%d]", i), pair)
		if err != nil {
			return MapInfo{}, nil, err
		}
	}

	info := MapInfo{Name: s.Name, ImageFile: s.ImageFile, Size: size}
	return info, points, nil
}

// precalculate triangulates the correspondence midpoints and solves each
// triangle's affine transform in both directions. Runs once per load.
func (t *Transformer) precalculate() error {
	triangles, err := triangulateMidpoints(correspondenceMidpoints(t.refPoints, t.robotPoints))
	if err != nil {
		return err
	}

	t.triangles = triangles
	t.toRef = make([]AffineMatrix, len(triangles))
	t.toRobot = make([]AffineMatrix, len(triangles))
	for i, tri := range triangles {
		refTri := [3]Point{t.refPoints[tri[0]], t.refPoints[tri[1]], t.refPoints[tri[2]]}
		robotTri := [3]Point{t.robotPoints[tri[0]], t.robotPoints[tri[1]], t.robotPoints[tri[2]]}

		if t.toRef[i], err = AffineFromTriangles(robotTri, refTri); err != nil {
			return err
		}
		if t.toRobot[i], err = AffineFromTriangles(refTri, robotTri); err != nil {
			return err
		}
	}
	return nil
}

// ToRef transforms a robot-map point to its equivalent reference-map point.
//
// A point equal to a robot correspondence point maps exactly to its paired
// reference point. Otherwise the point is transformed by the affine
// transform of the first triangle containing it, or, outside the
// triangulated region, by the global map transform alone. In the fallback
// case the result should not be assumed geometrically accurate.
func (t *Transformer) ToRef(p Point) (Point, error) {
	if t.empty() {
		return Point{}, ErrNotLoaded
	}

	if i := pointIndex(p, t.robotPoints); i >= 0 {
		return t.refPoints[i], nil
	}
	if i := containingTriangle(p, t.triangles, t.robotPoints); i >= 0 {
		return t.toRef[i].Apply(p), nil
	}
	return t.mapTransform.ToRef(p), nil
}

// ToRobot transforms a reference-map point to its equivalent robot-map
// point. The resolution order mirrors ToRef with the two maps swapped.
func (t *Transformer) ToRobot(p Point) (Point, error) {
	if t.empty() {
		return Point{}, ErrNotLoaded
	}

	if i := pointIndex(p, t.refPoints); i >= 0 {
		return t.robotPoints[i], nil
	}
	if i := containingTriangle(p, t.triangles, t.refPoints); i >= 0 {
		return t.toRobot[i].Apply(p), nil
	}
	return t.mapTransform.ToRobot(p), nil
}

// pointIndex returns the index of the first exact component-wise match of p
// in points, or -1.
func pointIndex(p Point, points []Point) int {
	for i, q := range points {
		if q == p {
			return i
		}
	}
	return -1
}

// RefMap returns the reference map descriptor.
func (t *Transformer) RefMap() (MapInfo, error) {
	if t.empty() {
		return MapInfo{}, ErrNotLoaded
	}
	return t.refMap, nil
}

// RobotMap returns the robot map descriptor.
func (t *Transformer) RobotMap() (MapInfo, error) {
	if t.empty() {
		return MapInfo{}, ErrNotLoaded
	}
	return t.robotMap, nil
}

// MapTransform returns the global transform relating the robot map to the
// reference map.
func (t *Transformer) MapTransform() (MapTransform, error) {
	if t.empty() {
		return MapTransform{}, ErrNotLoaded
	}
	return t.mapTransform, nil
}

// RefCorrPoints returns the reference-map correspondence points. Entry i
// pairs with entry i of RobotCorrPoints. Callers must not modify the slice.
func (t *Transformer) RefCorrPoints() ([]Point, error) {
	if t.empty() {
		return nil, ErrNotLoaded
	}
	return t.refPoints, nil
}

// RobotCorrPoints returns the robot-map correspondence points. Entry i pairs
// with entry i of RefCorrPoints. Callers must not modify the slice.
func (t *Transformer) RobotCorrPoints() ([]Point, error) {
	if t.empty() {
		return nil, ErrNotLoaded
	}
	return t.robotPoints, nil
}

// TriangleIndices returns the Delaunay triangles as index triples into the
// correspondence point lists, mainly for visualisation and debugging.
// Callers must not modify the slice.
func (t *Transformer) TriangleIndices() ([]Triangle, error) {
	if t.empty() {
		return nil, ErrNotLoaded
	}
	return t.triangles, nil
}

// BoundingBox returns the top-left and bottom-right corners of the box
// covering both maps, with the robot map placed at its translation offset.
func (t *Transformer) BoundingBox() (Point, Point, error) {
	if t.empty() {
		return Point{}, Point{}, ErrNotLoaded
	}

	tr := t.mapTransform.Translation
	topLeft := Point{
		X: math.Min(0, tr.X),
		Y: math.Min(0, tr.Y),
	}
	bottomRight := Point{
		X: math.Max(t.refMap.Size.X, t.robotMap.Size.X+tr.X),
		Y: math.Max(t.refMap.Size.Y, t.robotMap.Size.Y+tr.Y),
	}
	return topLeft, bottomRight, nil
}
