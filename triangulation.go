package mapalign

import (
	"fmt"

	"github.com/fogleman/delaunay"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// correspondenceMidpoints returns, for each index, the point halfway between
// the reference and robot correspondence points. Triangulating the midpoints
// instead of either map's raw points keeps one shared topology usable for
// both transform directions.
func correspondenceMidpoints(ref, robot []Point) []Point {
	mids := make([]Point, len(ref))
	for i := range ref {
		mids[i] = Point{
			X: ref[i].X + (robot[i].X-ref[i].X)/2,
			Y: ref[i].Y + (robot[i].Y-ref[i].Y)/2,
		}
	}
	return mids
}

// triangulateMidpoints runs a Delaunay triangulation over the midpoint set
// and returns triangles as index triples into the correspondence lists. The
// triangulation primitive reports vertex indices directly, so no coordinate
// matching against the midpoint set is needed. Fewer than three midpoints
// cannot form a triangle; every query then falls back to the map transform.
func triangulateMidpoints(mids []Point) ([]Triangle, error) {
	if len(mids) < 3 {
		return nil, nil
	}

	pts := make([]delaunay.Point, len(mids))
	for i, p := range mids {
		pts[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil, fmt.Errorf("%w: triangulating correspondence midpoints: %v", ErrInvalidDocument, err)
	}

	triangles := make([]Triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		triangles = append(triangles, Triangle{
			tri.Triangles[i],
			tri.Triangles[i+1],
			tri.Triangles[i+2],
		})
	}
	return triangles, nil
}

// triangleRing builds the closed polygon of a triangle in the coordinate
// space of the given correspondence list.
func triangleRing(tri Triangle, points []Point) orb.Ring {
	a := points[tri[0]]
	b := points[tri[1]]
	c := points[tri[2]]
	return orb.Ring{
		{a.X, a.Y},
		{b.X, b.Y},
		{c.X, c.Y},
		{a.X, a.Y},
	}
}

// containingTriangle returns the index of the first triangle whose polygon in
// the given point space contains p, or -1 if no triangle contains it. Points
// on an edge or vertex count as contained; a point on a shared edge resolves
// to the lowest triangle index, a deliberate and stable tie-break.
func containingTriangle(p Point, triangles []Triangle, points []Point) int {
	q := orb.Point{p.X, p.Y}
	for i, tri := range triangles {
		if planar.RingContains(triangleRing(tri, points), q) {
			return i
		}
	}
	return -1
}
