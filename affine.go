package mapalign

import (
	"fmt"
	"math"
)

// AffineMatrix for 2D transforms: x' = a*x + b*y + tx, y' = c*x + d*y + ty
type AffineMatrix struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	Tx float64 `json:"tx"`
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	Ty float64 `json:"ty"`
}

// Identity returns an identity matrix (no transformation)
func Identity() AffineMatrix {
	return AffineMatrix{A: 1, B: 0, Tx: 0, C: 0, D: 1, Ty: 0}
}

// Translation creates a translation-only transform
func Translation(tx, ty float64) AffineMatrix {
	return AffineMatrix{A: 1, B: 0, Tx: tx, C: 0, D: 1, Ty: ty}
}

// Rotation creates a rotation transform (angle in radians, around origin)
func Rotation(angle float64) AffineMatrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return AffineMatrix{A: cos, B: -sin, Tx: 0, C: sin, D: cos, Ty: 0}
}

// Scale creates a scaling transform
func Scale(sx, sy float64) AffineMatrix {
	return AffineMatrix{A: sx, B: 0, Tx: 0, C: 0, D: sy, Ty: 0}
}

// Apply transforms a point by the matrix
func (m AffineMatrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.Tx,
		Y: m.C*p.X + m.D*p.Y + m.Ty,
	}
}

// Multiply composes two affine transforms: applying the result is equivalent
// to applying n first, then m
func (m AffineMatrix) Multiply(n AffineMatrix) AffineMatrix {
	return AffineMatrix{
		A:  m.A*n.A + m.B*n.C,
		B:  m.A*n.B + m.B*n.D,
		Tx: m.A*n.Tx + m.B*n.Ty + m.Tx,
		C:  m.C*n.A + m.D*n.C,
		D:  m.C*n.B + m.D*n.D,
		Ty: m.C*n.Tx + m.D*n.Ty + m.Ty,
	}
}

// Invert computes the inverse of an affine transform. A singular matrix
// (determinant ~= 0) is an error, never silently corrected.
func (m AffineMatrix) Invert() (AffineMatrix, error) {
	det := m.A*m.D - m.B*m.C
	if math.Abs(det) < 1e-10 {
		return AffineMatrix{}, fmt.Errorf("%w: matrix is singular", ErrComputation)
	}

	invDet := 1.0 / det
	return AffineMatrix{
		A:  m.D * invDet,
		B:  -m.B * invDet,
		Tx: (m.B*m.Ty - m.D*m.Tx) * invDet,
		C:  -m.C * invDet,
		D:  m.A * invDet,
		Ty: (m.C*m.Tx - m.A*m.Ty) * invDet,
	}, nil
}

// det3 computes the determinant of a 3x3 matrix given row by row.
func det3(a, b, c, d, e, f, g, h, i float64) float64 {
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// AffineFromTriangles computes the unique affine transform mapping the src
// triangle onto the dst triangle, solving the 3-point-correspondence system
// (6 unknowns, 6 equations) with Cramer's rule. A degenerate (collinear) src
// triangle has no unique solution and is an error.
func AffineFromTriangles(src, dst [3]Point) (AffineMatrix, error) {
	x0, y0 := src[0].X, src[0].Y
	x1, y1 := src[1].X, src[1].Y
	x2, y2 := src[2].X, src[2].Y

	den := det3(x0, y0, 1, x1, y1, 1, x2, y2, 1)
	if math.Abs(den) < 1e-10 {
		return AffineMatrix{}, fmt.Errorf("%w: source triangle %v is degenerate", ErrComputation, src)
	}
	inv := 1.0 / den

	return AffineMatrix{
		A:  det3(dst[0].X, y0, 1, dst[1].X, y1, 1, dst[2].X, y2, 1) * inv,
		B:  det3(x0, dst[0].X, 1, x1, dst[1].X, 1, x2, dst[2].X, 1) * inv,
		Tx: det3(x0, y0, dst[0].X, x1, y1, dst[1].X, x2, y2, dst[2].X) * inv,
		C:  det3(dst[0].Y, y0, 1, dst[1].Y, y1, 1, dst[2].Y, y2, 1) * inv,
		D:  det3(x0, dst[0].Y, 1, x1, dst[1].Y, 1, x2, dst[2].Y, 1) * inv,
		Ty: det3(x0, y0, dst[0].Y, x1, y1, dst[1].Y, x2, y2, dst[2].Y) * inv,
	}, nil
}

// ToRef maps a robot-map point to reference-map coordinates using only the
// global map transform: scale first, then rotation, then translation.
func (m MapTransform) ToRef(p Point) Point {
	x := p.X * m.Scale.X
	y := p.Y * m.Scale.Y

	if m.Rotation != 0 {
		cos := math.Cos(m.Rotation)
		sin := math.Sin(m.Rotation)
		x, y = cos*x-sin*y, sin*x+cos*y
	}

	return Point{X: x + m.Translation.X, Y: y + m.Translation.Y}
}

// ToRobot maps a reference-map point to robot-map coordinates using only the
// global map transform. It is the exact inverse of ToRef: un-translate,
// rotate by the negated angle, then un-scale.
func (m MapTransform) ToRobot(p Point) Point {
	x := p.X - m.Translation.X
	y := p.Y - m.Translation.Y

	if m.Rotation != 0 {
		cos := math.Cos(-m.Rotation)
		sin := math.Sin(-m.Rotation)
		x, y = cos*x-sin*y, sin*x+cos*y
	}

	return Point{X: x / m.Scale.X, Y: y / m.Scale.Y}
}
