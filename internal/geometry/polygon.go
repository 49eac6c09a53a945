package geometry

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

const epsilon = 1e-9

// ConvexPolygon is a convex polygon stored as counter-clockwise vertices
// without repeated or collinear points. Fewer than three vertices describe
// a point or a segment.
//
// A polygon reuses its backing storage: setters never allocate once the
// capacity covers the number of points. It is not safe for concurrent use.
type ConvexPolygon struct {
	vertices []r2.Vec
	scratch  []r2.Vec
}

// NewConvexPolygon returns the convex hull of points.
func NewConvexPolygon(points ...r2.Vec) *ConvexPolygon {
	p := NewConvexPolygonWithCapacity(len(points))
	p.SetFromPoints(points)
	return p
}

func NewConvexPolygonWithCapacity(n int) *ConvexPolygon {
	return &ConvexPolygon{
		vertices: make([]r2.Vec, 0, n),
		scratch:  make([]r2.Vec, 0, 2*n+1),
	}
}

func (p *ConvexPolygon) Clear() {
	p.vertices = p.vertices[:0]
}

func (p *ConvexPolygon) IsEmpty() bool {
	return len(p.vertices) == 0
}

func (p *ConvexPolygon) NumberOfVertices() int {
	return len(p.vertices)
}

func (p *ConvexPolygon) Vertex(i int) r2.Vec {
	return p.vertices[i]
}

// Set copies src into p.
func (p *ConvexPolygon) Set(src *ConvexPolygon) {
	p.vertices = append(p.vertices[:0], src.vertices...)
}

// SetFromPoints replaces p with the convex hull of points (monotone chain).
func (p *ConvexPolygon) SetFromPoints(points []r2.Vec) {
	p.scratch = append(p.scratch[:0], points...)
	p.hullOfScratch()
}

// Combine sets p to the convex hull of the union of a and b.
func (p *ConvexPolygon) Combine(a, b *ConvexPolygon) {
	p.scratch = append(p.scratch[:0], a.vertices...)
	p.scratch = append(p.scratch, b.vertices...)
	p.hullOfScratch()
}

// SetTransformed sets p to src with every vertex moved from the pose frame into the parent frame.
func (p *ConvexPolygon) SetTransformed(src *ConvexPolygon, pose Pose2) {
	p.scratch = p.scratch[:0]
	for _, v := range src.vertices {
		p.scratch = append(p.scratch, pose.TransformPoint(v))
	}
	p.hullOfScratch()
}

func (p *ConvexPolygon) hullOfScratch() {
	pts := p.scratch
	n := len(pts)
	p.vertices = p.vertices[:0]
	if n == 0 {
		return
	}
	slices.SortFunc(pts, func(a, b r2.Vec) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		}
		return 0
	})
	pts = slices.CompactFunc(pts, func(a, b r2.Vec) bool {
		return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
	})
	n = len(pts)
	if n < 3 {
		p.vertices = append(p.vertices, pts...)
		return
	}

	// lower hull
	for i := 0; i < n; i++ {
		for len(p.vertices) >= 2 && turn(p.vertices[len(p.vertices)-2], p.vertices[len(p.vertices)-1], pts[i]) <= epsilon {
			p.vertices = p.vertices[:len(p.vertices)-1]
		}
		p.vertices = append(p.vertices, pts[i])
	}
	// upper hull
	lower := len(p.vertices) + 1
	for i := n - 2; i >= 0; i-- {
		for len(p.vertices) >= lower && turn(p.vertices[len(p.vertices)-2], p.vertices[len(p.vertices)-1], pts[i]) <= epsilon {
			p.vertices = p.vertices[:len(p.vertices)-1]
		}
		p.vertices = append(p.vertices, pts[i])
	}
	p.vertices = p.vertices[:len(p.vertices)-1]
}

func turn(o, a, b r2.Vec) float64 {
	return r2.Cross(r2.Sub(a, o), r2.Sub(b, o))
}

func (p *ConvexPolygon) Area() float64 {
	n := len(p.vertices)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		area += r2.Cross(p.vertices[i], p.vertices[(i+1)%n])
	}
	return 0.5 * area
}

func (p *ConvexPolygon) Centroid() r2.Vec {
	n := len(p.vertices)
	switch n {
	case 0:
		return NaNVec()
	case 1, 2:
		var c r2.Vec
		for _, v := range p.vertices {
			c = r2.Add(c, v)
		}
		return r2.Scale(1/float64(n), c)
	}
	var c r2.Vec
	area := 0.0
	for i := 0; i < n; i++ {
		a, b := p.vertices[i], p.vertices[(i+1)%n]
		cross := r2.Cross(a, b)
		area += cross
		c = r2.Add(c, r2.Scale(cross, r2.Add(a, b)))
	}
	return r2.Scale(1/(3*area), c)
}

// NumberOfHalfPlanes is the number of rows HalfPlane can describe.
func (p *ConvexPolygon) NumberOfHalfPlanes() int {
	switch n := len(p.vertices); n {
	case 0:
		return 0
	case 1, 2:
		return 4
	default:
		return n
	}
}

// HalfPlane returns the i-th inequality normal·x ≤ offset of the region.
// For a point or a segment the four rows pin the region down exactly.
func (p *ConvexPolygon) HalfPlane(i int) (normal r2.Vec, offset float64) {
	switch len(p.vertices) {
	case 1:
		v := p.vertices[0]
		switch i {
		case 0:
			return r2.Vec{X: 1}, v.X
		case 1:
			return r2.Vec{X: -1}, -v.X
		case 2:
			return r2.Vec{Y: 1}, v.Y
		default:
			return r2.Vec{Y: -1}, -v.Y
		}
	case 2:
		a, b := p.vertices[0], p.vertices[1]
		d := r2.Unit(r2.Sub(b, a))
		nrm := r2.Vec{X: d.Y, Y: -d.X}
		switch i {
		case 0:
			return nrm, r2.Dot(nrm, a)
		case 1:
			return r2.Scale(-1, nrm), -r2.Dot(nrm, a)
		case 2:
			return d, r2.Dot(d, b)
		default:
			return r2.Scale(-1, d), -r2.Dot(d, a)
		}
	}
	a := p.vertices[i]
	b := p.vertices[(i+1)%len(p.vertices)]
	d := r2.Unit(r2.Sub(b, a))
	// CCW order: the outward normal points to the right of the edge direction.
	normal = r2.Vec{X: d.Y, Y: -d.X}
	return normal, r2.Dot(normal, a)
}

// Contains reports whether q is inside p or within tolerance of its boundary.
func (p *ConvexPolygon) Contains(q r2.Vec, tolerance float64) bool {
	if len(p.vertices) == 0 {
		return false
	}
	for i := 0; i < p.NumberOfHalfPlanes(); i++ {
		n, b := p.HalfPlane(i)
		if r2.Dot(n, q) > b+tolerance {
			return false
		}
	}
	return true
}

// Project returns the point of p closest to q.
func (p *ConvexPolygon) Project(q r2.Vec) r2.Vec {
	n := len(p.vertices)
	switch {
	case n == 0:
		return q
	case n == 1:
		return p.vertices[0]
	case n >= 3 && p.Contains(q, 0):
		return q
	}
	best := p.vertices[0]
	bestDist := math.Inf(1)
	edges := n
	if n == 2 {
		edges = 1
	}
	for i := 0; i < edges; i++ {
		c := closestOnSegment(p.vertices[i], p.vertices[(i+1)%n], q)
		if d := r2.Norm2(r2.Sub(c, q)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func closestOnSegment(a, b, q r2.Vec) r2.Vec {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 < epsilon*epsilon {
		return a
	}
	t := r2.Dot(r2.Sub(q, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(a, r2.Scale(t, ab))
}

// ShrinkInto writes into dst the polygon whose edges are moved inward by distance.
// When the polygon is too small to shrink it collapses onto its centroid.
func (p *ConvexPolygon) ShrinkInto(dst *ConvexPolygon, distance float64) {
	n := len(p.vertices)
	if n < 3 || distance <= 0 {
		dst.Set(p)
		if n > 0 && n < 3 && distance > 0 {
			c := p.Centroid()
			dst.vertices = append(dst.vertices[:0], c)
		}
		return
	}
	dst.scratch = dst.scratch[:0]
	for i := 0; i < n; i++ {
		prev := (i + n - 1) % n
		n0, b0 := p.HalfPlane(prev)
		n1, b1 := p.HalfPlane(i)
		v, ok := intersectLines(n0, b0-distance, n1, b1-distance)
		if !ok {
			continue
		}
		inside := true
		for j := 0; j < n; j++ {
			nj, bj := p.HalfPlane(j)
			if r2.Dot(nj, v) > bj-distance+1e-7 {
				inside = false
				break
			}
		}
		if inside {
			dst.scratch = append(dst.scratch, v)
		}
	}
	if len(dst.scratch) == 0 {
		dst.vertices = append(dst.vertices[:0], p.Centroid())
		return
	}
	dst.hullOfScratch()
}

func intersectLines(n0 r2.Vec, b0 float64, n1 r2.Vec, b1 float64) (r2.Vec, bool) {
	det := n0.X*n1.Y - n0.Y*n1.X
	if math.Abs(det) < epsilon {
		return r2.Vec{}, false
	}
	return r2.Vec{
		X: (b0*n1.Y - n0.Y*b1) / det,
		Y: (n0.X*b1 - b0*n1.X) / det,
	}, true
}
