package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func square(half float64) *ConvexPolygon {
	return NewConvexPolygon(
		r2.Vec{X: half, Y: half},
		r2.Vec{X: -half, Y: half},
		r2.Vec{X: -half, Y: -half},
		r2.Vec{X: half, Y: -half},
	)
}

func TestConvexHull(t *testing.T) {
	tests := []struct {
		name     string
		points   []r2.Vec
		vertices int
		area     float64
	}{
		{"empty", nil, 0, 0},
		{"point", []r2.Vec{{X: 1, Y: 1}}, 1, 0},
		{"duplicate points", []r2.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}}, 1, 0},
		{"segment", []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}}, 2, 0},
		{"triangle", []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, 3, 0.5},
		{"square with interior point", []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5}}, 4, 1},
		{"collinear edge point", []r2.Vec{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewConvexPolygon(tt.points...)
			if p.NumberOfVertices() != tt.vertices {
				t.Errorf("vertices = %d, want %d", p.NumberOfVertices(), tt.vertices)
			}
			if math.Abs(p.Area()-tt.area) > 1e-12 {
				t.Errorf("area = %f, want %f", p.Area(), tt.area)
			}
		})
	}
}

func TestCentroid(t *testing.T) {
	p := NewConvexPolygon(r2.Vec{X: 1, Y: 1}, r2.Vec{X: 3, Y: 1}, r2.Vec{X: 3, Y: 2}, r2.Vec{X: 1, Y: 2})
	c := p.Centroid()
	if math.Abs(c.X-2) > 1e-12 || math.Abs(c.Y-1.5) > 1e-12 {
		t.Errorf("centroid = %v, want (2, 1.5)", c)
	}
}

func TestContains(t *testing.T) {
	p := square(0.1)
	tests := []struct {
		q    r2.Vec
		want bool
	}{
		{r2.Vec{}, true},
		{r2.Vec{X: 0.1, Y: 0.1}, true},
		{r2.Vec{X: 0.11}, false},
		{r2.Vec{Y: -0.2}, false},
	}
	for _, tt := range tests {
		if got := p.Contains(tt.q, 1e-9); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestHalfPlanesDescribeRegion(t *testing.T) {
	for _, p := range []*ConvexPolygon{
		square(0.5),
		NewConvexPolygon(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}),
		NewConvexPolygon(r2.Vec{X: 0.3, Y: -0.2}),
	} {
		for i := 0; i < p.NumberOfVertices(); i++ {
			v := p.Vertex(i)
			for j := 0; j < p.NumberOfHalfPlanes(); j++ {
				n, b := p.HalfPlane(j)
				if r2.Dot(n, v) > b+1e-9 {
					t.Errorf("vertex %v violates half plane %d", v, j)
				}
			}
		}
	}
}

func TestShrink(t *testing.T) {
	p := square(0.1)
	shrunk := NewConvexPolygonWithCapacity(8)
	p.ShrinkInto(shrunk, 0.02)

	if shrunk.NumberOfVertices() != 4 {
		t.Fatalf("expected 4 vertices, got %d", shrunk.NumberOfVertices())
	}
	if math.Abs(shrunk.Area()-0.16*0.16) > 1e-9 {
		t.Errorf("area = %f, want %f", shrunk.Area(), 0.16*0.16)
	}

	p.ShrinkInto(shrunk, 0.5)
	if shrunk.NumberOfVertices() != 1 {
		t.Fatalf("expected collapse to a point, got %d vertices", shrunk.NumberOfVertices())
	}
	if r2.Norm(shrunk.Vertex(0)) > 1e-9 {
		t.Errorf("collapsed point = %v, want origin", shrunk.Vertex(0))
	}
}

func TestProject(t *testing.T) {
	p := square(0.1)
	tests := []struct {
		q, want r2.Vec
	}{
		{r2.Vec{X: 0.05}, r2.Vec{X: 0.05}},
		{r2.Vec{X: 0.3}, r2.Vec{X: 0.1}},
		{r2.Vec{X: 0.3, Y: 0.3}, r2.Vec{X: 0.1, Y: 0.1}},
		{r2.Vec{Y: -1}, r2.Vec{Y: -0.1}},
	}
	for _, tt := range tests {
		got := p.Project(tt.q)
		if r2.Norm(r2.Sub(got, tt.want)) > 1e-9 {
			t.Errorf("Project(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestCombineAndTransform(t *testing.T) {
	foot := square(0.1)
	left := NewConvexPolygonWithCapacity(4)
	right := NewConvexPolygonWithCapacity(4)
	left.SetTransformed(foot, Pose2{Y: 0.15})
	right.SetTransformed(foot, Pose2{Y: -0.15})

	both := NewConvexPolygonWithCapacity(8)
	both.Combine(left, right)

	if both.NumberOfVertices() != 4 {
		t.Fatalf("expected 4 vertices, got %d", both.NumberOfVertices())
	}
	if math.Abs(both.Area()-0.2*0.5) > 1e-9 {
		t.Errorf("area = %f, want %f", both.Area(), 0.1)
	}
	if !both.Contains(r2.Vec{}, 0) {
		t.Error("combined polygon should contain the midpoint between the feet")
	}
}

func TestPoseTransforms(t *testing.T) {
	pose := Pose2{X: 1, Y: 2, Yaw: math.Pi / 2}
	world := pose.TransformPoint(r2.Vec{X: 1})
	if r2.Norm(r2.Sub(world, r2.Vec{X: 1, Y: 3})) > 1e-12 {
		t.Errorf("TransformPoint = %v, want (1, 3)", world)
	}
	local := pose.InverseTransformPoint(world)
	if r2.Norm(r2.Sub(local, r2.Vec{X: 1})) > 1e-12 {
		t.Errorf("InverseTransformPoint = %v, want (1, 0)", local)
	}
	if (Pose2{X: math.NaN()}).IsFinite() {
		t.Error("NaN pose reported finite")
	}
}

func TestRotatedDiagonal(t *testing.T) {
	m := RotatedDiagonal(math.Pi/2, 2, 5)
	if math.Abs(m.XX-5) > 1e-12 || math.Abs(m.YY-2) > 1e-12 || math.Abs(m.XY) > 1e-12 {
		t.Errorf("RotatedDiagonal = %+v", m)
	}
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	v := inv.MulVec(m.MulVec(r2.Vec{X: 0.3, Y: -0.7}))
	if r2.Norm(r2.Sub(v, r2.Vec{X: 0.3, Y: -0.7})) > 1e-12 {
		t.Errorf("inverse round trip = %v", v)
	}
}
