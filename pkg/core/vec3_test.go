package core

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	tests := []struct {
		name     string
		got      Vec3
		expected Vec3
	}{
		{"Add", a.Add(b), NewVec3(5, -3, 9)},
		{"Subtract", a.Subtract(b), NewVec3(-3, 7, -3)},
		{"Multiply", a.Multiply(2), NewVec3(2, 4, 6)},
		{"Divide", b.Divide(2), NewVec3(2, -2.5, 3)},
		{"MultiplyVec", a.MultiplyVec(b), NewVec3(4, -10, 18)},
		{"DivideVec", b.DivideVec(a), NewVec3(4, -2.5, 2)},
		{"Negate", a.Negate(), NewVec3(-1, -2, -3)},
		{"Cross", NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)), NewVec3(0, 0, 1)},
		{"Sqrt", NewVec3(4, 9, 0.25).Sqrt(), NewVec3(2, 3, 0.5)},
		{"Clamp", NewVec3(-1, 0.5, 2).Clamp(0, 1), NewVec3(0, 0.5, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, tt.got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestVec3DotAndLength(t *testing.T) {
	v := NewVec3(3, 4, 12)

	if got := v.Dot(NewVec3(1, 1, 1)); got != 19 {
		t.Errorf("Dot: expected 19, got %f", got)
	}
	if got := v.LengthSquared(); got != 169 {
		t.Errorf("LengthSquared: expected 169, got %f", got)
	}
	if got := v.Length(); got != 13 {
		t.Errorf("Length: expected 13, got %f", got)
	}

	unit := v.Normalize()
	if math.Abs(unit.Length()-1) > 1e-12 {
		t.Errorf("Normalize should produce unit length, got %f", unit.Length())
	}
	if unit.Dot(v) <= 0 {
		t.Errorf("Normalize should preserve direction, got %v", unit)
	}
}

func TestCrossIsOrthogonal(t *testing.T) {
	a := NewVec3(0.3, -1.2, 2.5)
	b := NewVec3(-4, 0.1, 0.7)
	c := a.Cross(b)

	if math.Abs(c.Dot(a)) > 1e-12 || math.Abs(c.Dot(b)) > 1e-12 {
		t.Errorf("Cross product should be orthogonal to both inputs, got %v", c)
	}
}

func TestRayAt(t *testing.T) {
	ray := NewRay(NewVec3(1, 1, 1), NewVec3(0, 0, -2))

	if got := ray.At(0); got != ray.Origin {
		t.Errorf("At(0) should be the origin, got %v", got)
	}
	if got, want := ray.At(1.5), NewVec3(1, 1, -2); got != want {
		t.Errorf("At(1.5): expected %v, got %v", want, got)
	}
}

func TestLuminance(t *testing.T) {
	if got := NewVec3(1, 1, 1).Luminance(); math.Abs(got-1) > 1e-12 {
		t.Errorf("White luminance should be 1, got %f", got)
	}
	if !(Vec3{}).IsZero() {
		t.Error("Zero vector should report IsZero")
	}
}
