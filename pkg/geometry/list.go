package geometry

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// List is an aggregate of hittables tested by linear scan
type List struct {
	Objects []Hittable
}

// NewList creates a new list from the given objects
func NewList(objects ...Hittable) *List {
	return &List{Objects: objects}
}

// Add appends an object to the list
func (l *List) Add(object Hittable) {
	l.Objects = append(l.Objects, object)
}

// Len returns the number of objects in the list
func (l *List) Len() int {
	return len(l.Objects)
}

// Hit returns the nearest intersection among all objects. On equal t the
// earlier object wins.
func (l *List) Hit(ray core.Ray, tMin, tMax float64) (material.HitRecord, bool) {
	var closest material.HitRecord
	hitAnything := false
	closestSoFar := tMax

	for _, object := range l.Objects {
		if hit, ok := object.Hit(ray, tMin, closestSoFar); ok {
			hitAnything = true
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}
