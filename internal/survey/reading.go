// Package survey holds the recorded magnetic readings of a floor survey.
package survey

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec3 is a 3-axis magnetic field vector in µT.
type Vec3 [3]float64

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return floats.Norm(v[:], 2)
}

// Magnitude returns the norm of v rounded to the nearest integer, for display.
func (v Vec3) Magnitude() int {
	return int(math.Round(v.Norm()))
}

// Reading is one pinned sample: calibrated field, uncalibrated field and the
// hard-iron bias estimate reported alongside the uncalibrated field.
type Reading struct {
	Calibrated   Vec3
	Uncalibrated Vec3
	Bias         Vec3
}

// FieldCount is the number of scalar values in a Reading.
const FieldCount = 9

// Fields returns the reading in its fixed storage order.
func (r Reading) Fields() [FieldCount]float64 {
	var f [FieldCount]float64
	copy(f[0:3], r.Calibrated[:])
	copy(f[3:6], r.Uncalibrated[:])
	copy(f[6:9], r.Bias[:])
	return f
}

// ReadingFromFields is the inverse of Reading.Fields.
func ReadingFromFields(f [FieldCount]float64) Reading {
	var r Reading
	copy(r.Calibrated[:], f[0:3])
	copy(r.Uncalibrated[:], f[3:6])
	copy(r.Bias[:], f[6:9])
	return r
}

// Magnitude is the display label of a node: the rounded norm of the
// uncalibrated field.
func (r Reading) Magnitude() int {
	return r.Uncalibrated.Magnitude()
}

// Kind tells a node from an obstacle.
type Kind int

const (
	KindNode Kind = iota
	KindObstacle
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindObstacle:
		return "obstacle"
	default:
		return "unknown"
	}
}

// Entry is what the store keeps for a cell. Reading is zero for obstacles.
type Entry struct {
	Kind    Kind
	Reading Reading
}

// IsObstacle reports whether the entry marks an impassable cell.
func (e Entry) IsObstacle() bool {
	return e.Kind == KindObstacle
}
