package domain

import "math"

// Vec3 is a world-space position. The engine never interprets axes; it only
// measures distances for event delivery and memory queries.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the euclidean distance between two positions.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Length()
}
