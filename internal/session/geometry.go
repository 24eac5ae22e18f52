package session

import "math"

// Point is a position in world space. Y is the vertical axis.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Cell is the horizontal block a point falls into.
type Cell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Cell floors X and Z to block coordinates.
func (p Point) Cell() Cell {
	return Cell{X: int(math.Floor(p.X)), Z: int(math.Floor(p.Z))}
}

// Add returns p offset by the given deltas.
func (p Point) Add(dx, dy, dz float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Region is an axis-aligned area of the map. Only X and Z are used for
// containment; Y is kept so a region can be described from two corners.
type Region struct {
	Min Point `json:"min" yaml:"min"`
	Max Point `json:"max" yaml:"max"`
}

// ContainsXZ reports whether p lies within the region horizontally.
// Both edges are inclusive.
func (r Region) ContainsXZ(p Point) bool {
	minX, maxX := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
	minZ, maxZ := math.Min(r.Min.Z, r.Max.Z), math.Max(r.Min.Z, r.Max.Z)
	return p.X >= minX && p.X <= maxX && p.Z >= minZ && p.Z <= maxZ
}

// Middle returns the horizontal centre of the region at its lower Y.
func (r Region) Middle() Point {
	return Point{
		X: (r.Min.X + r.Max.X) / 2,
		Y: math.Min(r.Min.Y, r.Max.Y),
		Z: (r.Min.Z + r.Max.Z) / 2,
	}
}
