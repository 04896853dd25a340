// Package shadow casts shadows from garden scene objects and reports which
// objects fall inside another object's shadow.
package shadow

import (
	"math"

	"github.com/chrissnell/gardensim/pkg/solar"
)

// Kind identifies what a scene object is.
type Kind int

const (
	Plant Kind = iota
	Tree
	Structure
)

func (k Kind) String() string {
	switch k {
	case Plant:
		return "plant"
	case Tree:
		return "tree"
	case Structure:
		return "structure"
	}
	return "unknown"
}

// Footprint is the ground shape of a scene object. It is either a Circle
// (plants and trees) or a Rect (structures).
type Footprint interface {
	footprint()
}

// Circle is a circular canopy footprint.
type Circle struct {
	Radius float64
}

// Rect is an axis-aligned rectangular footprint centred on the object.
type Rect struct {
	Width float64
	Depth float64
}

func (Circle) footprint() {}
func (Rect) footprint()   {}

// Object is a participant in shadow casting. Positions are bed-local units.
type Object struct {
	ID        string
	Kind      Kind
	X, Y      float64
	Height    float64
	Footprint Footprint
}

// NewPlant returns a plant object with a circular canopy.
func NewPlant(id string, x, y, height, canopyRadius float64) Object {
	return Object{ID: id, Kind: Plant, X: x, Y: y, Height: height, Footprint: Circle{Radius: canopyRadius}}
}

// NewTree returns a tree object with a circular canopy.
func NewTree(id string, x, y, height, canopyRadius float64) Object {
	return Object{ID: id, Kind: Tree, X: x, Y: y, Height: height, Footprint: Circle{Radius: canopyRadius}}
}

// NewStructure returns a structure object with a rectangular footprint.
func NewStructure(id string, x, y, height, width, depth float64) Object {
	return Object{ID: id, Kind: Structure, X: x, Y: y, Height: height, Footprint: Rect{Width: width, Depth: depth}}
}

// radius returns the canopy radius used when the object is the one being
// shaded. Rectangular footprints have none.
func (o Object) radius() float64 {
	if c, ok := o.Footprint.(Circle); ok {
		return c.Radius
	}
	return 0
}

// Vector is the shadow cast by one object for the current sun direction.
type Vector struct {
	ObjectID         string
	OriginX, OriginY float64
	EndX, EndY       float64
	Length           float64
	// DirX/DirY is the unit shadow direction.
	DirX, DirY float64
	// Footprint is Circle for capsule shadows (the band radius around the
	// axis) and Rect for structure shadows.
	Footprint Footprint
	// Bounds of the padded rectangle; set only for structure shadows.
	MinX, MinY, MaxX, MaxY float64
}

// Data is the result of one shadow computation.
type Data struct {
	Vectors []Vector
	Shaded  map[string]bool
}

// IsShaded reports whether the object with id lies in any shadow.
func (d Data) IsShaded(id string) bool {
	return d.Shaded[id]
}

// ShadowLength returns how far the object's shadow reaches for a sun at
// elevationDeg. It is 0 at or below the horizon.
func ShadowLength(o Object, elevationDeg float64) float64 {
	if elevationDeg <= 0 {
		return 0
	}
	reach := math.Max(0, o.Height) / math.Tan(elevationDeg*math.Pi/180)
	if c, ok := o.Footprint.(Circle); ok {
		reach += c.Radius
	}
	return reach
}

// Compute casts every object's shadow for sun and marks every object that
// falls inside the shadow of a different object. At night both results are
// empty.
func Compute(objects []Object, sun solar.SunDirection) Data {
	d := Data{Shaded: make(map[string]bool)}

	// The horizon check must come before any tan() evaluation.
	if sun.ElevationDeg <= 0 {
		return d
	}

	az := sun.AzimuthDeg * math.Pi / 180
	ux, uy := math.Cos(az), math.Sin(az)

	d.Vectors = make([]Vector, 0, len(objects))
	for _, o := range objects {
		d.Vectors = append(d.Vectors, cast(o, sun.ElevationDeg, ux, uy))
	}

	for _, v := range d.Vectors {
		for _, target := range objects {
			if target.ID == v.ObjectID || d.Shaded[target.ID] {
				continue
			}
			if inShadow(target, v) {
				d.Shaded[target.ID] = true
			}
		}
	}

	return d
}

func cast(o Object, elevationDeg, ux, uy float64) Vector {
	length := ShadowLength(o, elevationDeg)
	v := Vector{
		ObjectID: o.ID,
		OriginX:  o.X,
		OriginY:  o.Y,
		EndX:     o.X + ux*length,
		EndY:     o.Y + uy*length,
		Length:   length,
		DirX:     ux,
		DirY:     uy,
	}

	switch fp := o.Footprint.(type) {
	case Circle:
		v.Footprint = fp
	case Rect:
		v.Footprint = fp
		v.MinX = math.Min(v.OriginX, v.EndX) - fp.Width/2
		v.MaxX = math.Max(v.OriginX, v.EndX) + fp.Width/2
		v.MinY = math.Min(v.OriginY, v.EndY) - fp.Depth/2
		v.MaxY = math.Max(v.OriginY, v.EndY) + fp.Depth/2
	}

	return v
}

func inShadow(target Object, v Vector) bool {
	switch v.Footprint.(type) {
	case Circle:
		dx, dy := target.X-v.OriginX, target.Y-v.OriginY
		along := dx*v.DirX + dy*v.DirY
		perp := math.Abs(-dx*v.DirY + dy*v.DirX)
		return along > 0 && along < v.Length && perp < target.radius()
	case Rect:
		return target.X >= v.MinX && target.X <= v.MaxX &&
			target.Y >= v.MinY && target.Y <= v.MaxY
	}
	return false
}
