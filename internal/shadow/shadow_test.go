package shadow

import (
	"math"
	"testing"

	"github.com/chrissnell/gardensim/pkg/solar"
)

func sunAt(elevation, azimuth float64) solar.SunDirection {
	return solar.SunDirection{ElevationDeg: elevation, AzimuthDeg: azimuth}
}

func TestNightShadingIsEmpty(t *testing.T) {
	scene := []Object{
		NewTree("tree", 0, 0, 10, 2),
		NewPlant("plant", 0, 1, 0.5, 0.3),
		NewStructure("shed", 3, 3, 2, 2, 2),
	}

	for _, elevation := range []float64{0, -0.0001, -30} {
		d := Compute(scene, sunAt(elevation, 180))
		if len(d.Vectors) != 0 || len(d.Shaded) != 0 {
			t.Errorf("elevation %v: got %d vectors and %d shaded objects, want none",
				elevation, len(d.Vectors), len(d.Shaded))
		}
	}
}

func TestShadowLength(t *testing.T) {
	tests := []struct {
		name      string
		obj       Object
		elevation float64
		want      float64
	}{
		{"plant at 45 degrees adds canopy radius", NewPlant("p", 0, 0, 2, 0.5), 45, 2.5},
		{"structure at 45 degrees has no padding", NewStructure("s", 0, 0, 3, 1, 1), 45, 3},
		{"below horizon is zero", NewTree("t", 0, 0, 5, 1), -1, 0},
		{"low sun gives long shadow", NewTree("t", 0, 0, 1, 0), 5, 1 / math.Tan(5*math.Pi/180)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShadowLength(tt.obj, tt.elevation); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ShadowLength = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStructureShadowCoversPlant(t *testing.T) {
	// Shadow axis runs along +x (azimuth 0); length 4 at 45 degrees.
	shed := NewStructure("shed", 0, 0, 4, 2, 2)
	onAxis := NewPlant("on-axis", 2, 0, 0.3, 0.2) // along = length/2
	offAxis := NewPlant("off-axis", 2, 3, 0.3, 0.2)

	d := Compute([]Object{shed, onAxis, offAxis}, sunAt(45, 0))

	if !d.IsShaded("on-axis") {
		t.Error("plant at half the shadow length on the axis should be shaded")
	}
	if d.IsShaded("off-axis") {
		t.Error("plant outside the padded rectangle should not be shaded")
	}
	if d.IsShaded("shed") {
		t.Error("an object never shades itself")
	}

	var v Vector
	for _, sv := range d.Vectors {
		if sv.ObjectID == "shed" {
			v = sv
		}
	}
	if math.Abs(v.Length-4) > 1e-9 || math.Abs(v.EndX-4) > 1e-9 {
		t.Errorf("shed shadow length %v end (%v,%v), want 4 ending at (4,0)", v.Length, v.EndX, v.EndY)
	}
	if v.MinX != -1 || math.Abs(v.MaxX-5) > 1e-9 || v.MinY != -1 || v.MaxY != 1 {
		t.Errorf("padded bounds = [%v,%v]x[%v,%v]", v.MinX, v.MaxX, v.MinY, v.MaxY)
	}
}

func TestCapsuleShadow(t *testing.T) {
	// Azimuth 90 points the shadow along +y; tree shadow length 11.
	tree := NewTree("tree", 0, 0, 10, 1)
	scene := []Object{
		tree,
		NewPlant("inside", 0.2, 5, 0.2, 0.5),
		NewPlant("behind", 0, -3, 0.2, 0.5),
		NewPlant("beside", 3, 5, 0.2, 0.5),
		NewPlant("beyond", 0, 12, 0.2, 0.5),
	}

	d := Compute(scene, sunAt(45, 90))

	want := map[string]bool{"inside": true, "behind": false, "beside": false, "beyond": false, "tree": false}
	for id, shaded := range want {
		if d.IsShaded(id) != shaded {
			t.Errorf("IsShaded(%q) = %v, want %v", id, d.IsShaded(id), shaded)
		}
	}
	if len(d.Vectors) != len(scene) {
		t.Errorf("got %d vectors, want one per object (%d)", len(d.Vectors), len(scene))
	}
}

func TestMultipleShadersStillBoolean(t *testing.T) {
	scene := []Object{
		NewTree("a", 0, 0, 10, 1),
		NewTree("b", 0, 1, 10, 1),
		NewPlant("p", 0, 4, 0.1, 0.5),
	}

	d := Compute(scene, sunAt(45, 90))
	if !d.IsShaded("p") {
		t.Fatal("plant behind two trees should be shaded")
	}
	count := 0
	for range d.Shaded {
		count++
	}
	// "b" sits in "a"'s shadow as well.
	if count != 2 {
		t.Errorf("shaded set has %d members, want 2", count)
	}
}
