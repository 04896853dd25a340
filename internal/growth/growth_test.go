package growth

import (
	"math"
	"testing"

	"github.com/chrissnell/gardensim/internal/calendar"
	"github.com/chrissnell/gardensim/internal/species"
)

func TestParseMaturityDays(t *testing.T) {
	tests := []struct {
		spec string
		days int
		ok   bool
	}{
		{"60–70", 60, true},
		{"70-60 days", 60, true},
		{"about 45 days", 45, true},
		{"90", 90, true},
		{"0-30", 30, true},
		{"", 0, false},
		{"late summer", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			days, ok := ParseMaturityDays(tt.spec)
			if days != tt.days || ok != tt.ok {
				t.Errorf("ParseMaturityDays(%q) = %d, %v; want %d, %v", tt.spec, days, ok, tt.days, tt.ok)
			}
		})
	}
}

func TestBaseGrowthRate(t *testing.T) {
	rate, ok := BaseGrowthRate(30, "60–70")
	if !ok || math.Abs(rate-0.5) > 1e-12 {
		t.Errorf("BaseGrowthRate(30, 60–70) = %v, %v; want 0.5", rate, ok)
	}

	for _, tt := range []struct {
		max  float64
		spec string
	}{
		{0, "60"},
		{-5, "60"},
		{math.NaN(), "60"},
		{30, "n/a"},
	} {
		if rate, ok := BaseGrowthRate(tt.max, tt.spec); ok || rate != 0 {
			t.Errorf("BaseGrowthRate(%v, %q) = %v, %v; want no rate", tt.max, tt.spec, rate, ok)
		}
	}
}

func TestLimitsFor(t *testing.T) {
	explicit := 2.0
	derived := LimitsFor(species.BasePlant{MaxHeight: 30, MaxCanopyRadius: 15, MaturitySpec: "60"})
	if derived.BaseGrowthRate != 0.5 || derived.CanopyRate() != 0.25 {
		t.Errorf("derived limits = %+v canopy %v", derived, derived.CanopyRate())
	}

	override := LimitsFor(species.BasePlant{MaxHeight: 30, MaturitySpec: "60", BaseGrowthRate: &explicit})
	if override.BaseGrowthRate != 2 {
		t.Errorf("explicit rate ignored: %+v", override)
	}

	broken := LimitsFor(species.BasePlant{MaxHeight: 30, MaturitySpec: "soon"})
	if broken.BaseGrowthRate != 0 {
		t.Errorf("unparseable maturity should give zero rate, got %v", broken.BaseGrowthRate)
	}
}

func TestComputeEfficiencies(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want Efficiencies
	}{
		{"half sun", Inputs{SunHours: 4, SunReq: 8, TempOkHours: 24, WaterEff: 1}, Efficiencies{0.5, 1, 1}},
		{"excess sun caps at one", Inputs{SunHours: 12, SunReq: 6, TempOkHours: 12, WaterEff: 0.3}, Efficiencies{1, 0.5, 0.3}},
		{"no sun requirement", Inputs{SunHours: 0, SunReq: 0, TempOkHours: 6, WaterEff: 2}, Efficiencies{1, 0.25, 1}},
		{"nan water", Inputs{SunHours: 8, SunReq: 8, TempOkHours: 24, WaterEff: math.NaN()}, Efficiencies{1, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeEfficiencies(tt.in); got != tt.want {
				t.Errorf("ComputeEfficiencies = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyHalfSun(t *testing.T) {
	s := &State{Height: 1, CanopyRadius: 0.5}
	lim := Limits{BaseGrowthRate: 0.5, MaxHeight: 30, MaxCanopyRadius: 15}
	eff := ComputeEfficiencies(Inputs{SunHours: 4, SunReq: 8, TempOkHours: 24, WaterEff: 1})

	inc, ok := s.Apply(calendar.Day(100), lim, eff, false)
	if !ok {
		t.Fatal("Apply did not apply")
	}
	if math.Abs(inc.Height-0.25) > 1e-12 || math.Abs(s.Height-1.25) > 1e-12 {
		t.Errorf("height increment %v (height %v), want 0.25", inc.Height, s.Height)
	}
	if math.Abs(inc.CanopyRadius-0.125) > 1e-12 {
		t.Errorf("canopy increment %v, want 0.125", inc.CanopyRadius)
	}

	if _, ok := s.Apply(calendar.Day(100), lim, eff, false); ok {
		t.Error("second Apply for the same day applied again")
	}
	if _, ok := s.Apply(calendar.Day(99), lim, eff, false); ok {
		t.Error("Apply for an earlier day applied after a rewind")
	}
	if math.Abs(s.Height-1.25) > 1e-12 {
		t.Errorf("height changed on repeat: %v", s.Height)
	}
}

func TestApplyFreezesDeadPlants(t *testing.T) {
	s := &State{Height: 3, CanopyRadius: 1}
	lim := Limits{BaseGrowthRate: 1, MaxHeight: 30, MaxCanopyRadius: 15}

	if _, ok := s.Apply(calendar.Day(1), lim, Efficiencies{1, 1, 1}, true); ok {
		t.Error("dead plant grew")
	}
	if s.Height != 3 || s.CanopyRadius != 1 {
		t.Errorf("dead plant size changed: %+v", s)
	}
}

func TestGrowthIsMonotonicAndCapped(t *testing.T) {
	s := &State{}
	lim := Limits{BaseGrowthRate: 2, MaxHeight: 10, MaxCanopyRadius: 4}

	prevH, prevC := s.Height, s.CanopyRadius
	for d := 0; d < 60; d++ {
		eff := Efficiencies{Sun: float64(d%5) / 4, Temp: 1, Water: float64(d%3) / 2}
		s.Apply(calendar.Day(d), lim, eff, false)
		if s.Height < prevH || s.CanopyRadius < prevC {
			t.Fatalf("day %d: size decreased", d)
		}
		if s.Height > lim.MaxHeight || s.CanopyRadius > lim.MaxCanopyRadius {
			t.Fatalf("day %d: size %v/%v exceeds maxima", d, s.Height, s.CanopyRadius)
		}
		prevH, prevC = s.Height, s.CanopyRadius
	}
	if s.Height != lim.MaxHeight {
		t.Errorf("height %v never reached max %v", s.Height, lim.MaxHeight)
	}

	oversized := &State{Height: 50}
	oversized.Apply(calendar.Day(1), lim, Efficiencies{1, 1, 1}, false)
	if oversized.Height != 50 {
		t.Errorf("oversized plant shrank to %v", oversized.Height)
	}
}
