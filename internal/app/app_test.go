package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/clock"
	"github.com/chrissnell/gardensim/internal/mortality"
	"github.com/chrissnell/gardensim/internal/species"
	"github.com/chrissnell/gardensim/internal/storage/csv"
	"github.com/chrissnell/gardensim/internal/storage/sqlite"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/chrissnell/gardensim/internal/weather"
	"github.com/chrissnell/gardensim/pkg/config"
	"github.com/chrissnell/gardensim/pkg/livestats"
	"go.uber.org/zap"
)

func testConfig(dir string) *config.ConfigData {
	et0 := 2.0
	return &config.ConfigData{
		Simulation: config.SimulationData{
			StartDate:   "2026-05-01",
			TickPeriod:  "1ms",
			InitialMode: "fwd1d",
			RunForDays:  3,
		},
		Weather: config.WeatherData{
			Source: config.WeatherSourceStatic,
			Static: config.StaticWeatherData{TMeanC: 18, TMinC: 10, TMaxC: 24, PrecipMm: 2, ET0Mm: &et0},
		},
		Beds: []config.BedData{{
			ID:        "north",
			Latitude:  40,
			Longitude: -105,
			Timezone:  "UTC",
			Soil:      config.SoilData{CapacityMm: 100, MoistureMm: 50},
			Plants: []config.PlantData{
				{ID: "bean-1", Species: "bean", X: 1, Y: 1},
				{ID: "bean-2", Species: "bean", X: 3, Y: 1},
			},
			Trees: []config.TreeData{{ID: "oak", X: 10, Y: 10, Height: 6, CanopyRadius: 2}},
		}},
		Species: []config.SpeciesData{{
			ID:              "bean",
			Name:            "Bean",
			SunReq:          6,
			MaxHeight:       60,
			MaxCanopyRadius: 20,
			Maturity:        "60",
		}},
		Storage: config.StorageData{
			SQLite: &config.SQLiteData{Path: filepath.Join(dir, "snapshots.db")},
			CSV:    &config.CSVData{Path: filepath.Join(dir, "snapshots.csv")},
		},
		LiveStats: config.LiveStatsData{Enabled: true, Format: livestats.FormatJSON},
	}
}

func TestRunWritesEveryClosedDay(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	var rep, live bytes.Buffer
	a := New(cfg, zap.NewNop().Sugar())
	a.SetOutputs(&rep, &live)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Three days closed for two plants.
	db, err := sqlite.New(cfg.Storage.SQLite.Path, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer db.Close()
	snaps, err := db.Snapshots(context.Background(), "north")
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(snaps) != 6 {
		t.Errorf("sqlite holds %d snapshots, want 6", len(snaps))
	}

	c, err := csv.New(cfg.Storage.CSV.Path, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("reopen csv: %v", err)
	}
	defer c.Close()
	if n := len(c.Rows()); n != 6 {
		t.Errorf("csv holds %d rows, want 6", n)
	}

	// One live record for the start instant and one per step.
	dec, err := livestats.NewDecoder(&live, livestats.FormatJSON)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	var records int
	for {
		var ls types.LiveStats
		if err := dec.Decode(&ls); err != nil {
			break
		}
		records++
	}
	if records != 4 {
		t.Errorf("got %d live records, want 4", records)
	}

	out := rep.String()
	for _, want := range []string{"bean-1", "bean-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("report does not mention %s:\n%s", want, out)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Simulation.RunForDays = 0
	cfg.Simulation.InitialMode = "idle"
	cfg.LiveStats.Enabled = false

	var rep bytes.Buffer
	a := New(cfg, zap.NewNop().Sugar())
	a.SetOutputs(&rep, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Beds = nil
	err := New(cfg, zap.NewNop().Sugar()).Run(context.Background())
	if !errors.Is(err, config.ErrNoBeds) {
		t.Errorf("err = %v, want ErrNoBeds", err)
	}
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Simulation.GraceColdHours = 4
	cfg.Beds[0].Plants[1].PlantedAt = "2026-05-02"

	p, err := Build(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantStart := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", p.Start, wantStart)
	}
	if !p.End.Equal(wantStart.AddDate(0, 0, 3)) {
		t.Errorf("end = %v", p.End)
	}
	if p.Period != time.Millisecond || p.Mode != clock.Fwd1d {
		t.Errorf("period %v mode %v", p.Period, p.Mode)
	}

	g := p.Options.Grace
	if g.GraceCold != 4 {
		t.Errorf("cold grace = %v, want 4", g.GraceCold)
	}
	if g.GraceHeat != mortality.DefaultGrace.GraceHeat || g.SunGraceDays != mortality.DefaultGrace.SunGraceDays {
		t.Errorf("unset graces should keep their defaults, got %+v", g)
	}

	bed := p.Beds[0]
	if len(bed.Plants) != 2 || len(bed.Objects) != 1 {
		t.Fatalf("bed has %d plants and %d objects", len(bed.Plants), len(bed.Objects))
	}
	if got := bed.Plants[0].PlantedAt; !got.Equal(wantStart) {
		t.Errorf("default planted-at = %v, want start", got)
	}
	if got := bed.Plants[1].PlantedAt; !got.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("planted-at = %v", got)
	}

	if _, ok := p.Provider.(*weather.Static); !ok {
		t.Errorf("provider = %T, want *weather.Static", p.Provider)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.ConfigData)
		want   error
	}{
		{"unknown species", func(c *config.ConfigData) { c.Beds[0].Plants[0].Species = "beans" }, species.ErrUnknownSpecies},
		{"bad timezone", func(c *config.ConfigData) { c.Beds[0].Timezone = "Mars/Olympus" }, nil},
		{"bad start date", func(c *config.ConfigData) { c.Simulation.StartDate = "May 1" }, nil},
		{"bad mode", func(c *config.ConfigData) { c.Simulation.InitialMode = "warp" }, nil},
		{"negative period", func(c *config.ConfigData) { c.Simulation.TickPeriod = "-1s" }, nil},
		{"latitude out of range", func(c *config.ConfigData) { c.Beds[0].Latitude = 91 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t.TempDir())
			tt.mutate(cfg)
			_, err := Build(cfg, zap.NewNop().Sugar())
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildProviderOpenMeteo(t *testing.T) {
	p, err := BuildProvider(config.WeatherData{
		Source:           config.WeatherSourceOpenMeteo,
		ForecastEndpoint: "http://localhost:1/forecast",
		Timeout:          "2s",
		CacheEntries:     16,
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("BuildProvider: %v", err)
	}
	if _, ok := p.(*weather.Cache); !ok {
		t.Errorf("provider = %T, want *weather.Cache", p)
	}
}
