package report

import (
	"bytes"
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/types"
	"go.uber.org/zap"
)

const eps = 1e-9

func day(n int) time.Time {
	return time.Date(2026, time.June, n, 0, 0, 0, 0, time.UTC)
}

func series(plant string, heights, sun []float64) []types.Snapshot {
	out := make([]types.Snapshot, len(heights))
	for i := range heights {
		out[i] = types.Snapshot{
			BedID:         "north",
			PlantID:       plant,
			SpeciesID:     "bean",
			Date:          day(i + 1),
			Height:        heights[i],
			SunlightHours: sun[i],
			TempOkHours:   20,
			Inputs:        types.SnapshotInputs{WaterEff: 1, GrowthApplied: true},
		}
	}
	return out
}

func TestSummarizeLinearGrowth(t *testing.T) {
	snaps := series("bean-1", []float64{1, 1.5, 2, 2.5}, []float64{10, 12, 10, 12})
	got := Summarize(snaps)
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	s := got[0]

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"mean sun", s.MeanSunHours, 11},
		{"sun stddev", s.StdDevSunHours, math.Sqrt(4.0 / 3.0)},
		{"temp ok stddev", s.StdDevTempOk, 0},
		{"growth per day", s.GrowthPerDay, 0.5},
		{"growth fit", s.GrowthFit, 1},
		{"final height", s.FinalHeight, 2.5},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > eps {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if s.Days != 4 || s.GrowthDays != 4 {
		t.Errorf("days = %d, growth days = %d", s.Days, s.GrowthDays)
	}
	if !s.FirstDay.Equal(day(1)) || !s.LastDay.Equal(day(4)) {
		t.Errorf("range = %v..%v", s.FirstDay, s.LastDay)
	}
}

func TestSummarizeDeduplicatesAndOrders(t *testing.T) {
	a := series("b-plant", []float64{1, 2}, []float64{8, 8})
	b := series("a-plant", []float64{3}, []float64{5})
	dup := a[1]
	dup.Height = 4
	dup.Dead = true
	dup.DeathReason = "too_cold"

	got := Summarize(append(append(a, b...), dup))
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2", len(got))
	}
	if got[0].PlantID != "a-plant" {
		t.Errorf("summaries not ordered by plant: %s first", got[0].PlantID)
	}
	if got[0].StdDevSunHours != 0 || got[0].GrowthPerDay != 0 {
		t.Errorf("single-day plant should have zero spread and rate: %+v", got[0])
	}

	bp := got[1]
	if bp.Days != 2 || bp.FinalHeight != 4 {
		t.Errorf("duplicate day not replaced: days=%d height=%v", bp.Days, bp.FinalHeight)
	}
	if !bp.Dead || bp.DeathReason != "too_cold" || !bp.DiedOn.Equal(day(2)) {
		t.Errorf("death not reported: %+v", bp)
	}
}

func TestCollectorAndWrite(t *testing.T) {
	c := NewCollector(zap.NewNop().Sugar())

	var wg sync.WaitGroup
	ch := c.StartStorageEngine(context.Background(), &wg)
	for _, s := range series("bean-1", []float64{1, 2, 3}, []float64{9, 9, 9}) {
		ch <- s
	}
	close(ch)
	wg.Wait()

	sum := c.Summary()
	if len(sum) != 1 || sum[0].Days != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	var buf bytes.Buffer
	if err := Write(&buf, sum); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BED", "bean-1", "alive", "1.000"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
