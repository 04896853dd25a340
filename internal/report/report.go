// Package report summarises a season of daily plant snapshots.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/chrissnell/gardensim/internal/storage"
	"github.com/chrissnell/gardensim/internal/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// PlantSummary describes one plant over the collected days.
type PlantSummary struct {
	BedID     string
	PlantID   string
	SpeciesID string
	Days      int
	FirstDay  time.Time
	LastDay   time.Time

	MeanSunHours    float64
	StdDevSunHours  float64
	MeanTempOkHours float64
	StdDevTempOk    float64
	MeanWaterEff    float64

	FinalHeight       float64
	FinalCanopyRadius float64
	// GrowthPerDay is the least-squares slope of height against day number
	// and GrowthFit its coefficient of determination.
	GrowthPerDay float64
	GrowthFit    float64
	GrowthDays   int

	Dead        bool
	DeathReason string
	DiedOn      time.Time
}

// Summarize groups snapshots by plant and summarises each. When the same
// plant and day appear more than once the later snapshot wins.
func Summarize(snaps []types.Snapshot) []PlantSummary {
	type plantKey struct{ bed, plant string }
	byPlant := make(map[plantKey]map[time.Time]types.Snapshot)
	for _, s := range snaps {
		k := plantKey{s.BedID, s.PlantID}
		if byPlant[k] == nil {
			byPlant[k] = make(map[time.Time]types.Snapshot)
		}
		byPlant[k][s.Date] = s
	}

	out := make([]PlantSummary, 0, len(byPlant))
	for _, days := range byPlant {
		series := make([]types.Snapshot, 0, len(days))
		for _, s := range days {
			series = append(series, s)
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		out = append(out, summarizePlant(series))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BedID != out[j].BedID {
			return out[i].BedID < out[j].BedID
		}
		return out[i].PlantID < out[j].PlantID
	})
	return out
}

func summarizePlant(series []types.Snapshot) PlantSummary {
	first, last := series[0], series[len(series)-1]
	ps := PlantSummary{
		BedID:             first.BedID,
		PlantID:           first.PlantID,
		SpeciesID:         first.SpeciesID,
		Days:              len(series),
		FirstDay:          first.Date,
		LastDay:           last.Date,
		FinalHeight:       last.Height,
		FinalCanopyRadius: last.CanopyRadius,
	}

	sun := make([]float64, len(series))
	tempOk := make([]float64, len(series))
	waterEff := make([]float64, len(series))
	dayNum := make([]float64, len(series))
	height := make([]float64, len(series))
	for i, s := range series {
		sun[i] = s.SunlightHours
		tempOk[i] = s.TempOkHours
		waterEff[i] = s.Inputs.WaterEff
		dayNum[i] = s.Date.Sub(first.Date).Hours() / 24
		height[i] = s.Height
		if s.Inputs.GrowthApplied {
			ps.GrowthDays++
		}
		if s.Dead && !ps.Dead {
			ps.Dead = true
			ps.DeathReason = s.DeathReason
			ps.DiedOn = s.Date
		}
	}

	ps.MeanSunHours, ps.StdDevSunHours = meanStdDev(sun)
	ps.MeanTempOkHours, ps.StdDevTempOk = meanStdDev(tempOk)
	ps.MeanWaterEff = stat.Mean(waterEff, nil)

	if len(series) >= 2 {
		alpha, beta := stat.LinearRegression(dayNum, height, nil, false)
		ps.GrowthPerDay = beta
		ps.GrowthFit = finiteOr(stat.RSquared(dayNum, height, nil, alpha, beta), 0)
	}
	return ps
}

func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	return mean, finiteOr(std, 0)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Write prints summaries as an aligned table.
func Write(w io.Writer, summaries []PlantSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BED\tPLANT\tSPECIES\tDAYS\tSUN h (±)\tTEMP OK h (±)\tWATER EFF\tHEIGHT\tGROWTH/DAY (R²)\tSTATUS")
	for _, s := range summaries {
		status := "alive"
		if s.Dead {
			status = fmt.Sprintf("died %s (%s)", s.DiedOn.Format(time.DateOnly), s.DeathReason)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f (%.2f)\t%.2f (%.2f)\t%.2f\t%.2f\t%.3f (%.2f)\t%s\n",
			s.BedID, s.PlantID, s.SpeciesID, s.Days,
			s.MeanSunHours, s.StdDevSunHours,
			s.MeanTempOkHours, s.StdDevTempOk,
			s.MeanWaterEff, s.FinalHeight,
			s.GrowthPerDay, s.GrowthFit, status)
	}
	return tw.Flush()
}

// Collector keeps every snapshot of a run in memory so a report can be
// produced at shutdown. It is a storage engine.
type Collector struct {
	logger *zap.SugaredLogger

	mu    sync.Mutex
	snaps map[string]types.Snapshot
}

func NewCollector(logger *zap.SugaredLogger) *Collector {
	return &Collector{logger: logger, snaps: make(map[string]types.Snapshot)}
}

// StartStorageEngine implements storage.StorageEngineInterface.
func (c *Collector) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Snapshot {
	ch := make(chan types.Snapshot, 10)
	wg.Add(1)
	go storage.ProcessSnapshots(ctx, wg, ch, c.Add, "report", c.logger)
	return ch
}

// Add records a snapshot, replacing an earlier one for the same key.
func (c *Collector) Add(s types.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[s.Key()] = s
	return nil
}

// Summary summarises everything collected so far.
func (c *Collector) Summary() []PlantSummary {
	c.mu.Lock()
	snaps := make([]types.Snapshot, 0, len(c.snaps))
	for _, s := range c.snaps {
		snaps = append(snaps, s)
	}
	c.mu.Unlock()
	return Summarize(snaps)
}
