package weather

import (
	"context"

	"github.com/chrissnell/gardensim/internal/calendar"
)

// Static serves weather from fixed values: a per-date table with a default
// for dates it does not list.
type Static struct {
	Default Day
	Days    map[calendar.Day]Day
}

func (s *Static) Fetch(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error) {
	if err := ctx.Err(); err != nil {
		return Day{}, err
	}
	w, ok := s.Days[day]
	if !ok {
		w = s.Default
	}
	w.Day = day
	return w, nil
}
