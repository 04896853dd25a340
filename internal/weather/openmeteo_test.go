package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"go.uber.org/zap"
)

func hourlyJSON(date string) (string, string) {
	times := make([]string, 0, 48)
	temps := make([]string, 0, 48)
	for _, d := range []string{date, "2099-01-01"} {
		for h := 0; h < 24; h++ {
			times = append(times, fmt.Sprintf("%q", fmt.Sprintf("%sT%02d:00", d, h)))
			temps = append(temps, fmt.Sprintf("%d", h))
		}
	}
	return strings.Join(times, ","), strings.Join(temps, ",")
}

func newOpenMeteoServer(t *testing.T, gotPath *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotPath = r.URL.Path
		q := r.URL.Query()
		date := q.Get("start_date")

		switch r.URL.Path {
		case "/forecast":
			times, temps := hourlyJSON(date)
			fmt.Fprintf(w, `{"daily":{"time":[%q],"temperature_2m_mean":[15.5],"temperature_2m_max":[22],"temperature_2m_min":[9],"precipitation_sum":[3.2],"et0_fao_evapotranspiration":[4.1]},"hourly":{"time":[%s],"temperature_2m":[%s]}}`,
				date, times, temps)
		case "/climate":
			if q.Get("models") == "" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":true,"reason":"models required"}`)
				return
			}
			fmt.Fprintf(w, `{"daily":{"time":[%q],"temperature_2m_mean":[null],"temperature_2m_max":[20],"temperature_2m_min":[10],"precipitation_sum":[null]}}`, date)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":true,"reason":"not found"}`)
		}
	}))
}

func TestOpenMeteoForecast(t *testing.T) {
	var path string
	srv := newOpenMeteoServer(t, &path)
	defer srv.Close()

	day := calendar.FromDate(2024, 6, 1)
	o := NewOpenMeteo(time.Second, zap.NewNop().Sugar())
	o.ForecastEndpoint = srv.URL + "/forecast"
	o.ClimateEndpoint = srv.URL + "/climate"
	o.Today = func() calendar.Day { return day - 2 }

	w, err := o.Fetch(context.Background(), 45.5, -122.6, day)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != "/forecast" {
		t.Errorf("path = %q, want /forecast", path)
	}
	if w.TMeanC != 15.5 || w.TMinC != 9 || w.TMaxC != 22 || w.PrecipMm != 3.2 {
		t.Errorf("daily = %+v", w.Daily)
	}
	if w.ET0Mm == nil || *w.ET0Mm != 4.1 {
		t.Errorf("ET0Mm = %v, want 4.1", w.ET0Mm)
	}
	if !w.HasHourly() {
		t.Fatalf("hourly series missing: %v", w.HourlyTempC)
	}
	if w.HourlyTempC[13] != 13 {
		t.Errorf("hour 13 = %v, want 13", w.HourlyTempC[13])
	}
}

func TestOpenMeteoClimate(t *testing.T) {
	var path string
	srv := newOpenMeteoServer(t, &path)
	defer srv.Close()

	day := calendar.FromDate(2030, 7, 15)
	o := NewOpenMeteo(time.Second, zap.NewNop().Sugar())
	o.ForecastEndpoint = srv.URL + "/forecast"
	o.ClimateEndpoint = srv.URL + "/climate"
	o.Today = func() calendar.Day { return calendar.FromDate(2024, 6, 1) }

	w, err := o.Fetch(context.Background(), 45.5, -122.6, day)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != "/climate" {
		t.Errorf("path = %q, want /climate", path)
	}
	if w.TMeanC != 15 {
		t.Errorf("TMeanC = %v, want midpoint 15", w.TMeanC)
	}
	if w.PrecipMm != 0 || w.ET0Mm != nil || w.HasHourly() {
		t.Errorf("unexpected optional values: %+v", w)
	}
}

func TestOpenMeteoErrors(t *testing.T) {
	var path string
	srv := newOpenMeteoServer(t, &path)
	defer srv.Close()

	o := NewOpenMeteo(time.Second, zap.NewNop().Sugar())
	o.ForecastEndpoint = srv.URL + "/missing"
	o.Today = func() calendar.Day { return calendar.FromDate(2024, 6, 1) }

	if _, err := o.Fetch(context.Background(), 0, 0, calendar.FromDate(2024, 6, 1)); err == nil {
		t.Error("expected error for 404 response")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.ForecastEndpoint = srv.URL + "/forecast"
	if _, err := o.Fetch(ctx, 0, 0, calendar.FromDate(2024, 6, 1)); err == nil {
		t.Error("expected error for cancelled context")
	}
}
