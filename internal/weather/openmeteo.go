package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"go.uber.org/zap"
)

const (
	DefaultForecastEndpoint = "https://api.open-meteo.com/v1/forecast"
	DefaultClimateEndpoint  = "https://climate-api.open-meteo.com/v1/climate"
	DefaultClimateModel     = "EC_Earth3P_HR"
	// DefaultForecastHorizonDays is how far from today the forecast endpoint
	// is used. Dates further away are served from climate projections.
	DefaultForecastHorizonDays = 14
	defaultHTTPTimeout         = 10 * time.Second
)

// OpenMeteo fetches weather from the Open-Meteo forecast API for dates near
// today and from its climate API for dates further away.
type OpenMeteo struct {
	ForecastEndpoint    string
	ClimateEndpoint     string
	ClimateModel        string
	ForecastHorizonDays int
	// Today returns the current day. It defaults to the UTC date.
	Today func() calendar.Day

	client *http.Client
	logger *zap.SugaredLogger
}

// NewOpenMeteo returns a provider using the public endpoints. A
// non-positive timeout uses a 10 second default.
func NewOpenMeteo(timeout time.Duration, logger *zap.SugaredLogger) *OpenMeteo {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &OpenMeteo{
		ForecastEndpoint:    DefaultForecastEndpoint,
		ClimateEndpoint:     DefaultClimateEndpoint,
		ClimateModel:        DefaultClimateModel,
		ForecastHorizonDays: DefaultForecastHorizonDays,
		client:              &http.Client{Timeout: timeout},
		logger:              logger,
	}
}

type openMeteoResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
	Daily  struct {
		Time     []string   `json:"time"`
		TempMean []*float64 `json:"temperature_2m_mean"`
		TempMax  []*float64 `json:"temperature_2m_max"`
		TempMin  []*float64 `json:"temperature_2m_min"`
		Precip   []*float64 `json:"precipitation_sum"`
		ET0      []*float64 `json:"et0_fao_evapotranspiration"`
	} `json:"daily"`
	Hourly struct {
		Time []string   `json:"time"`
		Temp []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

func (o *OpenMeteo) Fetch(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error) {
	today := calendar.DayOf(time.Now(), time.UTC)
	if o.Today != nil {
		today = o.Today()
	}

	distance := int64(day - today)
	if distance < 0 {
		distance = -distance
	}
	forecast := distance <= int64(o.ForecastHorizonDays)

	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	v.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	v.Set("start_date", day.ISO())
	v.Set("end_date", day.ISO())
	v.Set("timezone", "auto")

	endpoint := o.ClimateEndpoint
	if forecast {
		endpoint = o.ForecastEndpoint
		v.Set("daily", "temperature_2m_mean,temperature_2m_max,temperature_2m_min,precipitation_sum,et0_fao_evapotranspiration")
		v.Set("hourly", "temperature_2m")
	} else {
		v.Set("models", o.ClimateModel)
		v.Set("daily", "temperature_2m_mean,temperature_2m_max,temperature_2m_min,precipitation_sum")
	}

	resp, err := o.get(ctx, endpoint+"?"+v.Encode())
	if err != nil {
		return Day{}, err
	}
	return resp.toDay(day)
}

func (o *OpenMeteo) get(ctx context.Context, u string) (*openMeteoResponse, error) {
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Open-Meteo request: %w", err)
	}

	o.logger.Debugf("Making request to Open-Meteo: %v", u)
	req = req.WithContext(ctx)
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to Open-Meteo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading Open-Meteo response body: %w", err)
	}

	response := &openMeteoResponse{}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(response); err != nil {
		return nil, fmt.Errorf("unable to decode Open-Meteo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || response.Error {
		return nil, fmt.Errorf("bad response from Open-Meteo (%s): %s", resp.Status, response.Reason)
	}
	return response, nil
}

func (r *openMeteoResponse) toDay(day calendar.Day) (Day, error) {
	idx := -1
	for i, t := range r.Daily.Time {
		if t == day.ISO() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Day{}, fmt.Errorf("Open-Meteo response has no daily values for %s", day.ISO())
	}

	tmax, okMax := at(r.Daily.TempMax, idx)
	tmin, okMin := at(r.Daily.TempMin, idx)
	if !okMax || !okMin {
		return Day{}, fmt.Errorf("Open-Meteo response is missing temperatures for %s", day.ISO())
	}
	tmean, ok := at(r.Daily.TempMean, idx)
	if !ok {
		tmean = (tmax + tmin) / 2
	}
	precip, _ := at(r.Daily.Precip, idx)

	w := Day{Daily: Daily{
		Day:      day,
		TMeanC:   tmean,
		TMinC:    tmin,
		TMaxC:    tmax,
		PrecipMm: precip,
	}}
	if et0, ok := at(r.Daily.ET0, idx); ok {
		w.ET0Mm = &et0
	}

	// Hourly times are local ("2024-04-01T13:00") because timezone=auto.
	prefix := day.ISO() + "T"
	hourly := make([]float64, 0, HoursPerDay)
	for i, t := range r.Hourly.Time {
		if len(t) < len(prefix) || t[:len(prefix)] != prefix {
			continue
		}
		v, ok := at(r.Hourly.Temp, i)
		if !ok {
			hourly = nil
			break
		}
		hourly = append(hourly, v)
	}
	if len(hourly) == HoursPerDay {
		w.HourlyTempC = hourly
	}

	return w, nil
}

func at(vals []*float64, i int) (float64, bool) {
	if i < 0 || i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}
