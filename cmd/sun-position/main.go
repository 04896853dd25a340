package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chrissnell/gardensim/pkg/solar"
)

func main() {
	var (
		timeStr string
		tz      string
		lat     float64
		lon     float64
	)
	flag.StringVar(&timeStr, "time", "", "Instant to calculate for (RFC3339 format, e.g., 2026-06-21T12:00:00Z)")
	flag.StringVar(&tz, "tz", "UTC", "IANA time zone used for the civil day and for display")
	flag.Float64Var(&lat, "lat", 0, "Observer latitude in degrees")
	flag.Float64Var(&lon, "lon", 0, "Observer longitude in degrees, east positive")
	flag.Parse()

	loc, err := time.LoadLocation(tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading time zone: %v\n", err)
		os.Exit(1)
	}

	var t time.Time
	if timeStr == "" {
		t = time.Now().In(loc)
	} else {
		t, err = time.Parse(time.RFC3339, timeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
			os.Exit(1)
		}
		t = t.In(loc)
	}

	d := solar.ComputeSunDirection(lat, lon, t, loc)

	fmt.Printf("Sun position for %.4f,%.4f at %s\n", lat, lon, t.Format(time.RFC3339))
	fmt.Printf("  Elevation:    %.2f°\n", d.ElevationDeg)
	fmt.Printf("  Azimuth:      %.2f° (from north)\n", d.AzimuthDeg)
	switch {
	case d.PolarDay:
		fmt.Printf("  Daylight:     sun does not set\n")
	case d.PolarNight:
		fmt.Printf("  Daylight:     sun does not rise\n")
	default:
		fmt.Printf("  Sunrise:      %s\n", solar.FormatSunTime(d.Sunrise, loc))
		fmt.Printf("  Solar noon:   %s\n", solar.FormatSunTime(d.SolarNoon, loc))
		fmt.Printf("  Sunset:       %s\n", solar.FormatSunTime(d.Sunset, loc))
		fmt.Printf("  Daylight:     %s\n", (time.Duration(d.DaylightSeconds) * time.Second).Round(time.Minute))
	}
	if d.IsNight() {
		fmt.Printf("  Sun is below the horizon\n")
	}
}
