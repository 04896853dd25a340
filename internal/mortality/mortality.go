// Package mortality decides when a plant dies. Evaluation is a pure
// transition from one State to the next, driven once per clock tick.
package mortality

import (
	"fmt"
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"github.com/chrissnell/gardensim/internal/lifestage"
)

// Reason is the cause of a plant's death.
type Reason int

const (
	None Reason = iota
	TooCold
	TooHot
	TooDry
	TooWet
	NotEnoughSun
	OldAge
)

func (r Reason) String() string {
	switch r {
	case None:
		return ""
	case TooCold:
		return "TooCold"
	case TooHot:
		return "TooHot"
	case TooDry:
		return "TooDry"
	case TooWet:
		return "TooWet"
	case NotEnoughSun:
		return "NotEnoughSun"
	case OldAge:
		return "OldAge"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// ParseReason parses the String form of a reason.
func ParseReason(s string) (Reason, error) {
	for r := TooCold; r <= OldAge; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return None, fmt.Errorf("unknown death reason %q", s)
}

// State is a plant's mortality state. Once Dead is set it never clears.
type State struct {
	Dead    bool
	Reason  Reason
	DiedAt  time.Time
	Details string
	Manual  bool

	ColdHours  int
	HeatHours  int
	DryHours   int
	WetHours   int
	BadSunDays int

	lastHour calendar.Hour
	hasHour  bool
	lastDay  calendar.Day
	hasDay   bool
}

// Thresholds are the limits a plant is checked against. A nil limit
// disables the check that needs it.
type Thresholds struct {
	TempMin  *float64
	TempMax  *float64
	WaterMin *float64
	WaterMax *float64

	GraceCold float64
	GraceHeat float64
	GraceDry  float64
	GraceWet  float64

	SunReq       *float64
	SunGraceDays int

	LifespanDays *int
}

// Tick carries the environment observed at one clock tick.
type Tick struct {
	Now     time.Time
	Hour    calendar.Hour
	Day     calendar.Day
	AgeDays int

	// TempC is the current-hour temperature, nil when no hourly series may
	// be used this tick.
	TempC *float64
	// SoilMoistureMm is nil when soil moisture is unknown.
	SoilMoistureMm *float64
	// PrevDaySunHours is the total sun of the day the plant just left. It
	// is only read on the tick where Day first moves past every day seen
	// so far; nil leaves the bad sun day count as it was.
	PrevDaySunHours *float64
}

// Evaluate applies one tick to s and returns the next state.
func Evaluate(s State, th Thresholds, in Tick) State {
	s = CheckLifespan(s, th, in.Now, in.AgeDays)
	if s.Dead {
		return s
	}

	// Hours and days at or before the latest one seen were already
	// counted; replaying them after a rewind changes nothing.
	if !s.hasHour || in.Hour > s.lastHour {
		s.lastHour, s.hasHour = in.Hour, true
		s = evaluateHour(s, th, in)
		if s.Dead {
			return s
		}
	}

	if !s.hasDay {
		s.lastDay, s.hasDay = in.Day, true
	} else if in.Day > s.lastDay {
		s.lastDay = in.Day
		s = evaluateSun(s, th, in)
	}

	return s
}

// CheckLifespan applies only the old-age check. It is used on ticks where
// no environment is available, so stress counters must not advance.
func CheckLifespan(s State, th Thresholds, now time.Time, ageDays int) State {
	if s.Dead || !lifestage.Expired(ageDays, th.LifespanDays) {
		return s
	}
	return die(s, now, OldAge, fmt.Sprintf("age %d days exceeds lifespan %d days", ageDays, *th.LifespanDays))
}

func evaluateHour(s State, th Thresholds, in Tick) State {
	temp := in.TempC
	soil := in.SoilMoistureMm

	s.ColdHours = count(s.ColdHours, temp != nil && th.TempMin != nil && *temp <= *th.TempMin)
	s.HeatHours = count(s.HeatHours, temp != nil && th.TempMax != nil && *temp >= *th.TempMax)
	s.DryHours = count(s.DryHours, soil != nil && th.WaterMin != nil && *soil < *th.WaterMin)
	s.WetHours = count(s.WetHours, soil != nil && th.WaterMax != nil && *soil > *th.WaterMax)

	switch {
	case float64(s.ColdHours) > th.GraceCold:
		return die(s, in.Now, TooCold, fmt.Sprintf("%.1f°C <= min %.1f°C for %d h (grace %.0f h)",
			*temp, *th.TempMin, s.ColdHours, th.GraceCold))
	case float64(s.HeatHours) > th.GraceHeat:
		return die(s, in.Now, TooHot, fmt.Sprintf("%.1f°C >= max %.1f°C for %d h (grace %.0f h)",
			*temp, *th.TempMax, s.HeatHours, th.GraceHeat))
	case float64(s.DryHours) > th.GraceDry:
		return die(s, in.Now, TooDry, fmt.Sprintf("soil %.1f mm < min %.1f mm for %d h (grace %.0f h)",
			*soil, *th.WaterMin, s.DryHours, th.GraceDry))
	case float64(s.WetHours) > th.GraceWet:
		return die(s, in.Now, TooWet, fmt.Sprintf("soil %.1f mm > max %.1f mm for %d h (grace %.0f h)",
			*soil, *th.WaterMax, s.WetHours, th.GraceWet))
	}
	return s
}

func evaluateSun(s State, th Thresholds, in Tick) State {
	if th.SunReq == nil || *th.SunReq <= 0 {
		s.BadSunDays = 0
		return s
	}
	if in.PrevDaySunHours == nil {
		return s
	}

	s.BadSunDays = count(s.BadSunDays, *in.PrevDaySunHours < *th.SunReq)
	if s.BadSunDays > th.SunGraceDays {
		return die(s, in.Now, NotEnoughSun, fmt.Sprintf("%d days below %.1f h of sun (grace %d days)",
			s.BadSunDays, *th.SunReq, th.SunGraceDays))
	}
	return s
}

// Kill declares the plant dead immediately, bypassing grace periods. It is a
// no-op for a plant that is already dead.
func Kill(s State, at time.Time, reason Reason, details string) State {
	if s.Dead {
		return s
	}
	s = die(s, at, reason, details)
	s.Manual = true
	return s
}

func die(s State, at time.Time, reason Reason, details string) State {
	if s.Dead {
		return s
	}
	s.Dead = true
	s.Reason = reason
	s.DiedAt = at
	s.Details = details
	return s
}

// AssertTransition panics if next resurrects a plant that was dead in prev.
func AssertTransition(prev, next State) {
	if prev.Dead && !next.Dead {
		panic(fmt.Sprintf("mortality: plant resurrected after %s at %s", prev.Reason, prev.DiedAt))
	}
}

func count(n int, violated bool) int {
	if violated {
		return n + 1
	}
	return 0
}
