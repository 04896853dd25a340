package lifestage

import (
	"testing"
	"time"
)

func intp(v int) *int { return &v }

func TestAgeDays(t *testing.T) {
	planted := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before planting floors at zero", planted.Add(-48 * time.Hour), 0},
		{"same instant", planted, 0},
		{"just under a day", planted.Add(23*time.Hour + 59*time.Minute), 0},
		{"exactly one day", planted.Add(24 * time.Hour), 1},
		{"ninety-one days", planted.AddDate(0, 0, 91), 91},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeDays(planted, tt.now); got != tt.want {
				t.Errorf("AgeDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPhaseForAge(t *testing.T) {
	full := Timing{GerminationDays: 7, FloweringDays: intp(40), FruitingDays: intp(60), LifespanDays: intp(90)}
	bare := Timing{GerminationDays: 7}
	noFruit := Timing{GerminationDays: 7, FloweringDays: intp(40), LifespanDays: intp(90)}

	tests := []struct {
		name   string
		age    int
		timing Timing
		want   Phase
	}{
		{"seed before germination", 6, full, Seed},
		{"vegetative after germination", 7, full, Vegetative},
		{"flowering window start", 40, full, Flowering},
		{"fruiting window start", 60, full, Fruiting},
		{"last day of lifespan still fruiting", 90, full, Fruiting},
		{"past lifespan is dead", 91, full, Dead},
		{"undefined windows stay vegetative", 500, bare, Vegetative},
		{"no fruiting window flowers until lifespan", 90, noFruit, Flowering},
		{"no fruiting window then dead", 91, noFruit, Dead},
		{"no fruiting or lifespan flowers forever", 500, Timing{FloweringDays: intp(40)}, Flowering},
		{"zero germination is never seed", 0, Timing{}, Vegetative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseForAge(tt.age, tt.timing); got != tt.want {
				t.Errorf("PhaseForAge(%d) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestExpiredAgreesWithDeadPhase(t *testing.T) {
	timing := Timing{LifespanDays: intp(30)}
	for age := 0; age < 60; age++ {
		if Expired(age, timing.LifespanDays) != (PhaseForAge(age, timing) == Dead) {
			t.Fatalf("age %d: Expired and Dead phase disagree", age)
		}
	}
	if Expired(1000, nil) {
		t.Error("undefined lifespan never expires")
	}
}
