package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplaceAndNamed(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Replace(zap.New(core))

	Infow("plant died", "plant", "b1", "reason", "TooCold")
	Named("garden").Warnw("weather unavailable", "bed", "bed-1")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "plant died" || entries[0].ContextMap()["reason"] != "TooCold" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].LoggerName != "garden" || entries[1].Level != zap.WarnLevel {
		t.Errorf("second entry logger = %q level = %v", entries[1].LoggerName, entries[1].Level)
	}
}

func TestInit(t *testing.T) {
	for _, debug := range []bool{true, false} {
		if err := Init(debug); err != nil {
			t.Fatalf("Init(%v): %v", debug, err)
		}
		if GetSugaredLogger() == nil || GetZapLogger() == nil {
			t.Fatal("logger not installed")
		}
	}
}
