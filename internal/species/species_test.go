package species

import (
	"errors"
	"strings"
	"testing"
)

func testPlants() []BasePlant {
	return []BasePlant{
		{ID: "tomato", Name: "Tomato", SunReq: 8, MaxHeight: 150, MaxCanopyRadius: 40},
		{ID: "basil", Name: "Basil", SunReq: 6, MaxHeight: 45, MaxCanopyRadius: 20},
		{ID: "lettuce", Name: "Lettuce", SunReq: 4, MaxHeight: 25, MaxCanopyRadius: 15},
	}
}

func TestLookup(t *testing.T) {
	r, err := NewMemoryRegistry(testPlants())
	if err != nil {
		t.Fatalf("NewMemoryRegistry: %v", err)
	}

	tests := []struct {
		name       string
		id         string
		wantName   string
		wantErr    bool
		suggestion string
	}{
		{name: "exact", id: "basil", wantName: "Basil"},
		{name: "case and space insensitive", id: "  Tomato ", wantName: "Tomato"},
		{name: "typo gets suggestion", id: "tomatto", wantErr: true, suggestion: `did you mean "tomato"`},
		{name: "unrelated id has no suggestion", id: "zucchini", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Lookup(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownSpecies) {
					t.Fatalf("Lookup(%q) error = %v, want ErrUnknownSpecies", tt.id, err)
				}
				if tt.suggestion != "" && !strings.Contains(err.Error(), tt.suggestion) {
					t.Errorf("error %q does not contain %q", err, tt.suggestion)
				}
				if tt.suggestion == "" && strings.Contains(err.Error(), "did you mean") {
					t.Errorf("unexpected suggestion in %q", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.id, err)
			}
			if p.Name != tt.wantName {
				t.Errorf("Lookup(%q).Name = %q, want %q", tt.id, p.Name, tt.wantName)
			}
		})
	}
}

func TestReplaceRejectsBadInput(t *testing.T) {
	if _, err := NewMemoryRegistry([]BasePlant{{ID: "a"}, {ID: "A"}}); err == nil {
		t.Error("expected duplicate id error")
	}
	if _, err := NewMemoryRegistry([]BasePlant{{Name: "nameless"}}); err == nil {
		t.Error("expected missing id error")
	}

	r, _ := NewMemoryRegistry(testPlants())
	if got := strings.Join(r.IDs(), ","); got != "basil,lettuce,tomato" {
		t.Errorf("IDs() = %q", got)
	}
}
