package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultLoads(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(cfg.Dimensions) != 4 {
		t.Fatalf("dimensions: want=4 got=%d", len(cfg.Dimensions))
	}
	if len(cfg.Bands) != 3 {
		t.Fatalf("bands: want=3 got=%d", len(cfg.Bands))
	}
	idx, ok := cfg.DimensionOf(" Robotics ")
	if !ok || cfg.Dimensions[idx].Name != "manufacturing" {
		t.Fatalf("DimensionOf(robotics): want=manufacturing got=%d ok=%v", idx, ok)
	}
	if cfg.HasTerm("astrology") {
		t.Fatalf("HasTerm: unexpected term")
	}
}

func TestBandOf(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	cases := []struct {
		mrl, trl int
		want     int
		ok       bool
	}{
		{9, 9, 0, true},
		{7, 7, 0, true},
		{6, 8, 0, true},
		{6, 7, 1, true},
		{4, 4, 1, true},
		{3, 4, 2, true},
		{1, 1, 2, true},
		{0, 5, 0, false},
		{5, 10, 0, false},
	}
	for _, tc := range cases {
		got, ok := cfg.BandOf(tc.mrl, tc.trl)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("BandOf(%d,%d): want=%d,%v got=%d,%v", tc.mrl, tc.trl, tc.want, tc.ok, got, ok)
		}
	}
}

func TestParseRejectsBadConfigs(t *testing.T) {
	cases := map[string]string{
		"no dimensions": "score: {min: 1, max: 9}\nbands: [{name: a, min: 1}]\n",
		"bad bands":     "score: {min: 1, max: 9}\nbands: [{name: a, min: 1}, {name: b, min: 5}]\ndimensions: [{name: d, terms: [x]}]\n",
		"dup term":      "score: {min: 1, max: 9}\nbands: [{name: a, min: 1}]\ndimensions: [{name: d, terms: [x]}, {name: e, terms: [X]}]\n",
		"bad bounds":    "score: {min: 5, max: 2}\nbands: [{name: a, min: 1}]\ndimensions: [{name: d, terms: [x]}]\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	raw := strings.Join([]string{
		"score: {min: 1, max: 5}",
		"bands: [{name: inner, min: 3}, {name: outer, min: 1}]",
		"dimensions: [{name: only, terms: [alpha]}]",
	}, "\n")
	path := filepath.Join(t.TempDir(), "radar.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.SpiralStep != 0.04 || cfg.Layout.MaxDensify != 12 {
		t.Fatalf("layout defaults: got=%+v", cfg.Layout)
	}
	if _, ok := cfg.BandOf(6, 6); ok {
		t.Fatalf("BandOf above max should fail")
	}
}
