package radar

import (
	"testing"
	"time"
)

func TestProjectActiveAt(t *testing.T) {
	cutoff := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Project{}
	if !p.ActiveAt(cutoff) {
		t.Fatalf("ActiveAt: project without start date should be active")
	}
	start := cutoff
	p.StartDate = &start
	if !p.ActiveAt(cutoff) {
		t.Fatalf("ActiveAt: project starting on cutoff should be active")
	}
	later := cutoff.AddDate(0, 0, 1)
	p.StartDate = &later
	if p.ActiveAt(cutoff) {
		t.Fatalf("ActiveAt: project starting after cutoff should be inactive")
	}
	var nilProject *Project
	if nilProject.ActiveAt(cutoff) {
		t.Fatalf("ActiveAt: nil project should be inactive")
	}
}
