package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("RADAR_TEST_INT", " 42 ")
	if got := Int("RADAR_TEST_INT", 7); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	t.Setenv("RADAR_TEST_INT", "nope")
	if got := Int("RADAR_TEST_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("RADAR_TEST_BOOL", "off")
	if Bool("RADAR_TEST_BOOL", true) {
		t.Fatalf("Bool: expected false for off")
	}
	t.Setenv("RADAR_TEST_BOOL", "maybe")
	if !Bool("RADAR_TEST_BOOL", true) {
		t.Fatalf("Bool: expected default for unknown value")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("RADAR_TEST_DUR", "1500ms")
	if got := Duration("RADAR_TEST_DUR", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("Duration: want=1.5s got=%s", got)
	}
	t.Setenv("RADAR_TEST_DUR", "30")
	if got := Duration("RADAR_TEST_DUR", time.Second); got != 30*time.Second {
		t.Fatalf("Duration seconds: want=30s got=%s", got)
	}
	t.Setenv("RADAR_TEST_DUR", "")
	if got := Duration("RADAR_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("Duration default: want=1s got=%s", got)
	}
}
