package politeness

import (
	"testing"
	"time"
)

func TestWaitForEnforcesSpacing(t *testing.T) {
	c := NewClock(50 * time.Millisecond)
	c.WaitFor("h.ics.uci.edu")
	start := time.Now()
	c.WaitFor("h.ics.uci.edu")
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond {
		t.Fatalf("expected at least 50ms spacing, got %v", elapsed)
	}
}

func TestWaitForIndependentHosts(t *testing.T) {
	c := NewClock(200 * time.Millisecond)
	c.WaitFor("a.ics.uci.edu")
	start := time.Now()
	c.WaitFor("b.ics.uci.edu")
	elapsed := time.Since(start)
	if elapsed > 50*time.Millisecond {
		t.Fatalf("distinct hosts should not block each other, waited %v", elapsed)
	}
}
