package service

import (
	"testing"
	"time"
)

// fakeClock lets tests step the suppressor's view of time.
type fakeClock struct {
	at time.Time
}

func (c *fakeClock) now() time.Time          { return c.at }
func (c *fakeClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestSuppressor(cooldown time.Duration) (*Suppressor, *fakeClock) {
	clk := &fakeClock{at: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)}
	s := NewSuppressor(cooldown)
	s.now = clk.now
	return s, clk
}

func TestSuppressor_NormalClearsAndSuppresses(t *testing.T) {
	t.Parallel()
	s, _ := newTestSuppressor(30 * time.Second)

	if !s.Approve("Open_Circuit", false) {
		t.Fatal("first fault must notify")
	}
	if s.Approve("Normal", false) {
		t.Fatal("Normal must never notify")
	}
	if last, _ := s.Last(); last != "" {
		t.Fatalf("Normal must clear memory, got %q", last)
	}
	// Memory cleared: the same fault notifies again immediately.
	if !s.Approve("Open_Circuit", false) {
		t.Fatal("fault after Normal reset must notify")
	}
}

func TestSuppressor_CooldownWindow(t *testing.T) {
	t.Parallel()
	s, clk := newTestSuppressor(30 * time.Second)

	if !s.Approve("Partial_Shading", false) {
		t.Fatal("first fault must notify")
	}
	clk.advance(5 * time.Second)
	if s.Approve("Partial_Shading", false) {
		t.Fatal("same fault inside cooldown must suppress")
	}
	clk.advance(26 * time.Second) // 31 s since approval
	if !s.Approve("Partial_Shading", false) {
		t.Fatal("same fault after cooldown must notify")
	}
}

func TestSuppressor_DifferentFaultEscapesCooldown(t *testing.T) {
	t.Parallel()
	s, clk := newTestSuppressor(30 * time.Second)

	if !s.Approve("Dust_Accumulation", false) {
		t.Fatal("first fault must notify")
	}
	clk.advance(time.Second)
	if !s.Approve("Short_Circuit", false) {
		t.Fatal("a new escalating fault must notify promptly")
	}
}

func TestSuppressor_SimulatedAlertsOncePerFaultChange(t *testing.T) {
	t.Parallel()
	s, clk := newTestSuppressor(30 * time.Second)

	if !s.Approve("Partial_Shading", true) {
		t.Fatal("first simulated fault must notify")
	}
	// Even well past the cooldown, a simulated repeat stays quiet until the
	// fault type changes.
	clk.advance(10 * time.Minute)
	if s.Approve("Partial_Shading", true) {
		t.Fatal("simulated repeat of same fault must suppress")
	}
	if !s.Approve("Short_Circuit", true) {
		t.Fatal("simulated fault change must notify")
	}
}

func TestSuppressor_ApprovalUpdatesMemoryBeforeDelivery(t *testing.T) {
	t.Parallel()
	s, clk := newTestSuppressor(30 * time.Second)

	_ = s.Approve("Open_Circuit", false)
	fault, at := s.Last()
	if fault != "Open_Circuit" {
		t.Fatalf("memory fault: want Open_Circuit, got %q", fault)
	}
	if !at.Equal(clk.at) {
		t.Fatalf("memory time: want %v, got %v", clk.at, at)
	}
}

func TestSuppressor_Reset(t *testing.T) {
	t.Parallel()
	s, _ := newTestSuppressor(30 * time.Second)

	_ = s.Approve("Dust_Accumulation", true)
	s.Reset()
	if !s.Approve("Dust_Accumulation", true) {
		t.Fatal("after Reset the same simulated fault must notify again")
	}
}
