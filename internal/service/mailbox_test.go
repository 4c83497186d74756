package service

import (
	"sync"
	"testing"
)

func TestMailbox_DequeueWithoutEnqueue(t *testing.T) {
	t.Parallel()
	m := NewMailboxService()

	if cmd, ok := m.Dequeue(7); ok || cmd != "" {
		t.Fatalf("want no content, got %q ok=%v", cmd, ok)
	}
}

func TestMailbox_DequeueExactlyOnce(t *testing.T) {
	t.Parallel()
	m := NewMailboxService()

	m.Enqueue(3, "TOGGLE_RELAY")

	cmd, ok := m.Dequeue(3)
	if !ok || cmd != "TOGGLE_RELAY" {
		t.Fatalf("first dequeue: want TOGGLE_RELAY, got %q ok=%v", cmd, ok)
	}
	if cmd, ok := m.Dequeue(3); ok || cmd != "" {
		t.Fatalf("second dequeue must be empty, got %q ok=%v", cmd, ok)
	}
}

func TestMailbox_LastWriteWins(t *testing.T) {
	t.Parallel()
	m := NewMailboxService()

	m.Enqueue(5, "TOGGLE_RELAY")
	m.Enqueue(5, "REBOOT")

	cmd, ok := m.Dequeue(5)
	if !ok || cmd != "REBOOT" {
		t.Fatalf("want the overwriting command REBOOT, got %q ok=%v", cmd, ok)
	}
}

func TestMailbox_StationsAreIndependent(t *testing.T) {
	t.Parallel()
	m := NewMailboxService()

	m.Enqueue(1, "A")
	m.Enqueue(2, "B")

	if cmd, _ := m.Dequeue(2); cmd != "B" {
		t.Fatalf("station 2: want B, got %q", cmd)
	}
	if cmd, _ := m.Dequeue(1); cmd != "A" {
		t.Fatalf("station 1: want A, got %q", cmd)
	}
}

func TestMailbox_ConcurrentDequeueDeliversOnce(t *testing.T) {
	t.Parallel()
	m := NewMailboxService()
	m.Enqueue(9, "PING")

	const workers = 16
	var wg sync.WaitGroup
	hits := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cmd, ok := m.Dequeue(9); ok {
				hits <- cmd
			}
		}()
	}
	wg.Wait()
	close(hits)

	var got []string
	for c := range hits {
		got = append(got, c)
	}
	if len(got) != 1 || got[0] != "PING" {
		t.Fatalf("command must be delivered exactly once, got %v", got)
	}
}
