package service

import (
	"sync"
	"time"

	"solarwatch/internal/models"
)

// defaultCooldown is the minimum gap between notifications for the same
// fault type.
const defaultCooldown = 30 * time.Second

// Suppressor is the stateful notify-or-suppress policy. One instance serves
// the whole process: concurrent sessions share a single cooldown clock.
type Suppressor struct {
	mu        sync.Mutex
	cooldown  time.Duration
	lastFault string
	lastAt    time.Time

	now func() time.Time // test hook
}

func NewSuppressor(cooldown time.Duration) *Suppressor {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Suppressor{cooldown: cooldown, now: time.Now}
}

// Approve decides whether a fault verdict may notify. Rules, in order:
//  1. Normal clears the memory and suppresses.
//  2. A simulated source alerts once per fault-type change, not per tick.
//  3. The same fault inside the cooldown window suppresses.
//  4. Otherwise notify; the memory is updated on approval, regardless of
//     whether the later transmission succeeds.
func (s *Suppressor) Approve(fault string, simulated bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fault == models.FaultNameNormal {
		s.lastFault = ""
		s.lastAt = time.Time{}
		return false
	}
	if simulated && fault == s.lastFault {
		return false
	}
	if fault == s.lastFault && !s.lastAt.IsZero() && s.now().Sub(s.lastAt) < s.cooldown {
		return false
	}

	s.lastFault = fault
	s.lastAt = s.now()
	return true
}

// Reset clears the last-notified memory (fault profile change, reconfigure).
func (s *Suppressor) Reset() {
	s.mu.Lock()
	s.lastFault = ""
	s.lastAt = time.Time{}
	s.mu.Unlock()
}

// Last returns the most recently approved fault and when it was approved.
func (s *Suppressor) Last() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFault, s.lastAt
}
