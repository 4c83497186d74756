package service

import "sync"

// MailboxService is the per-station command outbox: a single slot per station,
// last write wins, removed on first successful dequeue. One mutex serializes
// every operation across stations; operations are O(1), so the shared lock
// is adequate at the expected fleet size.
type MailboxService struct {
	mu      sync.Mutex
	pending map[int]string
}

func NewMailboxService() *MailboxService {
	return &MailboxService{pending: make(map[int]string)}
}

// Enqueue stores the command for the station, overwriting any pending one.
func (m *MailboxService) Enqueue(stationID int, command string) {
	m.mu.Lock()
	m.pending[stationID] = command
	m.mu.Unlock()
}

// Dequeue atomically removes and returns the pending command. The second
// return value distinguishes "no content" from an empty command string.
func (m *MailboxService) Dequeue(stationID int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd, ok := m.pending[stationID]
	if ok {
		delete(m.pending, stationID)
	}
	return cmd, ok
}
