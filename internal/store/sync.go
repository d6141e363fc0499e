package store

import (
	"encoding/json"
	"time"

	appLog "sharedcal/internal/log"
	"sharedcal/internal/model"
)

// QueueForSync appends a pending write to the durable sync queue, but only
// while the runtime reports an offline condition; online writes are presumed
// applied and never queued. The queue is inert: no drain to a remote system
// exists yet. Reports whether an entry was queued.
func (s *Store) QueueForSync(action string, data any) bool {
	if s.Online() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		appLog.Error("store: encoding sync payload failed", err, "action", action)
		return false
	}

	queue := append(s.syncQueueLocked(), model.SyncEntry{
		ID:        s.idFromTimestamp(),
		Action:    action,
		Data:      payload,
		Timestamp: s.Now().UTC().Format(time.RFC3339),
	})

	raw, err := json.Marshal(queue)
	if err != nil {
		appLog.Error("store: encoding sync queue failed", err)
		return false
	}
	if err := s.set(syncQueueKey, raw); err != nil {
		appLog.Error("store: saving sync queue failed", err)
		return false
	}
	return true
}

// SyncQueue returns the pending entries, oldest first.
func (s *Store) SyncQueue() []model.SyncEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncQueueLocked()
}

func (s *Store) syncQueueLocked() []model.SyncEntry {
	data, ok, err := s.kv.Get(syncQueueKey)
	if err != nil {
		appLog.Error("store: reading sync queue failed, recovering empty", err)
		return []model.SyncEntry{}
	}
	if !ok {
		return []model.SyncEntry{}
	}
	var queue []model.SyncEntry
	if err := json.Unmarshal(data, &queue); err != nil {
		appLog.Error("store: corrupt sync queue payload, recovering empty", err)
		return []model.SyncEntry{}
	}
	if queue == nil {
		queue = []model.SyncEntry{}
	}
	return queue
}

// ClearSyncQueue discards the queue wholesale. This is the only consumer the
// queue currently has.
func (s *Store) ClearSyncQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(syncQueueKey); err != nil {
		appLog.Error("store: clearing sync queue failed", err)
	}
	delete(s.lastWritten, syncQueueKey)
}
