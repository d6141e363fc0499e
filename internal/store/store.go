// Package store owns the canonical event collection and user settings,
// persisted into an injectable durable key-value backend. Every public
// operation is synchronous, runs to completion without suspension, and
// converts storage faults into false/empty results instead of raising; a
// failed save is reported once in the log and never retried.
package store

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nuid"

	appLog "sharedcal/internal/log"
	"sharedcal/internal/model"
)

// Persisted key layout.
const (
	eventsKey    = "events"
	settingsKey  = "settings"
	versionKey   = "version"
	backupsKey   = "backups"
	syncQueueKey = "sync_queue"
)

// SchemaVersion is stamped alongside every save and on export.
const SchemaVersion = "1.0.0"

// maxBackups bounds the backup rotation; the oldest slot is evicted first.
const maxBackups = 10

// ChangeKind tags a cross-context change notification.
type ChangeKind string

const (
	ChangeEvents   ChangeKind = "events"
	ChangeSettings ChangeKind = "settings"
)

// Store is the sole authority for persistence. A single mutex guards every
// read-modify-write sequence, so add/update/delete cannot lose updates
// within one process; changes from other processes are only observed via
// OnChange notifications, never merged.
type Store struct {
	kv KV

	// Online reports whether the runtime considers itself connected.
	// QueueForSync only appends while offline. Defaults to always-online.
	Online func() bool
	// NewID generates backup and sync-entry identifiers.
	NewID func() string
	// Now is the wall clock, injectable for tests.
	Now func() time.Time

	mu        sync.Mutex
	listeners []func(ChangeKind)
	// lastWritten remembers a fingerprint of our own last write per key so
	// watcher callbacks for self-inflicted changes are suppressed.
	lastWritten map[string]uint64
	stopWatch   func()
}

// New wires a Store over the given KV. If the backend can watch for external
// changes, notifications start immediately; call Close to stop them.
func New(kv KV) *Store {
	s := &Store{
		kv:          kv,
		Online:      func() bool { return true },
		NewID:       nuid.Next,
		Now:         time.Now,
		lastWritten: make(map[string]uint64),
	}
	if w, ok := kv.(Watcher); ok {
		stop, err := w.Watch(s.handleExternalChange)
		if err != nil {
			appLog.Error("store: change watching unavailable", err)
		} else {
			s.stopWatch = stop
		}
	}
	return s
}

// Close stops external-change watching. The store remains usable.
func (s *Store) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

// OnChange registers a listener for cross-context changes to the events or
// settings keys. Notifications are "something changed, re-read" hints, never
// diffs, and arrive on a watcher goroutine after the other context commits.
func (s *Store) OnChange(fn func(ChangeKind)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) handleExternalChange(key string) {
	var kind ChangeKind
	switch key {
	case eventsKey:
		kind = ChangeEvents
	case settingsKey:
		kind = ChangeSettings
	default:
		return
	}

	s.mu.Lock()
	data, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		s.mu.Unlock()
		return
	}
	if s.lastWritten[key] == fingerprint(data) {
		// Our own write surfacing through the watcher.
		s.mu.Unlock()
		return
	}
	s.lastWritten[key] = fingerprint(data)
	listeners := make([]func(ChangeKind), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	appLog.Debug("store: external change observed", "key", key)
	for _, fn := range listeners {
		fn(kind)
	}
}

func fingerprint(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// set persists a key and records the payload fingerprint for self-change
// suppression. Callers hold s.mu.
func (s *Store) set(key string, data []byte) error {
	if err := s.kv.Set(key, data); err != nil {
		return err
	}
	s.lastWritten[key] = fingerprint(data)
	return nil
}

// Events returns the persisted collection. Absent, corrupt or
// wrongly-shaped storage yields an empty collection: availability wins over
// strict error surfacing, but a recovery is logged so it stays
// distinguishable from a legitimately empty store.
func (s *Store) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsLocked()
}

func (s *Store) eventsLocked() []model.Event {
	data, ok, err := s.kv.Get(eventsKey)
	if err != nil {
		appLog.Error("store: reading events failed, recovering empty", err)
		return []model.Event{}
	}
	if !ok {
		return []model.Event{}
	}
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		appLog.Error("store: corrupt events payload, recovering empty", err)
		return []model.Event{}
	}
	if events == nil {
		events = []model.Event{}
	}
	return events
}

// SaveEvents overwrites the entire collection verbatim and stamps the
// schema version. A nil collection is rejected; callers composing
// read-modify-write must pass the full list. Reports success.
func (s *Store) SaveEvents(events []model.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEventsLocked(events)
}

func (s *Store) saveEventsLocked(events []model.Event) bool {
	if events == nil {
		appLog.Error("store: events must be a collection", errors.New("nil collection"))
		return false
	}
	data, err := json.Marshal(events)
	if err != nil {
		appLog.Error("store: encoding events failed", err)
		return false
	}
	if err := s.set(eventsKey, data); err != nil {
		appLog.Error("store: saving events failed", err)
		return false
	}
	s.stampVersionLocked()
	return true
}

// AddEvent appends an event, filling in its id and timestamps when missing.
// Duplicate ids are not rejected: a second insert with the same id creates
// two independent records, a known sharp edge callers must avoid.
func (s *Store) AddEvent(ev model.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = s.NewID()
	}
	now := s.Now().UTC().Format(time.RFC3339)
	ev.CreatedAt = now
	ev.UpdatedAt = now

	events := append(s.eventsLocked(), ev)
	return s.saveEventsLocked(events)
}

// UpdateEvent shallow-merges patch over the stored record and refreshes
// updatedAt. Unknown patch keys are carried through the merge untouched.
// Reports false when the id is not found.
func (s *Store) UpdateEvent(id string, patch map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.eventsLocked()
	idx := -1
	for i := range events {
		if events[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		appLog.Warn("store: update for unknown event", "id", id)
		return false
	}

	merged, err := mergeEvent(events[idx], patch)
	if err != nil {
		appLog.Error("store: merging event patch failed", err, "id", id)
		return false
	}
	merged.UpdatedAt = s.Now().UTC().Format(time.RFC3339)
	events[idx] = merged

	return s.saveEventsLocked(events)
}

// mergeEvent overlays patch keys onto the JSON form of the record, the same
// shallow merge the export format is built from.
func mergeEvent(existing model.Event, patch map[string]any) (model.Event, error) {
	raw, err := json.Marshal(existing)
	if err != nil {
		return model.Event{}, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.Event{}, err
	}
	for k, v := range patch {
		m[k] = v
	}
	raw, err = json.Marshal(m)
	if err != nil {
		return model.Event{}, err
	}
	var merged model.Event
	if err := json.Unmarshal(raw, &merged); err != nil {
		return model.Event{}, err
	}
	return merged, nil
}

// DeleteEvent removes the event by id. Deleting an absent id succeeds
// vacuously.
func (s *Store) DeleteEvent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.eventsLocked()
	filtered := events[:0:0]
	for _, ev := range events {
		if ev.ID != id {
			filtered = append(filtered, ev)
		}
	}
	if filtered == nil {
		filtered = []model.Event{}
	}
	return s.saveEventsLocked(filtered)
}

// Event returns a single event by id.
func (s *Store) Event(id string) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.eventsLocked() {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Settings returns the persisted settings shallow-merged over the
// compiled-in defaults: decoding starts from DefaultSettings, so missing or
// partial persisted records never break reads.
func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked()
}

func (s *Store) settingsLocked() model.Settings {
	settings := model.DefaultSettings()
	data, ok, err := s.kv.Get(settingsKey)
	if err != nil {
		appLog.Error("store: reading settings failed, using defaults", err)
		return settings
	}
	if !ok {
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		appLog.Error("store: corrupt settings payload, using defaults", err)
		return model.DefaultSettings()
	}
	return settings
}

// SaveSettings persists the full settings record. Callers wanting a partial
// update read Settings first and modify it; the defaults merge happens at
// the deserialization boundary, not here.
func (s *Store) SaveSettings(settings model.Settings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSettingsLocked(settings)
}

func (s *Store) saveSettingsLocked(settings model.Settings) bool {
	data, err := json.Marshal(settings)
	if err != nil {
		appLog.Error("store: encoding settings failed", err)
		return false
	}
	if err := s.set(settingsKey, data); err != nil {
		appLog.Error("store: saving settings failed", err)
		return false
	}
	return true
}

// Migrate stamps the schema version on first use and re-stamps on a version
// mismatch. No structural transformations are defined yet; this is the hook
// where they would run.
func (s *Store) Migrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.kv.Get(versionKey)
	if err != nil {
		appLog.Error("store: reading schema version failed", err)
		return
	}
	if !ok {
		s.stampVersionLocked()
		return
	}
	var current string
	if err := json.Unmarshal(data, &current); err != nil || current != SchemaVersion {
		appLog.Info("store: migrating schema", "from", current, "to", SchemaVersion)
		s.stampVersionLocked()
	}
}

func (s *Store) stampVersionLocked() {
	data, _ := json.Marshal(SchemaVersion)
	if err := s.set(versionKey, data); err != nil {
		appLog.Error("store: stamping schema version failed", err)
	}
}

// StorageSize returns the total byte size of every persisted payload.
func (s *Store) StorageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageSizeLocked()
}

func (s *Store) storageSizeLocked() int {
	total := 0
	for _, key := range []string{eventsKey, settingsKey, versionKey, backupsKey, syncQueueKey} {
		if data, ok, err := s.kv.Get(key); err == nil && ok {
			total += len(data)
		}
	}
	return total
}

// ClearAll discards every persisted key: events, settings, version, backups
// and the sync queue.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{eventsKey, settingsKey, versionKey, backupsKey, syncQueueKey} {
		if err := s.kv.Delete(key); err != nil {
			appLog.Error("store: clearing key failed", err, "key", key)
		}
		delete(s.lastWritten, key)
	}
}

// idFromTimestamp derives a backup/sync id from the clock. Nanosecond
// precision keeps rapid successive calls distinct.
func (s *Store) idFromTimestamp() string {
	return strconv.FormatInt(s.Now().UnixNano(), 10)
}
