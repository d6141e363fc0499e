package store

import (
	"encoding/json"
	"time"

	appLog "sharedcal/internal/log"
	"sharedcal/internal/model"
)

// exportPayload is the snapshot file format:
// {events, settings, version, exportDate}. Unknown extra fields on import
// are ignored.
type exportPayload struct {
	Events     []model.Event  `json:"events"`
	Settings   model.Settings `json:"settings"`
	Version    string         `json:"version"`
	ExportDate string         `json:"exportDate"`
}

// ImportResult describes the outcome of an import or restore.
type ImportResult struct {
	Success        bool   `json:"success"`
	EventsImported int    `json:"eventsImported"`
	EventsSkipped  int    `json:"eventsSkipped"`
	Error          string `json:"error,omitempty"`
}

// ExportData serializes the full state: events, settings, format version and
// an export timestamp.
func (s *Store) ExportData() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

func (s *Store) exportLocked() ([]byte, error) {
	payload := exportPayload{
		Events:     s.eventsLocked(),
		Settings:   s.settingsLocked(),
		Version:    SchemaVersion,
		ExportDate: s.Now().UTC().Format(time.RFC3339),
	}
	return json.MarshalIndent(payload, "", "  ")
}

// ImportData parses a snapshot and replaces the persisted collection with
// its surviving events: records missing a title, date or id are counted as
// skipped, not fatal. Settings, when present, merge over the current ones.
// A malformed snapshot (unparseable, or no events sequence) reports failure
// and persists nothing.
func (s *Store) ImportData(snapshot []byte) ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importLocked(snapshot)
}

func (s *Store) importLocked(snapshot []byte) ImportResult {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(snapshot, &raw); err != nil {
		appLog.Error("store: import parse failed", err)
		return ImportResult{Error: "invalid data format"}
	}

	eventsRaw, ok := raw["events"]
	if !ok {
		return ImportResult{Error: "invalid data format: events array missing"}
	}
	var records []json.RawMessage
	if err := json.Unmarshal(eventsRaw, &records); err != nil {
		return ImportResult{Error: "invalid data format: events array missing"}
	}

	valid := make([]model.Event, 0, len(records))
	skipped := 0
	for _, rec := range records {
		var ev model.Event
		if err := json.Unmarshal(rec, &ev); err != nil {
			skipped++
			continue
		}
		if ev.Title == "" || ev.Date == "" || ev.ID == "" {
			skipped++
			continue
		}
		valid = append(valid, ev)
	}
	if skipped > 0 {
		appLog.Warn("store: import skipped malformed events", "skipped", skipped)
	}

	if !s.saveEventsLocked(valid) {
		return ImportResult{Error: "saving imported events failed"}
	}

	if settingsRaw, ok := raw["settings"]; ok {
		// Partial settings decode over the current record, then persist.
		settings := s.settingsLocked()
		if err := json.Unmarshal(settingsRaw, &settings); err != nil {
			appLog.Error("store: import settings ignored", err)
		} else {
			s.saveSettingsLocked(settings)
		}
	}

	return ImportResult{
		Success:        true,
		EventsImported: len(valid),
		EventsSkipped:  skipped,
	}
}

// CreateBackup snapshots a full export into the rotation under a
// timestamp-derived id and returns that id. At most maxBackups are retained;
// the oldest is evicted first.
func (s *Store) CreateBackup() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.exportLocked()
	if err != nil {
		appLog.Error("store: backup export failed", err)
		return "", false
	}

	backup := model.Backup{
		ID:   s.idFromTimestamp(),
		Date: s.Now().UTC().Format(time.RFC3339),
		Data: string(data),
	}

	backups := append(s.backupsLocked(), backup)
	if len(backups) > maxBackups {
		backups = backups[len(backups)-maxBackups:]
	}

	raw, err := json.Marshal(backups)
	if err != nil {
		appLog.Error("store: encoding backups failed", err)
		return "", false
	}
	if err := s.set(backupsKey, raw); err != nil {
		appLog.Error("store: saving backups failed", err)
		return "", false
	}
	return backup.ID, true
}

// Backups returns the retained rotation, oldest first.
func (s *Store) Backups() []model.Backup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backupsLocked()
}

func (s *Store) backupsLocked() []model.Backup {
	data, ok, err := s.kv.Get(backupsKey)
	if err != nil {
		appLog.Error("store: reading backups failed, recovering empty", err)
		return []model.Backup{}
	}
	if !ok {
		return []model.Backup{}
	}
	var backups []model.Backup
	if err := json.Unmarshal(data, &backups); err != nil {
		appLog.Error("store: corrupt backups payload, recovering empty", err)
		return []model.Backup{}
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	return backups
}

// RestoreBackup locates the backup by id and imports its snapshot.
func (s *Store) RestoreBackup(id string) ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.backupsLocked() {
		if b.ID == id {
			return s.importLocked([]byte(b.Data))
		}
	}
	return ImportResult{Error: "Backup not found"}
}
