package store

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"sharedcal/internal/model"
)

// newTestStore returns a store over a fresh MemoryKV with a deterministic
// clock and id sequence.
func newTestStore() *Store {
	s := New(NewMemoryKV())
	n := 0
	s.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	return s
}

func TestEventsEmptyWhenAbsent(t *testing.T) {
	s := newTestStore()
	events := s.Events()
	if events == nil || len(events) != 0 {
		t.Fatalf("expected empty collection, got %v", events)
	}
}

func TestEventsRecoversFromCorruptPayload(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set(eventsKey, []byte("{not json"))
	s := New(kv)
	if events := s.Events(); len(events) != 0 {
		t.Fatalf("expected recovered-empty, got %v", events)
	}

	// Wrong shape: an object instead of an array.
	kv.Set(eventsKey, []byte(`{"id":"x"}`))
	if events := s.Events(); len(events) != 0 {
		t.Fatalf("expected recovered-empty for wrong shape, got %v", events)
	}
}

func TestEventsIdempotentRead(t *testing.T) {
	s := newTestStore()
	s.AddEvent(model.Event{Title: "a", Date: "2024-03-01"})

	first := s.Events()
	second := s.Events()
	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Fatalf("reads differ: %v vs %v", first, second)
	}
}

func TestSaveEventsRejectsNil(t *testing.T) {
	s := newTestStore()
	if s.SaveEvents(nil) {
		t.Fatal("nil collection must be rejected")
	}
	if s.SaveEvents([]model.Event{}) != true {
		t.Fatal("empty collection must be accepted")
	}
}

func TestSaveEventsStampsVersion(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)
	s.SaveEvents([]model.Event{})

	data, ok, _ := kv.Get(versionKey)
	if !ok {
		t.Fatal("version not stamped")
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil || v != SchemaVersion {
		t.Fatalf("version = %q, want %q", v, SchemaVersion)
	}
}

func TestAddEventFillsIDAndTimestamps(t *testing.T) {
	s := newTestStore()
	if !s.AddEvent(model.Event{Title: "a", Date: "2024-03-01"}) {
		t.Fatal("add failed")
	}

	events := s.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID != "id-1" {
		t.Errorf("ID = %q", ev.ID)
	}
	if ev.CreatedAt == "" || ev.CreatedAt != ev.UpdatedAt {
		t.Errorf("timestamps = %q / %q", ev.CreatedAt, ev.UpdatedAt)
	}
}

func TestAddEventDuplicateIDCreatesTwoRecords(t *testing.T) {
	// Known sharp edge: insert does not reject duplicate ids.
	s := newTestStore()
	s.AddEvent(model.Event{ID: "dup", Title: "a", Date: "2024-03-01"})
	s.AddEvent(model.Event{ID: "dup", Title: "b", Date: "2024-03-02"})
	if got := len(s.Events()); got != 2 {
		t.Fatalf("expected 2 independent records, got %d", got)
	}
}

func TestUpdateEventShallowMerge(t *testing.T) {
	s := newTestStore()
	s.AddEvent(model.Event{
		ID: "e1", Title: "Old", Date: "2024-03-01",
		StartTime: "09:00", EndTime: "10:00",
		Tags: []string{"keep"},
	})
	before, _ := s.Event("e1")

	ok := s.UpdateEvent("e1", map[string]any{
		"title": "New",
		"color": "#abc",
	})
	if !ok {
		t.Fatal("update failed")
	}

	after, _ := s.Event("e1")
	if after.Title != "New" || after.Color != "#abc" {
		t.Errorf("patch not applied: %+v", after)
	}
	if after.StartTime != "09:00" || len(after.Tags) != 1 {
		t.Errorf("unpatched fields lost: %+v", after)
	}
	if after.CreatedAt != before.CreatedAt {
		t.Errorf("createdAt changed on update")
	}
	if after.UpdatedAt == before.UpdatedAt {
		t.Errorf("updatedAt not refreshed")
	}
}

func TestUpdateEventUnknownID(t *testing.T) {
	s := newTestStore()
	if s.UpdateEvent("ghost", map[string]any{"title": "x"}) {
		t.Fatal("expected failure for unknown id")
	}
}

func TestDeleteEvent(t *testing.T) {
	s := newTestStore()
	s.AddEvent(model.Event{ID: "e1", Title: "a", Date: "2024-03-01"})
	s.AddEvent(model.Event{ID: "e2", Title: "b", Date: "2024-03-02"})

	if !s.DeleteEvent("e1") {
		t.Fatal("delete failed")
	}
	events := s.Events()
	if len(events) != 1 || events[0].ID != "e2" {
		t.Fatalf("events = %v", events)
	}

	// Deleting an absent id succeeds vacuously.
	if !s.DeleteEvent("ghost") {
		t.Fatal("vacuous delete must succeed")
	}
}

func TestSettingsDefaultsAndMerge(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)

	if got := s.Settings(); got != model.DefaultSettings() {
		t.Fatalf("absent settings must yield defaults, got %+v", got)
	}

	// Partial persisted record: unknown and missing keys tolerated.
	kv.Set(settingsKey, []byte(`{"theme":"dark","unknownKey":1}`))
	got := s.Settings()
	if got.Theme != "dark" {
		t.Errorf("Theme = %q", got.Theme)
	}
	if got.TimeFormat != 12 || got.Language != "en" {
		t.Errorf("missing keys must keep defaults: %+v", got)
	}

	// Corrupt payload falls back to defaults.
	kv.Set(settingsKey, []byte("corrupt"))
	if got := s.Settings(); got != model.DefaultSettings() {
		t.Fatalf("corrupt settings must yield defaults, got %+v", got)
	}
}

func TestSaveSettings(t *testing.T) {
	s := newTestStore()
	settings := s.Settings()
	settings.StartOfWeek = 1
	settings.TimeFormat = 24
	if !s.SaveSettings(settings) {
		t.Fatal("save failed")
	}
	got := s.Settings()
	if got.StartOfWeek != 1 || got.TimeFormat != 24 {
		t.Fatalf("settings not persisted: %+v", got)
	}
	if got.Theme != "light" {
		t.Fatalf("untouched fields lost: %+v", got)
	}
}

func TestMigrateStampsAndRestamps(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)

	s.Migrate()
	data, ok, _ := kv.Get(versionKey)
	if !ok {
		t.Fatal("first migrate must stamp version")
	}
	var v string
	json.Unmarshal(data, &v)
	if v != SchemaVersion {
		t.Fatalf("version = %q", v)
	}

	// Mismatch: re-stamp without structural changes.
	kv.Set(versionKey, []byte(`"0.9.0"`))
	s.Migrate()
	data, _, _ = kv.Get(versionKey)
	json.Unmarshal(data, &v)
	if v != SchemaVersion {
		t.Fatalf("version after migrate = %q", v)
	}
}

func TestClearAllAndStorageSize(t *testing.T) {
	s := newTestStore()
	s.AddEvent(model.Event{Title: "a", Date: "2024-03-01"})
	s.SaveSettings(s.Settings())

	if s.StorageSize() == 0 {
		t.Fatal("expected non-zero storage size")
	}

	s.ClearAll()
	if s.StorageSize() != 0 {
		t.Fatal("expected zero storage size after clear")
	}
	if len(s.Events()) != 0 {
		t.Fatal("expected no events after clear")
	}
}

func TestOnChangeExternalOnly(t *testing.T) {
	s := newTestStore()

	var got []ChangeKind
	s.OnChange(func(k ChangeKind) { got = append(got, k) })

	// A self-write must not notify: the fingerprint matches.
	s.AddEvent(model.Event{Title: "a", Date: "2024-03-01"})
	s.handleExternalChange(eventsKey)
	if len(got) != 0 {
		t.Fatalf("self-write must be suppressed, got %v", got)
	}

	// Simulate another context committing a different payload.
	s.kv.Set(eventsKey, []byte(`[{"id":"x","title":"t","date":"2024-03-02"}]`))
	s.handleExternalChange(eventsKey)
	if len(got) != 1 || got[0] != ChangeEvents {
		t.Fatalf("notifications = %v, want [events]", got)
	}

	s.kv.Set(settingsKey, []byte(`{"theme":"dark"}`))
	s.handleExternalChange(settingsKey)
	if len(got) != 2 || got[1] != ChangeSettings {
		t.Fatalf("notifications = %v, want settings appended", got)
	}

	// Unrelated keys never notify.
	s.handleExternalChange(backupsKey)
	if len(got) != 2 {
		t.Fatalf("unexpected notification for backups key: %v", got)
	}
}
