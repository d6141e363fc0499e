package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sharedcal/internal/event"
	"sharedcal/internal/grid"
	"sharedcal/internal/ical"
	appLog "sharedcal/internal/log"
	"sharedcal/internal/model"
	"sharedcal/internal/store"
	"sharedcal/internal/validate"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("encoding response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// eventRequest is the create-event payload. Suggest fills category, color,
// icon and priority from the title for any field the client left empty.
// ExpandUntil, when set alongside a recurrence rule, materializes repeat
// instances through the given date.
type eventRequest struct {
	Title          string                `json:"title"`
	Date           string                `json:"date"`
	StartTime      string                `json:"startTime"`
	EndTime        string                `json:"endTime"`
	Description    string                `json:"description"`
	Color          string                `json:"color"`
	Icon           string                `json:"icon"`
	Category       model.Category        `json:"category"`
	Priority       model.Priority        `json:"priority"`
	Status         model.Status          `json:"status"`
	SharedWith     []string              `json:"sharedWith"`
	Reminders      []int                 `json:"reminders"`
	Location       string                `json:"location"`
	URL            string                `json:"url"`
	IsRecurring    bool                  `json:"isRecurring"`
	RecurrenceRule *model.RecurrenceRule `json:"recurrenceRule"`
	Suggest        bool                  `json:"suggest"`
	ExpandUntil    string                `json:"expandUntil"`
}

// createResponse reports the stored event plus any same-day time conflicts
// and materialized recurrence instances.
type createResponse struct {
	Event     model.Event   `json:"event"`
	Conflicts []model.Event `json:"conflicts"`
	Instances []model.Event `json:"instances,omitempty"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Events())
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	opts := event.Options{
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Description:    req.Description,
		Color:          req.Color,
		Icon:           req.Icon,
		Category:       req.Category,
		Priority:       req.Priority,
		Status:         req.Status,
		SharedWith:     req.SharedWith,
		Reminders:      req.Reminders,
		Location:       req.Location,
		URL:            req.URL,
		IsRecurring:    req.IsRecurring,
		RecurrenceRule: req.RecurrenceRule,
	}
	if req.Suggest {
		sg := event.SuggestDetails(req.Title)
		if opts.Category == "" {
			opts.Category = sg.Category
		}
		if opts.Color == "" {
			opts.Color = sg.Color
		}
		if opts.Icon == "" {
			opts.Icon = sg.Icon
		}
		if opts.Priority == "" {
			opts.Priority = sg.Priority
		}
	}

	ev := s.factory.New(req.Title, req.Date, opts)
	if result := validate.Event(ev); !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	conflicts := event.FindConflicts(ev, s.store.Events())
	if !s.store.AddEvent(ev) {
		writeError(w, http.StatusInternalServerError, "failed to save event")
		return
	}

	resp := createResponse{Event: ev, Conflicts: conflicts}
	if ev.IsRecurring && ev.RecurrenceRule != nil && req.ExpandUntil != "" {
		instances, err := s.factory.ExpandRecurrence(ev, *ev.RecurrenceRule, req.ExpandUntil)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, inst := range instances {
			if !s.store.AddEvent(inst) {
				writeError(w, http.StatusInternalServerError, "failed to save recurrence instance")
				return
			}
		}
		resp.Instances = instances
	}

	s.invalidateGrid()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.store.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.store.UpdateEvent(id, patch) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	ev, _ := s.store.Event(id)
	s.invalidateGrid()
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	s.store.DeleteEvent(r.PathValue("id"))
	s.invalidateGrid()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleGrid lays out one month. Without year/month parameters it renders
// the current month. Week start and compact mode come from settings unless
// overridden by query parameters.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	now := s.engine.Now()
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	settings := s.store.Settings()
	opts := grid.Options{
		WeekStart: time.Weekday(settings.StartOfWeek % 7),
		Compact:   settings.CompactView,
	}
	if v := q.Get("weekStart"); v != "" {
		opts.WeekStart = time.Weekday(parseIntDefault(v, settings.StartOfWeek) % 7)
	}
	if v := q.Get("compact"); v != "" {
		opts.Compact = v == "true" || v == "1"
	}

	key := fmt.Sprintf("%d-%02d-%d-%t", year, month, opts.WeekStart, opts.Compact)

	s.gridMu.RLock()
	cached := s.gridCache
	s.gridMu.RUnlock()
	if cached != nil && cached.key == key && time.Since(cached.updatedAt) < gridCacheTTL {
		writeJSON(w, http.StatusOK, cached.layout)
		return
	}

	anchor := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	layout := s.engine.Layout(anchor, s.store.Events(), opts)

	s.gridMu.Lock()
	s.gridCache = &gridCache{key: key, layout: layout, updatedAt: time.Now()}
	s.gridMu.Unlock()

	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Settings())
}

// handlePutSettings applies a partial update: the body is decoded over the
// current record, so absent keys keep their stored values.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.store.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.store.SaveSettings(settings) {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.invalidateGrid()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := s.store.ExportData()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	result := s.store.ImportData(body)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	} else {
		s.invalidateGrid()
	}
	writeJSON(w, status, result)
}

func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	body, err := ical.Export(s.store.Events())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "calendar export failed")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleListBackups(w http.ResponseWriter, _ *http.Request) {
	// Strip payloads from the listing; restore fetches by id.
	backups := s.store.Backups()
	type backupInfo struct {
		ID   string `json:"id"`
		Date string `json:"date"`
		Size int    `json:"size"`
	}
	out := make([]backupInfo, 0, len(backups))
	for _, b := range backups {
		out = append(out, backupInfo{ID: b.ID, Date: b.Date, Size: len(b.Data)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, _ *http.Request) {
	id, ok := s.store.CreateBackup()
	if !ok {
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	result := s.store.RestoreBackup(r.PathValue("id"))
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
		if result.Error == "Backup not found" {
			status = http.StatusNotFound
		}
	} else {
		s.invalidateGrid()
	}
	writeJSON(w, status, result)
}

func (s *Server) handleSyncQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.SyncQueue())
}

func (s *Server) handleClearSyncQueue(w http.ResponseWriter, _ *http.Request) {
	s.store.ClearSyncQueue()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SearchFilter{
		DateFrom:   q.Get("from"),
		DateTo:     q.Get("to"),
		Category:   model.Category(q.Get("category")),
		SharedOnly: q.Get("shared") == "true",
	}
	writeJSON(w, http.StatusOK, s.store.SearchEvents(q.Get("q"), filter))
}

// handleStatistics merges storage-level counters with the per-category,
// per-priority and per-month event breakdown.
func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	type statsResponse struct {
		store.Statistics
		Breakdown event.Statistics `json:"breakdown"`
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Statistics: s.store.Statistics(),
		Breakdown:  event.EventStatistics(s.store.Events()),
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title query parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, event.SuggestDetails(title))
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, event.Templates())
}
