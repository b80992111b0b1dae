package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/ops-backend/internal/fieldops"
)

// EventSink stores synced calendar events.
type EventSink interface {
	UpsertScheduleEvents(ctx context.Context, events []fieldops.ScheduleEvent) error
}

// calendarNamespace maps calendar event ids onto stable row ids, so redelivered
// payloads update rows in place.
var calendarNamespace = uuid.MustParse("0b7e4c1d-92af-5c3e-b6d0-7a18f25e9c43")

type calendarEvent struct {
	EventID      string `json:"event_id"`
	JobID        string `json:"job_id"`
	CrewMemberID string `json:"crew_member_id"`
	Start        string `json:"start"`
	Type         string `json:"type"`
	Title        string `json:"title"`
}

type calendarPayload struct {
	Events []calendarEvent `json:"events"`
}

type CalendarHandler struct {
	sink   EventSink
	secret string
}

func NewCalendarHandler(sink EventSink, secret string) *CalendarHandler {
	return &CalendarHandler{sink: sink, secret: secret}
}

// ServeHTTP accepts a signed batch of calendar events.
func (h *CalendarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	if h.secret == "" {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	if !verifySignature(r.Header.Get("X-Calendar-Signature"), raw, h.secret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var p calendarPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	events := make([]fieldops.ScheduleEvent, 0, len(p.Events))
	skipped := 0
	for _, ev := range p.Events {
		row, ok := toScheduleEvent(ev)
		if !ok {
			skipped++
			continue
		}
		events = append(events, row)
	}

	if len(events) > 0 {
		if err := h.sink.UpsertScheduleEvents(r.Context(), events); err != nil {
			log.Printf("[webhooks] calendar upsert failed: %v", err)
			http.Error(w, "db upsert failed", http.StatusInternalServerError)
			return
		}
	}
	log.Printf("[webhooks] calendar sync: %d stored, %d skipped", len(events), skipped)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]int{"stored": len(events), "skipped": skipped})
}

// toScheduleEvent drops events without an id, owner or parsable start. A
// missing or malformed job_id is kept as a job-less event.
func toScheduleEvent(ev calendarEvent) (fieldops.ScheduleEvent, bool) {
	if ev.EventID == "" || ev.CrewMemberID == "" {
		return fieldops.ScheduleEvent{}, false
	}
	start, err := time.Parse(time.RFC3339, ev.Start)
	if err != nil {
		return fieldops.ScheduleEvent{}, false
	}

	row := fieldops.ScheduleEvent{
		ID:           uuid.NewSHA1(calendarNamespace, []byte(ev.EventID)),
		CrewMemberID: ev.CrewMemberID,
		Start:        start,
		Type:         strings.ToLower(strings.TrimSpace(ev.Type)),
		Title:        ev.Title,
	}
	if row.Type == "" {
		row.Type = "job"
	}
	if id, err := uuid.Parse(ev.JobID); err == nil {
		row.JobID = &id
	}
	return row, true
}

func verifySignature(sig string, raw []byte, secret string) bool {
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
