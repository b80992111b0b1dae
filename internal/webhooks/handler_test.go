package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/fieldline/ops-backend/internal/fieldops"
)

type mockSink struct {
	got []fieldops.ScheduleEvent
	err error
}

func (m *mockSink) UpsertScheduleEvents(ctx context.Context, events []fieldops.ScheduleEvent) error {
	m.got = append(m.got, events...)
	return m.err
}

const testSecret = "s3cret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func post(t *testing.T, h http.Handler, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/calendar", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("X-Calendar-Signature", sig)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const payload = `{"events":[
	{"event_id":"evt-1","job_id":"11111111-1111-1111-1111-111111111111","crew_member_id":"crew-1","start":"2026-03-10T09:00:00Z","type":"Job"},
	{"event_id":"evt-2","crew_member_id":"crew-1","start":"2026-03-10T13:00:00Z","type":"meeting","title":"Standup"},
	{"event_id":"evt-3","crew_member_id":"crew-1","start":"tomorrow"},
	{"event_id":"","crew_member_id":"crew-1","start":"2026-03-10T13:00:00Z"}
]}`

func TestCalendarWebhook_StoresValidEvents(t *testing.T) {
	sink := &mockSink{}
	h := SetupRoutes(sink, testSecret)

	body := []byte(payload)
	rr := post(t, h, body, sign(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(sink.got) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(sink.got))
	}

	first := sink.got[0]
	if first.Type != "job" {
		t.Errorf("expected type job, got %q", first.Type)
	}
	if first.JobID == nil || first.JobID.String() != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("unexpected job id %v", first.JobID)
	}
	if sink.got[1].JobID != nil {
		t.Errorf("expected job-less meeting, got %v", sink.got[1].JobID)
	}

	// Redelivery maps to the same row ids.
	rr = post(t, h, body, sign(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if sink.got[2].ID != first.ID || first.ID == uuid.Nil {
		t.Errorf("expected stable id %s, got %s", first.ID, sink.got[2].ID)
	}
}

func TestCalendarWebhook_RejectsBadSignature(t *testing.T) {
	sink := &mockSink{}
	h := SetupRoutes(sink, testSecret)
	body := []byte(payload)

	for _, sig := range []string{"", "sha256=deadbeef", sign([]byte("other"))} {
		rr := post(t, h, body, sig)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("signature %q: expected 401, got %d", sig, rr.Code)
		}
	}
	if len(sink.got) != 0 {
		t.Errorf("expected nothing stored, got %d", len(sink.got))
	}
}

func TestCalendarWebhook_Errors(t *testing.T) {
	body := []byte(`{"events":[{"event_id":"e","crew_member_id":"c","start":"2026-03-10T09:00:00Z"}]}`)

	rr := post(t, SetupRoutes(&mockSink{}, ""), body, sign(body))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("missing secret: expected 500, got %d", rr.Code)
	}

	bad := []byte(`{"events":`)
	rr = post(t, SetupRoutes(&mockSink{}, testSecret), bad, sign(bad))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad json: expected 400, got %d", rr.Code)
	}

	rr = post(t, SetupRoutes(&mockSink{err: errors.New("down")}, testSecret), body, sign(body))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("sink failure: expected 500, got %d", rr.Code)
	}
}
