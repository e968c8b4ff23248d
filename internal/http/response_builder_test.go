package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Salvo").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	expectedParts := []string{
		`"transactions:changed"`,
		`"show-toast"`,
		`"type":"success"`,
		`"message":"Salvo"`,
		`"duration":3000`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_TriggerIsASCII(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().TriggerErrorNotification(msgDeleteFailed).Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for i := 0; i < len(trigger); i++ {
		if trigger[i] >= 0x80 {
			t.Fatalf("HX-Trigger has non-ASCII byte at %d: %q", i, trigger)
		}
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal([]byte(trigger), &decoded); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if got := decoded["show-toast"]["message"]; got != msgDeleteFailed {
		t.Errorf("message = %q, want %q", got, msgDeleteFailed)
	}
	if got := decoded["show-toast"]["type"]; got != "error" {
		t.Errorf("type = %q, want error", got)
	}
}

func TestAsciiJSONSurrogatePairs(t *testing.T) {
	got := asciiJSON([]byte(`"💸"`))
	if got != `"\ud83d\udcb8"` {
		t.Errorf("asciiJSON = %s", got)
	}
	var s string
	if err := json.Unmarshal([]byte(got), &s); err != nil || s != "💸" {
		t.Errorf("round trip = %q, %v", s, err)
	}
}

func TestHTMXResponseBuilder_NoSwap(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().NoSwap().Write(w)

	if got := w.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("HX-Reswap = %q, want none", got)
	}
}

func TestHTMXResponseBuilder_ApplyHeaders(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		TriggerSuccessNotification("ok").
		ApplyHeaders(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
	if w.Header().Get("HX-Trigger") == "" {
		t.Error("HX-Trigger not set")
	}
	if w.Body.Len() != 0 {
		t.Error("ApplyHeaders wrote a body")
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Entrada inválida"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="alert alert-error" role="alert">Entrada inválida</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Algo falhou"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="alert alert-error" role="alert">Algo falhou</div>`,
		},
		{
			name:       "message is escaped",
			builder:    ErrorResponse(http.StatusBadRequest, "<script>x</script>"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="alert alert-error" role="alert">&lt;script&gt;x&lt;/script&gt;</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestTooManyRequestsError(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequestsError().Write(w)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", w.Code)
	}
	if w.Header().Get("HX-Trigger") == "" {
		t.Error("rate limit toast missing")
	}
}
