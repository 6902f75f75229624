package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	chatHandler "github.com/zhouzirui/travel-tavern/backend/internal/handler/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/config"
	"github.com/zhouzirui/travel-tavern/backend/internal/middleware"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
	aiService "github.com/zhouzirui/travel-tavern/backend/internal/service/ai"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/ai/aitest"
	chatservice "github.com/zhouzirui/travel-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/travel"
	"github.com/zhouzirui/travel-tavern/backend/internal/store"
)

type event struct {
	name string
	data StreamResponse
}

func setupRouter(t *testing.T, fake *aitest.FakeChatModel) *chi.Mux {
	t.Helper()

	chatSvc := chatservice.NewService(store.NewMemoryStore())
	var aiSvc *aiService.Service
	if fake != nil {
		var err error
		aiSvc, err = aiService.NewServiceWithModel(context.Background(), fake, config.AIConfig{StreamResponse: true})
		if err != nil {
			t.Fatalf("NewServiceWithModel err: %v", err)
		}
	}
	concierge := travel.New(aiSvc, chatSvc, traveler.NewMemoryStore(nil))

	r := chi.NewRouter()
	r.Use(middleware.Session(chatSvc, "sid"))
	New(concierge, chatHandler.New(concierge, chatSvc, true)).RegisterRoutes(r)
	return r
}

func readEvents(t *testing.T, body string) []event {
	t.Helper()

	var events []event
	var current event
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.data); err != nil {
				t.Fatalf("invalid event payload %q: %v", line, err)
			}
		case line == "":
			events = append(events, current)
			current = event{}
		}
	}
	return events
}

func TestStreamEmitsDeltasThenMessage(t *testing.T) {
	r := setupRouter(t, &aitest.FakeChatModel{Reply: "Visit *Kyoto* soon"})

	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := readEvents(t, resp.Body.String())
	if len(events) < 4 {
		t.Fatalf("expected at least 4 events, got %d", len(events))
	}
	if events[0].name != "start" || events[len(events)-1].name != "end" {
		t.Fatalf("unexpected framing: first=%s last=%s", events[0].name, events[len(events)-1].name)
	}

	var deltas strings.Builder
	for _, ev := range events[1 : len(events)-2] {
		if ev.name != "delta" {
			t.Fatalf("expected delta, got %s", ev.name)
		}
		deltas.WriteString(ev.data.Content)
	}
	if deltas.String() != "Visit *Kyoto* soon" {
		t.Fatalf("unexpected deltas %q", deltas.String())
	}

	final := events[len(events)-2]
	if final.name != "message" || final.data.Content != "Visit *Kyoto* soon" {
		t.Fatalf("unexpected final event %+v", final)
	}
	if !strings.Contains(final.data.HTML, "<em>Kyoto</em>") {
		t.Fatalf("expected rendered html, got %q", final.data.HTML)
	}
	if final.data.Kind != travel.KindGeneric {
		t.Fatalf("unexpected kind %q", final.data.Kind)
	}
}

func TestStreamRejectsBeforeOpeningStream(t *testing.T) {
	tests := []struct {
		name string
		fake *aitest.FakeChatModel
		body string
		want int
	}{
		{"blank message", &aitest.FakeChatModel{Reply: "x"}, `{"message":" "}`, http.StatusBadRequest},
		{"invalid body", &aitest.FakeChatModel{Reply: "x"}, `nope`, http.StatusBadRequest},
		{"no model", nil, `{"message":"hi"}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t, tt.fake)
			req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(tt.body))
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected json error, got %q", ct)
			}
		})
	}
}
