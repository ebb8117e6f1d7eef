package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mirror/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/mirror/backend/internal/service/chat"
	creatureservice "github.com/zhouzirui/mirror/backend/internal/service/creature"
)

func setupRouter() (*chi.Mux, *chatservice.Service, *creatureservice.Conversations) {
	chatSvc := chatservice.NewService()
	store := persona.NewMemoryStore(persona.Seed())
	conversations := creatureservice.NewConversations(creatureservice.NewService(nil, creatureservice.Config{}), chatSvc, store)
	handler := New(conversations, chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc, conversations
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSessionValidPersona(t *testing.T) {
	r, _, _ := setupRouter()
	resp := doJSON(r, http.MethodPost, "/session", map[string]string{"personaId": persona.DefaultID})

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var view SessionView
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Regime != "neutral" {
		t.Fatalf("expected neutral regime, got %s", view.Regime)
	}
	if len(view.Messages) != 1 || view.Messages[0].Text != persona.Seed()[0].OpeningLine {
		t.Fatalf("expected opening line message, got %+v", view.Messages)
	}
}

func TestCreateSessionDefaultsPersona(t *testing.T) {
	r, _, _ := setupRouter()
	resp := doJSON(r, http.MethodPost, "/session", nil)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestCreateSessionChunkedEmptyBody(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Transfer-Encoding", "chunked")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for an empty chunked body, got %d: %s", resp.Code, resp.Body.String())
	}
	var view SessionView
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Session.PersonaID != persona.DefaultID {
		t.Fatalf("expected default persona, got %q", view.Session.PersonaID)
	}
	if _, err := chatSvc.GetSession(context.Background(), view.Session.ID); err != nil {
		t.Fatalf("session not stored: %v", err)
	}
}

func TestCreateSessionChunkedMalformedBody(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("{not json"))
	req.ContentLength = -1
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionInvalidPersona(t *testing.T) {
	r, _, _ := setupRouter()
	resp := doJSON(r, http.MethodPost, "/session", map[string]string{"personaId": "non-existent"})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTurnCommitsState(t *testing.T) {
	r, _, conversations := setupRouter()
	session, _, err := conversations.Start(context.Background(), "")
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/turn", map[string]string{"message": "You are wonderful, I love you"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result creatureservice.SessionTurn
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Session.State.Memory <= 0.5 {
		t.Fatalf("expected warm memory, got %f", result.Session.State.Memory)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("expected user and creature messages, got %d", len(result.Messages))
	}

	resp = doJSON(r, http.MethodGet, "/session/"+session.ID, nil)
	var view SessionView
	_ = json.Unmarshal(resp.Body.Bytes(), &view)
	if view.Regime != "warm" {
		t.Fatalf("expected warm regime, got %s", view.Regime)
	}
	if len(view.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(view.Messages))
	}
}

func TestTurnEmptyMessageLeavesSessionUnchanged(t *testing.T) {
	r, chatSvc, conversations := setupRouter()
	session, _, _ := conversations.Start(context.Background(), "")

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/turn", map[string]string{"message": "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	got, _ := chatSvc.GetSession(context.Background(), session.ID)
	if got.Turns != 0 || got.State.Memory != 0 {
		t.Fatalf("session mutated by rejected turn: %+v", got)
	}
}

func TestSessionNotFound(t *testing.T) {
	r, _, _ := setupRouter()

	if resp := doJSON(r, http.MethodGet, "/session/missing", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on get, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodPost, "/session/missing/turn", map[string]string{"message": "hi"}); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on turn, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodDelete, "/session/missing", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on delete, got %d", resp.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	r, _, conversations := setupRouter()
	session, _, _ := conversations.Start(context.Background(), "")

	if resp := doJSON(r, http.MethodDelete, "/session/"+session.ID, nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodGet, "/session/"+session.ID, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}
