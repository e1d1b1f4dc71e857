package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/api/handlers"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/auth"
	"github.com/dvloznov/finance-assistant/internal/command"
	"github.com/dvloznov/finance-assistant/internal/command/records"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/infra/memory"
	"github.com/dvloznov/finance-assistant/internal/llm/llmtest"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/password"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/dvloznov/finance-assistant/internal/synthetic"
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	records *records.Store
	model   *llmtest.Fake
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	ctx := context.Background()

	s := memory.NewStore()
	if _, err := store.SeedDefaultCategories(ctx, s); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	model := &llmtest.Fake{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "```json\n" + `{"action":"createUser","payload":{"name":"Hong","username":"hong","password":"1234"}}` + "\n```", nil
		},
		ChatFunc: func(ctx context.Context, system string, history []domain.NormalizedTurn, message string) (string, error) {
			return "반갑습니다!", nil
		},
	}

	recs := records.NewStore()
	gen := synthetic.NewSeeded(1, func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
	svc := command.NewService(
		command.NewClassifier(model, log),
		command.NewValidator(1000),
		command.NewDispatcher(s, password.NewBcrypt(4), gen, log),
		recs,
		nil,
		log,
	)

	verifier, err := auth.NewStaticVerifier([]string{"admin-token:admin-1:admin", "user-token:user-1:user"})
	if err != nil {
		t.Fatalf("NewStaticVerifier failed: %v", err)
	}

	gate := assistant.NewGate(model, log)
	h := Handlers{
		Admin:    handlers.NewAdminHandler(svc, recs, log),
		Chat:     handlers.NewChatHandler(assistant.NewChat(model, gate, s, log), log),
		Insights: handlers.NewInsightsHandler(assistant.NewAdvisor(model, s, log), log),
	}
	return &testServer{handler: NewRouter(h, verifier, log), store: s, records: recs, model: model}
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AdminCommandEndToEnd(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/admin/command", "admin-token", `{"command":"사용자 'hong' 비번 '1234' 생성"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Message  string `json:"message"`
		RecordID string `json:"recordId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if !strings.Contains(body.Message, "hong") || body.RecordID == "" {
		t.Errorf("body = %+v", body)
	}

	u, err := ts.store.FindUserByUsername(context.Background(), "hong")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.PasswordHash == "1234" || u.PasswordHash == "" {
		t.Error("password stored in plain text")
	}

	rec = ts.do(http.MethodGet, "/api/admin/commands/"+body.RecordID, "admin-token", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"committed"`) {
		t.Errorf("record = %d %s", rec.Code, rec.Body.String())
	}

	// Same command again: username taken.
	rec = ts.do(http.MethodPost, "/api/admin/command", "admin-token", `{"command":"사용자 'hong' 비번 '1234' 생성"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestRouter_AdminAccess(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"invalid token", "forged", http.StatusUnauthorized},
		{"non-admin", "user-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/admin/command", tt.token, `{"command":"x"}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if ts.model.Calls() != 0 {
		t.Errorf("model called %d times for rejected requests", ts.model.Calls())
	}
}

func TestRouter_EmptyCommand(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/admin/command", "admin-token", `{"command":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ts.model.Calls() != 0 {
		t.Error("empty command reached the model")
	}
}

func TestRouter_AnonymousChatSkipsGate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/chatbot", "", `{"message":"안녕","currentPage":"/","chatHistory":[{"sender":"user","text":"안녕"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "반갑습니다") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if len(ts.model.Prompts()) != 0 {
		t.Errorf("gate consulted for anonymous caller: %v", ts.model.Prompts())
	}
	if calls := ts.model.ChatCalls(); len(calls) != 1 || len(calls[0].History) != 0 {
		t.Errorf("chat calls = %+v", calls)
	}
}

func TestRouter_HealthAndMethods(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/chatbot", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/chatbot status = %d, want 405", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/api/gemini/suggest-category", "", `{"description":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous suggest-category status = %d, want 401", rec.Code)
	}
}
