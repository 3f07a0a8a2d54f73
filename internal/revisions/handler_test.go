package revisions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/prompts"
)

type revisionsErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupRevisionsRouter(t *testing.T) (*gin.Engine, *Service, *prompts.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	promptSvc := &prompts.Service{Repo: prompts.NewMemoryRepo()}
	svc := &Service{Repo: NewMemoryRepo(), Prompts: promptSvc}
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc, promptSvc
}

func TestApplyEndpoint(t *testing.T) {
	router, svc, promptSvc := setupRevisionsRouter(t)
	ctx := context.Background()

	p, err := promptSvc.CreateInline(ctx, "Answer the question. Be brief.", "user", "answer")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	rev, err := svc.Record(ctx, p.ID, "", "", []Change{
		{Original: "Be brief.", Replacement: "Answer in two sentences or fewer."},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/revisions/"+rev.ID+"/apply", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var result ApplyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Applied != 1 {
		t.Fatalf("applied = %d, want 1", result.Applied)
	}
	if result.Prompt.Content != "Answer the question. Answer in two sentences or fewer." {
		t.Fatalf("content = %q", result.Prompt.Content)
	}
}

func TestApplyEndpointSelectedChanges(t *testing.T) {
	router, svc, promptSvc := setupRevisionsRouter(t)
	ctx := context.Background()

	p, err := promptSvc.CreateInline(ctx, "one two three", "user", "pick")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	rev, err := svc.Record(ctx, p.ID, "", "", []Change{
		{Original: "one", Replacement: "ONE"},
		{Original: "three", Replacement: "THREE"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	body, _ := json.Marshal(map[string]any{"changes": []int{0}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/revisions/"+rev.ID+"/apply", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var result ApplyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Prompt.Content != "ONE two three" {
		t.Fatalf("content = %q", result.Prompt.Content)
	}
}

func TestApplyEndpointConflict(t *testing.T) {
	router, svc, promptSvc := setupRevisionsRouter(t)
	ctx := context.Background()

	p, err := promptSvc.CreateInline(ctx, "immutable text", "user", "conflict")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	rev, err := svc.Record(ctx, p.ID, "", "", []Change{
		{Original: "text that is not there", Replacement: "x"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/revisions/"+rev.ID+"/apply", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	var envelope revisionsErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "conflict" {
		t.Fatalf("code = %q, want conflict", envelope.Error.Code)
	}
}

func TestGetRevisionNotFound(t *testing.T) {
	router, _, _ := setupRevisionsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/revisions/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	var envelope revisionsErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", envelope.Error.Code)
	}
}

func TestListRevisionsFiltersByPrompt(t *testing.T) {
	router, svc, promptSvc := setupRevisionsRouter(t)
	ctx := context.Background()

	p1, err := promptSvc.CreateInline(ctx, "prompt one", "user", "one")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	p2, err := promptSvc.CreateInline(ctx, "prompt two", "user", "two")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	if _, err := svc.Record(ctx, p1.ID, "", "", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.Record(ctx, p1.ID, "", "", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.Record(ctx, p2.ID, "", "", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/revisions?promptId="+p1.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Revisions []Revision `json:"revisions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Revisions) != 2 {
		t.Fatalf("revisions = %d, want 2", len(payload.Revisions))
	}
	for _, rev := range payload.Revisions {
		if rev.PromptID != p1.ID {
			t.Fatalf("unexpected prompt id %q", rev.PromptID)
		}
	}
}
