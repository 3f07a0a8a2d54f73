package documents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type documentsErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupDocumentsRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompts/parse", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadEndpointParsesFile(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "prompts.md", "text/markdown", []byte(sampleMarkdown)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var result IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Document.ID == "" {
		t.Fatal("document id missing")
	}
	if len(result.Prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(result.Prompts))
	}

	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+result.Document.ID, nil))
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", getRec.Code, getRec.Body.String())
	}

	dlRec := httptest.NewRecorder()
	router.ServeHTTP(dlRec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+result.Document.ID+"/download", nil))
	if dlRec.Code != http.StatusOK {
		t.Fatalf("download status = %d: %s", dlRec.Code, dlRec.Body.String())
	}
	if dlRec.Body.String() != sampleMarkdown {
		t.Fatalf("downloaded bytes differ from upload")
	}
	if cd := dlRec.Header().Get("Content-Disposition"); !strings.Contains(cd, "prompts.md") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}

func TestUploadEndpointMissingFile(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompts/parse", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadEndpointRejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	h := NewHandler(svc)
	h.MaxUploadBytes = 64
	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))

	big := strings.Repeat("## User Prompt: X\ncontent line\n", 20)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "big.md", "text/markdown", []byte(big)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body.String())
	}
	var envelope documentsErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "payload_too_large" {
		t.Fatalf("code = %q, want payload_too_large", envelope.Error.Code)
	}
}

func TestUploadEndpointUnsupportedType(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "shot.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47}))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415: %s", rec.Code, rec.Body.String())
	}
	var envelope documentsErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "unsupported_media_type" {
		t.Fatalf("code = %q, want unsupported_media_type", envelope.Error.Code)
	}
}

func TestUploadEndpointNoPrompts(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.md", "text/markdown", []byte("no headings here\n")))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var envelope documentsErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "format_error" {
		t.Fatalf("code = %q, want format_error", envelope.Error.Code)
	}
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "prompts.md", "text/markdown", []byte(sampleMarkdown)))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var result IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+result.Document.ID, nil))
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", delRec.Code, delRec.Body.String())
	}
	var delBody struct {
		Deleted        bool `json:"deleted"`
		PromptsRemoved int  `json:"promptsRemoved"`
	}
	if err := json.Unmarshal(delRec.Body.Bytes(), &delBody); err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if !delBody.Deleted || delBody.PromptsRemoved != 2 {
		t.Fatalf("delete body = %+v", delBody)
	}

	againRec := httptest.NewRecorder()
	router.ServeHTTP(againRec, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+result.Document.ID, nil))
	if againRec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", againRec.Code)
	}
}
