package admin_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/bootstrap"
	"intake-backend/internal/shared/config"
)

const testAccessCode = "console-code"

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:               "0",
		Env:                "dev",
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
		MaxAttachmentBytes: 50 << 20,
		AdminAccessCode:    testAccessCode,
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func adminGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Admin-Access", testAccessCode)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// seedSession runs one step-1 transition with an uploaded file so the console
// has data to show.
func seedSession(t *testing.T, app *bootstrap.App) string {
	t.Helper()
	router := app.Router

	var body bytes.Buffer
	_ = json.NewEncoder(&body).Encode(map[string]any{"category": "warehouse"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d", w.Code)
	}
	var state struct {
		SubjectID string `json:"subjectId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	mp := &bytes.Buffer{}
	writer := multipart.NewWriter(mp)
	part, _ := writer.CreateFormFile("file", "passport.jpg")
	_, _ = part.Write([]byte("jpeg-bytes"))
	_ = writer.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+state.SubjectID+"/attachments/idFile1", mp)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d: %s", w.Code, w.Body.String())
	}

	body.Reset()
	_ = json.NewEncoder(&body).Encode(map[string]any{"fields": map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "dateOfBirth": "1990-07-15",
	}})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+state.SubjectID+"/next", &body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("next: %d: %s", w.Code, w.Body.String())
	}

	return state.SubjectID
}

func TestAdminRequiresAccessCode(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without access code, got %d", w.Code)
	}
}

func TestAdminListAndDetail(t *testing.T) {
	app := newTestApp(t)
	subjectID := seedSession(t, app)

	w := adminGet(t, app.Router, "/api/v1/admin/applications?q=ada")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("expected 1 match, got %d", list.Count)
	}

	w = adminGet(t, app.Router, "/api/v1/admin/applications/"+subjectID)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", w.Code)
	}
	var detail struct {
		Application struct {
			SubjectID string `json:"subjectId"`
		} `json:"application"`
		Attachments []struct {
			FieldName string `json:"fieldName"`
		} `json:"attachments"`
	}
	if err := json.NewDecoder(w.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Application.SubjectID != subjectID {
		t.Fatalf("unexpected subject in detail: %q", detail.Application.SubjectID)
	}
	if len(detail.Attachments) != 1 || detail.Attachments[0].FieldName != "idFile1" {
		t.Fatalf("unexpected attachments in detail: %+v", detail.Attachments)
	}
}

func TestAdminAttachmentDownload(t *testing.T) {
	app := newTestApp(t)
	subjectID := seedSession(t, app)

	w := adminGet(t, app.Router, "/api/v1/admin/applications/"+subjectID+"/attachments/idFile1")
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "jpeg-bytes" {
		t.Fatalf("payload mismatch: %q", got)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" || cd[:6] != "inline" {
		t.Fatalf("expected inline disposition for image, got %q", cd)
	}
}

func TestAdminExportAndClear(t *testing.T) {
	app := newTestApp(t)
	seedSession(t, app)

	w := adminGet(t, app.Router, "/api/v1/admin/export")
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	var export struct {
		TotalApplications int    `json:"totalApplications"`
		Timestamp         string `json:"timestamp"`
	}
	if err := json.NewDecoder(w.Body).Decode(&export); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if export.TotalApplications != 1 || export.Timestamp == "" {
		t.Fatalf("unexpected export: %+v", export)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/data", nil)
	req.Header.Set("X-Admin-Access", testAccessCode)
	del := httptest.NewRecorder()
	app.Router.ServeHTTP(del, req)
	if del.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", del.Code)
	}

	w = adminGet(t, app.Router, "/api/v1/admin/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	var stats struct {
		Applications int `json:"applications"`
		Files        int `json:"files"`
	}
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Applications != 0 || stats.Files != 0 {
		t.Fatalf("expected empty stats after clear, got %+v", stats)
	}
}
