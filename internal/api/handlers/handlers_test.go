package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/receipt-organizer/internal/ledger"
	"github.com/dvloznov/receipt-organizer/internal/receipt"
	"github.com/dvloznov/receipt-organizer/internal/sheetstore"
)

type fakeTab struct {
	rows      []sheetstore.Row
	listErr   error
	appendErr error
}

func (f *fakeTab) EnsureReady(ctx context.Context) error { return nil }

func (f *fakeTab) ListRows(ctx context.Context) ([]sheetstore.Row, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeTab) AppendRow(ctx context.Context, row sheetstore.Row) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeTab) DeleteRowAt(ctx context.Context, position int) error {
	i := position - 1
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

type fakeFiles struct {
	uploads map[string][]byte
	deleted []string
}

func (f *fakeFiles) Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[filename] = data
	return "key-" + filename, nil
}

func (f *fakeFiles) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestHandler(tab *fakeTab) *ReceiptsHandler {
	validator := receipt.NewValidator([]string{"Food", "Transportation"})
	svc := ledger.NewService(tab, &fakeFiles{}, validator, zerolog.Nop())
	return NewReceiptsHandler(map[string]*ledger.Service{"KP": svc}, zerolog.Nop())
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestReceiptsList(t *testing.T) {
	tab := &fakeTab{rows: []sheetstore.Row{
		{ID: "rec_1", Date: "2024-01-15", Item: "Coffee", Category: "Food", Amount: "4.5"},
		{ID: "rec_2", Date: "2024-01-16", Item: "Bus", Category: "Transportation", Amount: "2.75", AttachmentKey: "file-abc"},
	}}
	h := newTestHandler(tab)

	req := httptest.NewRequest(http.MethodGet, "/api/receipts?profile=KP", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Receipts []map[string]interface{} `json:"receipts"`
		Count    int                      `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 || len(resp.Receipts) != 2 {
		t.Fatalf("count = %d, receipts = %d, want 2", resp.Count, len(resp.Receipts))
	}
	if resp.Receipts[0]["id"] != "rec_1" {
		t.Errorf("first id = %v, want rec_1", resp.Receipts[0]["id"])
	}
	if _, ok := resp.Receipts[0]["attachment_url"]; ok {
		t.Error("row without attachment should omit attachment_url")
	}
	if url, _ := resp.Receipts[1]["attachment_url"].(string); !strings.Contains(url, "file-abc") {
		t.Errorf("attachment_url = %q, want it to reference file-abc", url)
	}
}

func TestReceiptsList_UnknownProfile(t *testing.T) {
	h := newTestHandler(&fakeTab{})

	req := httptest.NewRequest(http.MethodGet, "/api/receipts?profile=nope", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestReceiptsCreate(t *testing.T) {
	tab := &fakeTab{}
	h := newTestHandler(tab)

	body, contentType := multipartBody(t, map[string]string{
		"date":     "15/01/2024",
		"item":     "Coffee",
		"category": "Food",
		"amount":   "4.50",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/receipts?profile=KP", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rr.Code, rr.Body.String())
	}

	var created map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created["date"] != "2024-01-15" {
		t.Errorf("date = %v, want normalized 2024-01-15", created["date"])
	}
	if len(tab.rows) != 1 {
		t.Fatalf("rows appended = %d, want 1", len(tab.rows))
	}
	if tab.rows[0].Amount != "4.5" {
		t.Errorf("stored amount = %q, want 4.5", tab.rows[0].Amount)
	}
}

func TestReceiptsCreate_ValidationError(t *testing.T) {
	tab := &fakeTab{}
	h := newTestHandler(tab)

	body, contentType := multipartBody(t, map[string]string{
		"date":     "2024-01-15",
		"item":     "Coffee",
		"category": "Cryptids",
		"amount":   "4.50",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/receipts?profile=KP", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
	if len(tab.rows) != 0 {
		t.Errorf("validation failure must not append rows, got %d", len(tab.rows))
	}
}

func TestReceiptsCreate_BadAmount(t *testing.T) {
	h := newTestHandler(&fakeTab{})

	body, contentType := multipartBody(t, map[string]string{
		"date":     "2024-01-15",
		"item":     "Coffee",
		"category": "Food",
		"amount":   "four fifty",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/receipts?profile=KP", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestReceiptsDelete(t *testing.T) {
	tab := &fakeTab{rows: []sheetstore.Row{
		{ID: "rec_1", Date: "2024-01-15", Item: "Coffee", Category: "Food", Amount: "4.5"},
	}}
	h := newTestHandler(tab)

	req := httptest.NewRequest(http.MethodDelete, "/api/receipts/rec_1?profile=KP", nil)
	rr := httptest.NewRecorder()
	h.Delete(rr, req, "rec_1")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if len(tab.rows) != 0 {
		t.Errorf("row not removed, %d left", len(tab.rows))
	}
}

func TestReceiptsDelete_UnknownID(t *testing.T) {
	h := newTestHandler(&fakeTab{})

	req := httptest.NewRequest(http.MethodDelete, "/api/receipts/rec_missing?profile=KP", nil)
	rr := httptest.NewRecorder()
	h.Delete(rr, req, "rec_missing")

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for idempotent delete", rr.Code)
	}
}

func TestCategoriesList(t *testing.T) {
	h := NewCategoriesHandler([]string{"Food", "Utilities"})

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Categories []string `json:"categories"`
		Count      int      `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 || resp.Categories[0] != "Food" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestProfilesList(t *testing.T) {
	h := NewProfilesHandler([]string{"KP", "LV"})

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `"KP"`) || !strings.Contains(body, `"LV"`) {
		t.Errorf("body missing profiles: %s", body)
	}
}

func TestScanSuggest_NotConfigured(t *testing.T) {
	h := NewScanHandler(nil, zerolog.Nop())

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/scan", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.Suggest(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestReadAttachment_MissingFile(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"item": "Coffee"})
	req := httptest.NewRequest(http.MethodPost, "/api/receipts", body)
	req.Header.Set("Content-Type", contentType)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		t.Fatalf("parsing form: %v", err)
	}

	att, err := readAttachment(req)
	if err != nil {
		t.Fatalf("readAttachment: %v", err)
	}
	if att != nil {
		t.Errorf("expected nil attachment for form without file, got %+v", att)
	}
}

func TestReadAttachment_WithFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("receipt", "photo.jpg")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := io.WriteString(fw, "jpeg-bytes"); err != nil {
		t.Fatalf("writing file part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/receipts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		t.Fatalf("parsing form: %v", err)
	}

	att, err := readAttachment(req)
	if err != nil {
		t.Fatalf("readAttachment: %v", err)
	}
	if att == nil || att.Filename != "photo.jpg" || string(att.Data) != "jpeg-bytes" {
		t.Errorf("unexpected attachment: %+v", att)
	}
}
