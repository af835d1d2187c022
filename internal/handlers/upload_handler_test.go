package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(content))
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestUpload_StoresFile(t *testing.T) {
	dir := t.TempDir()
	handler := NewUploadHandler(dir, "/uploads")

	body, contentType := multipartBody(t, "file", "receipt.pdf", "pdf-bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
		Type     string `json:"type"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Filename != "receipt.pdf" {
		t.Errorf("unexpected filename %q", resp.Filename)
	}
	if !strings.HasPrefix(resp.URL, "/uploads/") || !strings.HasSuffix(resp.URL, "-receipt.pdf") {
		t.Errorf("unexpected url %q", resp.URL)
	}
	if resp.Type != "application/pdf" {
		t.Errorf("unexpected type %q", resp.Type)
	}

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(resp.URL, "/uploads/")))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(stored) != "pdf-bytes" {
		t.Errorf("stored content mismatch: %q", stored)
	}
}

func TestUpload_SanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	handler := NewUploadHandler(dir, "/uploads")

	body, contentType := multipartBody(t, "file", "../../etc/pass wd.png", "png-bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(resp.Filename, "/") || strings.Contains(resp.Filename, " ") {
		t.Errorf("filename not sanitized: %q", resp.Filename)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), "..") {
		t.Errorf("stored name escapes the upload dir: %q", entries[0].Name())
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	handler := NewUploadHandler(t.TempDir(), "/uploads")

	body, contentType := multipartBody(t, "wrong-field", "x.txt", "text")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
