package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/observability"
	"github.com/comichut/supportdesk/internal/transport"
)

const maxUploadBytes = 10 << 20

// UploadHandler stores chat attachments on local disk and hands back the URL
// the websocket payloads reference.
type UploadHandler struct {
	dir     string
	baseURL string
}

func NewUploadHandler(dir, baseURL string) *UploadHandler {
	return &UploadHandler{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid_argument", "missing or oversized file field")
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	stored := fmt.Sprintf("%d-%s", time.Now().UnixNano(), name)

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		observability.GetLogger(r.Context()).Error("upload dir create failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "internal", "could not store file")
		return
	}

	dst, err := os.Create(filepath.Join(h.dir, stored))
	if err != nil {
		observability.GetLogger(r.Context()).Error("upload create failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "internal", "could not store file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		observability.GetLogger(r.Context()).Error("upload write failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "internal", "could not store file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	transport.WriteJSON(w, http.StatusCreated, uploadResponse{
		URL:      h.baseURL + "/" + stored,
		Filename: name,
		Type:     contentType,
	})
}

// sanitizeFilename strips any path component and characters that would need
// escaping in a URL path segment.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
