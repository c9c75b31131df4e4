// Package http serves the upload endpoint.
package http

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"github.com/dmitrijs2005/ingestgate/internal/server/ingest"
)

const (
	UploadPath = "/api/upload/"
	HealthPath = "/healthz"

	requiredMessage = "This field is required."
)

// Uploader runs one upload. services.UploadService implements it.
type Uploader interface {
	Upload(ctx context.Context, req ingest.Request, secret string) *ingest.Outcome
}

// Response is the JSON body of every upload answer. MD5 is the server
// computed checksum, empty when hashing never happened.
type Response struct {
	MD5   string         `json:"md5"`
	Error map[string]any `json:"error,omitempty"`
}

type handler struct {
	uploader  Uploader
	maxMemory int64
	logger    logging.Logger
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.logger.Debug(r.Context(), "parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Error: map[string]any{common.FieldFile: []string{"invalid multipart form"}}})
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn(r.Context(), "removing multipart temp files", "error", err)
		}
	}()

	req, secret, missing := readForm(r)
	if f, ok := req.Body.(multipart.File); ok {
		defer f.Close()
	}
	if len(missing) > 0 {
		detail := make(map[string]any, len(missing))
		for _, f := range missing {
			detail[f] = []string{requiredMessage}
		}
		resp := Response{Error: detail}
		if req.Body != nil {
			sum, err := ingest.Checksum(req.Body)
			if err != nil {
				h.logger.Warn(r.Context(), "hashing incomplete upload", "error", err)
			}
			resp.MD5 = sum
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	out := h.uploader.Upload(r.Context(), req, secret)
	resp := Response{MD5: out.Checksum}
	if out.Error != nil {
		field := out.Error.Field
		if field == "" {
			field = common.FieldFile
		}
		resp.Error = map[string]any{field: out.Error.Detail()}
	}
	writeJSON(w, out.Status, resp)
}

// readForm extracts the upload request. missing lists absent required
// fields in form order. The file part is returned even when other fields
// are missing; the caller closes it.
func readForm(r *http.Request) (ingest.Request, string, []string) {
	var missing []string
	value := func(names ...string) string {
		for _, n := range names {
			if v := strings.TrimSpace(r.FormValue(n)); v != "" {
				return v
			}
		}
		return ""
	}

	req := ingest.Request{
		Identity: value(common.FieldUsername, common.FieldUsernameAlias),
		Method:   value(common.FieldMethod),
		Filename: value(common.FieldFilename),
		Checksum: value(common.FieldChecksum),
	}
	if req.Identity == "" {
		missing = append(missing, common.FieldUsername)
	}
	if req.Method == "" {
		missing = append(missing, common.FieldMethod)
	}
	if req.Checksum == "" {
		missing = append(missing, common.FieldChecksum)
	}

	file, fh, err := r.FormFile(common.FieldFile)
	if err != nil {
		missing = append(missing, common.FieldFile)
	} else {
		req.Body = file
		req.OriginalFilename = fh.Filename
	}

	secret := r.FormValue(common.FieldSecret)
	if secret == "" {
		secret = r.Header.Get(common.SecretHeaderName)
	}
	return req, secret, missing
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
