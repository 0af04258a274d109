// internal/app/features/files/handler.go
package files

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/filestore"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// multipart framing on top of the file itself
const formOverhead = 1 << 20

// Handler serves uploads to and deletes from the public bucket.
type Handler struct {
	Files *filestore.Store
	Log   *zap.Logger
}

func NewHandler(fs *filestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Files: fs, Log: logger}
}

var errNotConfigured = apperr.Upstream("file storage is not configured", nil)

// HandleUpload accepts a multipart "file" field and stores it publicly.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		respond.Error(w, r, h.Log, errNotConfigured, "upload failed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, filestore.MaxFileBytes+formOverhead)
	if err := r.ParseMultipartForm(filestore.MaxFileBytes); err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("file exceeds 5 MB or form is malformed"), "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("file is required"), "")
		return
	}
	defer file.Close()

	contentType := fileType(file, header)
	if err := checkUpload(contentType, header.Size); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	obj, err := h.Files.Put(ctx, header.Filename, file, header.Size, contentType)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Upstream("could not store file", err), "upload failed")
		return
	}
	h.Log.Info("file uploaded",
		zap.String("key", obj.Key),
		zap.String("content_type", contentType),
		zap.Int64("size", obj.Size))
	respond.Created(w, "File uploaded", respond.M{"url": obj.URL, "file": obj})
}

// checkUpload enforces the type allowlist and the size caps.
func checkUpload(contentType string, size int64) error {
	if !filestore.AllowedTypes[contentType] {
		return apperr.Validation("file type " + contentType + " is not allowed")
	}
	if size > filestore.MaxFileBytes {
		return apperr.Validation("file exceeds 5 MB")
	}
	if strings.HasPrefix(contentType, "image/") && size > filestore.MaxImageBytes {
		return apperr.Validation("images must be 1 MB or smaller")
	}
	return nil
}

// fileType trusts the part header when it names a concrete type and sniffs
// the content otherwise.
func fileType(file multipart.File, header *multipart.FileHeader) string {
	ct := baseType(header.Header.Get("Content-Type"))
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	_, _ = file.Seek(0, io.SeekStart)
	if n == 0 {
		return "application/octet-stream"
	}
	return baseType(http.DetectContentType(buf[:n]))
}

func baseType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

type deleteReq struct {
	URL string `json:"url" validate:"required,url"`
}

// HandleDelete removes a previously uploaded object by its public URL.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		respond.Error(w, r, h.Log, errNotConfigured, "delete failed")
		return
	}
	var req deleteReq
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Files.Delete(ctx, req.URL); err != nil {
		if errors.Is(err, filestore.ErrBadURL) {
			respond.Error(w, r, h.Log, apperr.Validation("url does not point at an uploaded file"), "")
			return
		}
		respond.Error(w, r, h.Log, apperr.Upstream("could not delete file", err), "delete failed")
		return
	}
	respond.OK(w, "File deleted", nil)
}
