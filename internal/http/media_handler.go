package http

import (
	"net/http"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/media"
)

const maxUploadFiles = 10

type MediaHandler struct {
	uploader *media.Uploader
	maxBytes int64
	timeout  time.Duration
}

func NewMediaHandler(uploader *media.Uploader, maxBytes int64, timeout time.Duration) *MediaHandler {
	return &MediaHandler{
		uploader: uploader,
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

// UploadResponseDTO lists the URLs that were stored. On failure it also
// carries the error; the listed uploads are not rolled back.
type UploadResponseDTO struct {
	URLs  []string `json:"urls"`
	Error string   `json:"error,omitempty"`
	Code  string   `json:"code,omitempty"`
}

// POST /api/v1/media (multipart, field "files")
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "no_files", "at least one file is required")
		return
	}
	if len(headers) > maxUploadFiles {
		respondError(w, http.StatusBadRequest, "too_many_files", "at most 10 files per upload")
		return
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_file", "could not read "+fh.Filename)
			return
		}
		defer f.Close()
		files = append(files, media.File{Name: fh.Filename, Content: f})
	}

	// one timeout per file, uploads run back to back
	ctx, cancel := withTimeout(r, h.timeout*time.Duration(len(files)))
	defer cancel()

	urls, err := h.uploader.UploadAll(ctx, files)
	if err != nil {
		status, code := errorStatus(err)
		respondJSON(w, status, UploadResponseDTO{URLs: nonNil(urls), Error: err.Error(), Code: code})
		return
	}
	respondJSON(w, http.StatusCreated, UploadResponseDTO{URLs: urls})
}
