package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/storage"
	"s3-file-drop/internal/upload"
)

// filesField is the multipart field every uploaded file arrives under.
const filesField = "files"

// multipartMemory is how much of a form is kept in memory; the rest spills
// to temporary files that are removed when the request ends.
const multipartMemory = 32 << 20

// uploadResp is the body of a completed upload, including partial failures.
// Errors is null when every file was stored.
type uploadResp struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// handleUpload handles POST /upload. Every file in the "files" field is put
// to the bucket under its original name, concurrently, and the response
// reports how many succeeded plus one line per failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	items, err := readUploadItems(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
		case errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, "No files uploaded")
		default:
			s.log.Warn().Err(err).
				Str("request_id", RequestIDFromContext(r.Context())).
				Msg("malformed multipart upload")
			writeError(w, http.StatusBadRequest, "invalid multipart form")
		}
		return
	}

	summary, outcomes, err := upload.Aggregate(r.Context(), s.store, items)
	if errors.Is(err, upload.ErrNoItems) {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("upload aggregation failed")
		writeError(w, http.StatusInternalServerError, "Server upload error")
		return
	}

	s.metrics.uploadBatches.Inc()
	for _, o := range outcomes {
		s.metrics.recordUpload(o.Bytes, o.Err)
		if o.Err != nil {
			s.log.Warn().
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("key", o.Name).
				Str("error", storage.Message(o.Err)).
				Msg("upload failed")
		}
		s.recordActivity(r, audit.ActionUpload, o.Name, o.Err)
	}

	writeJSON(w, http.StatusOK, uploadResp{
		Message: summary.Message(),
		Errors:  summary.Errors,
	})
}

// readUploadItems buffers every file in the "files" field. A request with
// no such files yields an empty slice, not an error.
func readUploadItems(r *http.Request) ([]upload.Item, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[filesField]
	items := make([]upload.Item, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		items = append(items, upload.Item{Name: fh.Filename, Data: data})
	}
	return items, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
