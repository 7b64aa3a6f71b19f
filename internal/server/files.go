package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/storage"
)

// fileReq is the JSON body of /delete and /download.
type fileReq struct {
	Filename string `json:"filename"`
}

type messageResp struct {
	Message string `json:"message"`
}

// maxFileReqBytes bounds the small JSON bodies of /delete and /download.
const maxFileReqBytes = 64 << 10

var errMissingFilename = errors.New("filename is required")

// decodeFileReq reads {"filename": "..."} and rejects an empty name.
func decodeFileReq(w http.ResponseWriter, r *http.Request) (string, error) {
	var req fileReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFileReqBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", errMissingFilename
		}
		return "", errors.New("invalid JSON body")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return "", errMissingFilename
	}
	return req.Filename, nil
}

// handleListFiles handles GET /files: every object in the bucket except
// folder placeholders, with the backend's metadata as-is.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	objects, err := s.store.List(r.Context())
	s.metrics.listings.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		s.log.Warn().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("list failed")
		writeError(w, http.StatusInternalServerError, "Error listing files: "+storage.Message(err))
		return
	}

	files := make([]storage.Object, 0, len(objects))
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		files = append(files, obj)
	}
	writeJSON(w, http.StatusOK, files)
}

// handleDelete handles POST /delete for a single key.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name, err := decodeFileReq(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.store.Delete(r.Context(), name)
	s.metrics.deletes.WithLabelValues(resultLabel(err)).Inc()
	s.recordActivity(r, audit.ActionDelete, name, err)
	if err != nil {
		s.log.Warn().
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("key", name).
			Str("error", storage.Message(err)).
			Msg("delete failed")
		writeError(w, http.StatusInternalServerError, "Error deleting file: "+storage.Message(err))
		return
	}

	writeJSON(w, http.StatusOK, messageResp{Message: "File " + name + " deleted successfully"})
}
