package server

import (
	"net/http"
	"time"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/storage"
)

// downloadURLTTL is how long a signed download URL stays valid.
const downloadURLTTL = 60 * time.Second

type downloadResp struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// handleDownload handles POST /download. It never streams the object; the
// browser fetches it directly from the bucket with the signed URL.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, err := decodeFileReq(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := s.store.SignedURL(r.Context(), name, downloadURLTTL)
	s.metrics.downloadURLs.WithLabelValues(resultLabel(err)).Inc()
	s.recordActivity(r, audit.ActionDownload, name, err)
	if err != nil {
		s.log.Warn().
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("key", name).
			Str("error", storage.Message(err)).
			Msg("signing download url failed")
		writeError(w, http.StatusInternalServerError, "Error generating download URL: "+storage.Message(err))
		return
	}

	writeJSON(w, http.StatusOK, downloadResp{URL: url, Filename: name})
}
