package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
)

type writeResponse struct {
	Written int `json:"written"`
}

// handleReadLED runs one read session.
//
// Query parameters:
//   - size: read capacity in bytes (default read_size); 0 yields an empty body
func (s *Server) handleReadLED(w http.ResponseWriter, r *http.Request) {
	size := s.readSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "size must be a non-negative integer")
			return
		}
		size = n
	}

	session, err := s.endpoint.Open()
	if err != nil {
		s.writeEndpointError(w, r, err)
		return
	}
	defer session.Close()

	var buf bytes.Buffer
	if _, err := session.ReadTo(&buf, size); err != nil {
		s.writeEndpointError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // Best-effort write to response
}

// handleWriteLED runs one write session with the request body. Only the
// first byte is interpreted; the whole body is counted as written.
func (s *Server) handleWriteLED(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return
		}
		writeBadRequest(w, "could not read request body")
		return
	}

	session, err := s.endpoint.Open()
	if err != nil {
		s.writeEndpointError(w, r, err)
		return
	}
	defer session.Close()

	n, err := session.Write(body)
	if err != nil {
		s.writeEndpointError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, writeResponse{Written: n})
}
