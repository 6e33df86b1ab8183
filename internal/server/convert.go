package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/showlist/internal/services"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/desertthunder/showlist/internal/tasks"
)

// maxRequestBody caps the size of a conversion request.
const maxRequestBody = 64 << 10

// ConvertResponse is the success payload of POST /api/convert.
type ConvertResponse struct {
	PlaylistName *string  `json:"playlistName"`
	Warnings     []string `json:"warnings"`
	Body         string   `json:"body"`
	Filename     string   `json:"filename"`
}

// ConvertHandler serves POST /api/convert.
type ConvertHandler struct {
	converter Converter
	logger    *log.Logger
}

// NewConvertHandler creates a [ConvertHandler].
func NewConvertHandler(converter Converter, logger *log.Logger) *ConvertHandler {
	return &ConvertHandler{converter: converter, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *ConvertHandler) Routes() []string {
	return []string{"/api/convert"}
}

// ServeHTTP decodes the request, runs the conversion and writes either the CSV payload or an error.
func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.converter == nil {
		writeError(w, http.StatusServiceUnavailable, "conversions are not configured")
		return
	}

	var req tasks.ConvertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	logger := h.logger.With("request_id", RequestIDFrom(r.Context()))
	result, err := h.converter.Convert(r.Context(), req, nil)
	if err != nil {
		status, message := StatusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error("conversion failed", "url", req.PlaylistURL, "status", status, "error", err)
		} else {
			logger.Warn("conversion rejected", "url", req.PlaylistURL, "status", status, "error", err)
		}
		writeError(w, status, message)
		return
	}

	resp := ConvertResponse{
		Warnings: result.Warnings,
		Body:     string(result.Body),
		Filename: result.Filename,
	}
	if result.PlaylistName != "" {
		resp.PlaylistName = &result.PlaylistName
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	logger.Info("conversion finished", "playlist", result.PlaylistID, "tracks", result.TrackCount, "warnings", len(result.Warnings))
	writeJSON(w, http.StatusOK, resp)
}

// StatusFor maps a conversion error to an HTTP status and a message safe to show the caller.
func StatusFor(err error) (int, string) {
	var apiErr *services.APIError
	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingShowInfo):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound, "The playlist wasn't found. Is it marked as private?"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, apiErr.Error()
	case errors.Is(err, shared.ErrAuthFailed):
		return http.StatusBadGateway, "could not authenticate with Spotify"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Spotify took too long to respond"
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway, "Spotify couldn't be reached"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// Health reports that the process is up.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
