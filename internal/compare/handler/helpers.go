package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"npay-compare/internal/compare/service"
	"npay-compare/internal/middleware"
	"npay-compare/internal/publicdata"
)

type errorBody struct {
	Error          string `json:"error"`
	Details        string `json:"details,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, body errorBody) {
	respondJSON(w, status, body)
}

// respondCompareError maps comparison failures: bad input is the caller's fault,
// a failed feed is a dependency failure.
func respondCompareError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var ie *service.InputError
	var fe *service.FeedError
	switch {
	case errors.As(err, &ie):
		respondError(w, http.StatusBadRequest, errorBody{Error: ie.Error()})
	case errors.Is(err, publicdata.ErrNoAPIKey):
		log.Error().Err(err).Msg("compare")
		respondError(w, http.StatusInternalServerError, errorBody{Error: "API key is not configured"})
	case errors.As(err, &fe):
		respondError(w, http.StatusBadGateway, errorBody{
			Error:          "Failed to fetch non-covered items",
			Details:        fe.Err.Error(),
			UpstreamStatus: fe.Status,
		})
	default:
		log.Error().Err(err).Msg("compare")
		respondError(w, http.StatusInternalServerError, errorBody{Error: "Failed to compare items", Details: err.Error()})
	}
}

func requestLogger(base zerolog.Logger, r *http.Request) zerolog.Logger {
	if rid := middleware.GetRequestID(r); rid != "" {
		return base.With().Str("req_id", rid).Logger()
	}
	return base
}

// splitList accepts "a,b" as well as repeated parameters.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// splitNames keeps empty slots so names stay index-aligned with codes.
func splitNames(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		`attachment; filename="npay-compare`+fileExt(filename)+`"; filename*=UTF-8''`+url.PathEscape(filename))
	w.Header().Set("Cache-Control", "no-store")
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
