package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"npay-compare/internal/compare/model"
	"npay-compare/internal/compare/service"
	"npay-compare/internal/export"
	"npay-compare/internal/fileio"
	"npay-compare/internal/publicdata"
)

const exportBaseName = "비급여_항목_비교"

type HospitalDirectory interface {
	SearchHospitals(ctx context.Context, q model.HospitalQuery) ([]model.Hospital, error)
}

type Handler struct {
	svc         *service.Service
	items       service.ItemFeed
	hospitals   HospitalDirectory
	maxUploadMB int
	log         zerolog.Logger
}

func New(items service.ItemFeed, hospitals HospitalDirectory, maxUploadMB int, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:         service.NewService(items, logger),
		items:       items,
		hospitals:   hospitals,
		maxUploadMB: maxUploadMB,
		log:         logger,
	}
}

type compareRequest struct {
	HospitalCodes []string `json:"hospital_codes"`
	HospitalNames []string `json:"hospital_names"`
}

func (h *Handler) runCompare(w http.ResponseWriter, r *http.Request) (model.Result, bool) {
	log := requestLogger(h.log, r)

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Details: err.Error()})
		return model.Result{}, false
	}

	res, err := h.svc.Compare(r.Context(), req.HospitalCodes, req.HospitalNames)
	if err != nil {
		respondCompareError(w, log, err)
		return model.Result{}, false
	}
	return res, true
}

// Compare handles POST /compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runCompare(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Export handles POST /compare/export?format=csv|xlsx.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		respondError(w, http.StatusBadRequest, errorBody{Error: "format must be csv or xlsx"})
		return
	}

	res, ok := h.runCompare(w, r)
	if !ok {
		return
	}
	h.writeExport(w, r, format, res)
}

// writeExport renders the whole file before touching the response so a render
// failure can still be reported as 500.
func (h *Handler) writeExport(w http.ResponseWriter, r *http.Request, format string, res model.Result) {
	log := requestLogger(h.log, r)

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, res)
	default:
		format = "csv"
		contentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, res)
	}
	if err != nil {
		log.Error().Err(err).Str("format", format).Msg("render export")
		respondError(w, http.StatusInternalServerError, errorBody{Error: "Failed to render export", Details: err.Error()})
		return
	}

	attachment(w, exportBaseName+"."+format, contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Str("format", format).Msg("write export")
	}
}

// Upload handles POST /compare/upload: a multipart dataset file (csv/xls/xlsx)
// compared offline instead of calling the portal.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)

	if err := r.ParseMultipartForm(int64(h.maxUploadMB) << 20); err != nil {
		respondError(w, http.StatusBadRequest, errorBody{Error: "bad multipart form", Details: err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, errorBody{Error: "missing file", Details: err.Error()})
		return
	}
	defer file.Close()

	codes := splitList(r.MultipartForm.Value["hospital_codes"])
	names := splitNames(r.MultipartForm.Value["hospital_names"])
	if len(codes) < 2 {
		respondCompareError(w, log, &service.InputError{Err: service.ErrTooFewHospitals})
		return
	}

	maps, err := fileio.ReadAnyMaps(file, header.Filename, atoi(r.FormValue("header_row"), 1))
	if err != nil {
		respondError(w, http.StatusBadRequest, errorBody{Error: "failed to read file", Details: err.Error()})
		return
	}
	feed := fileio.NewFileFeed(fileio.ItemsFromMaps(maps, fileio.DefaultItemMapping))
	log.Debug().Str("file", header.Filename).Int("rows", len(maps)).Int("items", feed.Len()).Msg("dataset loaded")

	res, err := service.NewService(feed, log).Compare(r.Context(), codes, names)
	if err != nil {
		respondCompareError(w, log, err)
		return
	}

	switch format := strings.ToLower(r.FormValue("format")); format {
	case "csv", "xlsx":
		h.writeExport(w, r, format, res)
	default:
		respondJSON(w, http.StatusOK, res)
	}
}

// Hospitals handles GET /hospitals?sido=&gugun=&search=.
func (h *Handler) Hospitals(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)
	q := r.URL.Query()

	hs, err := h.hospitals.SearchHospitals(r.Context(), model.HospitalQuery{
		Sido:   q.Get("sido"),
		Sggu:   q.Get("gugun"),
		Search: strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		var ue *publicdata.UpstreamError
		var rce *publicdata.ResultCodeError
		switch {
		case errors.Is(err, publicdata.ErrNoAPIKey):
			respondError(w, http.StatusInternalServerError, errorBody{Error: "API key is not configured"})
		case errors.As(err, &ue):
			log.Error().Err(err).Msg("hospital list")
			respondError(w, http.StatusBadGateway, errorBody{Error: "Upstream API request failed", UpstreamStatus: ue.Status})
		case errors.As(err, &rce):
			respondError(w, http.StatusBadRequest, errorBody{Error: rce.Error()})
		default:
			log.Error().Err(err).Msg("hospital list")
			respondError(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch hospitals", Details: err.Error()})
		}
		return
	}
	if hs == nil {
		hs = []model.Hospital{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"hospitals": hs, "totalCount": len(hs)})
}

// NonCovered handles GET /noncovered?hospital_codes=a,b.
func (h *Handler) NonCovered(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)

	codes := splitList(r.URL.Query()["hospital_codes"])
	if len(codes) == 0 {
		respondError(w, http.StatusBadRequest, errorBody{Error: "hospital_codes parameter is required"})
		return
	}

	items, err := h.items.FetchItems(r.Context(), codes)
	if err != nil {
		if errors.Is(err, publicdata.ErrNoAPIKey) {
			respondError(w, http.StatusInternalServerError, errorBody{Error: "API key is not configured"})
			return
		}
		log.Error().Err(err).Strs("hospitals", codes).Msg("non-covered items")
		status := 0
		var ue *publicdata.UpstreamError
		if errors.As(err, &ue) {
			status = ue.Status
		}
		respondError(w, http.StatusBadGateway, errorBody{
			Error:          "Failed to fetch non-covered items",
			Details:        err.Error(),
			UpstreamStatus: status,
		})
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items, "totalCount": len(items)})
}
