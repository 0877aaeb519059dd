package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ratebot/internal/report"
	"ratebot/internal/service"
)

// RunResponse represents the response for a report run request
type RunResponse struct {
	RunID string `json:"run_id" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// EntryResponse is one row of a report
type EntryResponse struct {
	Source string `json:"source" example:"Banco Popular"`
	Buy    string `json:"buy" example:"$57.50"`
	Sell   string `json:"sell" example:"$60.50"`
}

// RunStatusResponse represents the response for a report run by ID
type RunStatusResponse struct {
	RunID       string          `json:"run_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Report      string          `json:"report" example:"usd_dop"`
	Status      string          `json:"status" example:"SUCCESS"`
	Entries     []EntryResponse `json:"entries,omitempty"`
	Recipients  int             `json:"recipients" example:"12"`
	RequestedAt string          `json:"requested_at" example:"2025-12-01T10:15:00Z"`
	UpdatedAt   *string         `json:"updated_at,omitempty" example:"2025-12-01T10:15:30Z"`
	Error       *string         `json:"error,omitempty" example:"send report: mailjet: status 401"`
}

// HandleRequestRun godoc
// @Summary Request an asynchronous report run
// @Description Records a report run and queues it. Returns immediately with a run_id for tracking. If a run is already pending or running, its run_id is returned instead.
// @Tags reports
// @Produce json
// @Success 202 {object} RunResponse "Run accepted"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /reports/run [post]
func HandleRequestRun(svc service.ReportServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, _, err := svc.RequestRun(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			return
		}
		writeJSON(w, http.StatusAccepted, RunResponse{RunID: runID})
	}
}

// HandleGetRunByID godoc
// @Summary Get report run status and result by ID
// @Description Retrieves the status of a report run. Rates and recipient count are present once the report was built.
// @Tags reports
// @Produce json
// @Param run_id path string true "Run ID (UUID)" format(uuid)
// @Success 200 {object} RunStatusResponse "Run found"
// @Failure 400 {object} ErrorResponse "Invalid run_id format"
// @Failure 404 {object} ErrorResponse "Unknown run_id"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /reports/{run_id} [get]
func HandleGetRunByID(svc service.ReportServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "run_id")
		if runID == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "run_id is required"})
			return
		}

		run, err := svc.GetRun(r.Context(), runID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidRunID):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			case errors.Is(err, service.ErrNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Unknown run_id"})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, RunStatusResponse{
			RunID:       run.ID,
			Report:      run.Report,
			Status:      run.Status,
			Entries:     entriesResponse(run.Entries),
			Recipients:  run.Recipients,
			RequestedAt: run.RequestedAt,
			UpdatedAt:   run.UpdatedAt,
			Error:       run.ErrorMsg,
		})
	}
}

// HandleGetLatestReport godoc
// @Summary Get the latest report
// @Description Returns the HTML of the most recent run that built a report. Does NOT trigger a new run.
// @Tags reports
// @Produce html
// @Success 200 {string} string "Report HTML"
// @Failure 404 {object} ErrorResponse "No report built yet"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /reports/latest [get]
func HandleGetLatestReport(svc service.ReportServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := svc.GetLatestReport(r.Context())
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "No report available yet"})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}

		w.Header().Set(headerRunID, latest.RunID)
		writeHTML(w, http.StatusOK, latest.HTML)
	}
}

// HandlePreview godoc
// @Summary Preview today's report
// @Description Scrapes every source and renders the report. Nothing is stored or sent.
// @Tags reports
// @Produce html
// @Success 200 {string} string "Report HTML"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /reports/preview [get]
func HandlePreview(svc service.ReportServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html, err := svc.Preview(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			return
		}
		writeHTML(w, http.StatusOK, html)
	}
}

func entriesResponse(entries []report.Entry) []EntryResponse {
	if len(entries) == 0 {
		return nil
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{Source: e.SourceName, Buy: e.Buy, Sell: e.Sell})
	}
	return out
}
