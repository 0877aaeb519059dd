package api

import (
	"context"
	"net/http"
)

// Pinger checks that a dependency is reachable.
type Pinger func(ctx context.Context) error

// Readiness describes the deployment /readyz reports on. Nil pingers are not checked.
type Readiness struct {
	Report         string
	Sources        int
	MailTransport  string
	RecipientStore string
	RunHistory     Pinger
	Cache          Pinger
	Queue          Pinger
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status         string            `json:"status" example:"ready"`
	Report         string            `json:"report" example:"usd_dop"`
	Sources        int               `json:"sources" example:"3"`
	MailTransport  string            `json:"mail_transport" example:"mailjet"`
	RecipientStore string            `json:"recipient_store" example:"sheets"`
	Checks         map[string]string `json:"checks"`
}

const (
	checkOK          = "ok"
	checkUnavailable = "unavailable"
)

// HandleHealthz godoc
// @Summary Health check (liveness)
// @Description Always returns 200 OK if the service is running. Used for liveness probes.
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /healthz [get]
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}
}

// HandleReadyz godoc
// @Summary Readiness check
// @Description Checks the run history database, the cache Redis and the queue Redis, and reports which report, mail transport and recipient store this instance serves. Returns 200 only when every check passes.
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse "All dependencies ready"
// @Failure 503 {object} ReadyResponse "At least one dependency unavailable"
// @Router /readyz [get]
func HandleReadyz(rd Readiness) http.HandlerFunc {
	checks := []struct {
		name string
		ping Pinger
	}{
		{"run_history", rd.RunHistory},
		{"cache", rd.Cache},
		{"queue", rd.Queue},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := ReadyResponse{
			Status:         "ready",
			Report:         rd.Report,
			Sources:        rd.Sources,
			MailTransport:  rd.MailTransport,
			RecipientStore: rd.RecipientStore,
			Checks:         make(map[string]string, len(checks)),
		}
		code := http.StatusOK

		for _, c := range checks {
			if c.ping == nil {
				continue
			}
			if err := c.ping(r.Context()); err != nil {
				resp.Checks[c.name] = checkUnavailable
				resp.Status = "not ready"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.name] = checkOK
		}

		writeJSON(w, code, resp)
	}
}
