package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/readapi"
)

var errMissingAddress = errors.New("missing address")

// HealthStatus is the /health response body, extended from the
// teacher's flat {"status":"ok"} to report each dependency's own state
// (a supplemented feature; the teacher checked nothing beyond the
// process being up).
type HealthStatus struct {
	Status           string            `json:"status"`
	Components       map[string]string `json:"components"`
	ConnectedClients int               `json:"connected_clients"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ComponentChecker reports whether a dependency is currently healthy.
type ComponentChecker func() error

// HealthHandler runs every checker and reports "ok" only if all pass;
// any failing component flips the overall status to "degraded" without
// failing the HTTP call itself, mirroring the teacher's always-200
// healthCheck. connectedClients reports the Broadcaster's current
// subscriber count.
func HealthHandler(checkers map[string]ComponentChecker, connectedClients func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{
			Status:           "ok",
			Components:       make(map[string]string, len(checkers)),
			ConnectedClients: connectedClients(),
			Timestamp:        time.Now(),
		}

		for name, check := range checkers {
			if err := check(); err != nil {
				status.Status = "degraded"
				status.Components[name] = err.Error()
				continue
			}
			status.Components[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}

// ReadAPIHandler serves GET /tokens (get_all) and GET /tokens/{address}
// (get_by_address) by translating query parameters into a
// readapi.Filters and the readapi.API's result into JSON. All filter,
// sort and pagination logic lives in internal/readapi; this handler
// only parses and serializes.
func ReadAPIHandler(api *readapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/tokens/") {
			addr := strings.TrimPrefix(r.URL.Path, "/tokens/")
			if addr == "" {
				writeError(w, http.StatusBadRequest, errMissingAddress)
				return
			}
			getByAddress(w, r, api, addr)
			return
		}
		if addr := r.URL.Query().Get("address"); addr != "" {
			getByAddress(w, r, api, addr)
			return
		}
		getAll(w, r, api)
	}
}

func getAll(w http.ResponseWriter, r *http.Request, api *readapi.API) {
	q := r.URL.Query()
	filters := readapi.Filters{
		MinLiquidity: parseFloat(q.Get("min_liquidity")),
		MinVolume:    parseFloat(q.Get("min_volume")),
		Protocol:     q.Get("protocol"),
		TimePeriod:   readapi.TimePeriod(q.Get("time_period")),
		SortBy:       readapi.SortBy(q.Get("sort_by")),
		SortOrder:    readapi.SortOrder(q.Get("sort_order")),
		Limit:        parseInt(q.Get("limit")),
		Cursor:       parseInt(q.Get("cursor")),
	}

	page, err := api.GetAll(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func getByAddress(w http.ResponseWriter, r *http.Request, api *readapi.API, addr string) {
	tok, err := api.GetByAddress(r.Context(), addr)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, tok)
	case readapi.ErrNotFound:
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
