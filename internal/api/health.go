package api

import (
	"net/http"
	"os"
)

type HealthHandler struct {
	dataDir string
	env     string
	version string
}

func NewHealthHandler(dataDir, env, version string) *HealthHandler {
	return &HealthHandler{
		dataDir: dataDir,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Readiness probes the data directory: the store cannot accept mutations when
// its write-through file is not writable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "ok"

	f, err := os.CreateTemp(h.dataDir, ".readiness-*")
	if err != nil {
		deps["datastore"] = "down"
		status = "error"
	} else {
		deps["datastore"] = "ok"
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
