// Package handlers contains HTTP handlers for the status API.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/vmshift/vmshift/pkg/version"
)

// HealthResponse is the payload returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Health reports service liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:  "ok",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}
