package server

import (
	"encoding/json"
	"net/http"

	"payloadbridge/internal/dto"
)

// HealthHandler reports liveness. It never checks downstream services.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.HealthResponse{Status: "ok"})
}
