package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gridpulse.dev/telemetry/internal/analytics"
	"gridpulse.dev/telemetry/internal/telemetry"
)

// Fleet scan defaults, matching the analytics engine's thresholds.
const (
	defaultFleetThreshold = analytics.WarningThreshold
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondCoreError maps core error taxonomy onto HTTP status codes.
// ErrNotFound is an expected outcome and is not logged as an error.
func (s *Server) respondCoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, telemetry.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var pe *telemetry.PersistenceError
	if errors.As(err, &pe) {
		s.logger.Error("persistence failure", "op", pe.Op, "error", pe.Err)
		respondError(w, http.StatusInternalServerError, "storage failure, submission rolled back")
		return
	}

	s.logger.Error("unexpected failure", "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleIngestMeter(w http.ResponseWriter, r *http.Request) {
	var req MeterTelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reading, err := req.ToReading()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ingest.IngestMeter(r.Context(), reading); err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, IngestResponse{Success: true})
}

func (s *Server) handleIngestVehicle(w http.ResponseWriter, r *http.Request) {
	var req VehicleTelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reading, err := req.ToReading()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ingest.IngestVehicle(r.Context(), reading); err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, IngestResponse{Success: true})
}

func (s *Server) handleIngestMeterBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchMeterTelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	readings, err := req.ToReadings()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := s.ingest.IngestMeterBatch(r.Context(), readings)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, IngestResponse{Success: true, Count: count})
}

func (s *Server) handleIngestVehicleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchVehicleTelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	readings, err := req.ToReadings()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := s.ingest.IngestVehicleBatch(r.Context(), readings)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, IngestResponse{Success: true, Count: count})
}

func (s *Server) handleMeterStatus(w http.ResponseWriter, r *http.Request) {
	meterID := mux.Vars(r)["meterId"]

	status, err := s.ingest.GetMeterStatus(r.Context(), meterID)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newMeterStatusResponse(status))
}

func (s *Server) handleVehicleStatus(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicleId"]

	status, err := s.ingest.GetVehicleStatus(r.Context(), vehicleID)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newVehicleStatusResponse(status))
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicleId"]

	hours, err := hoursParam(r, analytics.DefaultWindowHours)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.engine.VehiclePerformance(r.Context(), vehicleID, hours)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleFleetInefficient(w http.ResponseWriter, r *http.Request) {
	hours, err := hoursParam(r, analytics.DefaultWindowHours)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	threshold := defaultFleetThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil || threshold <= 0 {
			respondError(w, http.StatusBadRequest, "threshold must be a positive number")
			return
		}
	}

	vehicles, err := s.engine.LowEfficiencyVehicles(r.Context(), threshold, hours)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FleetInefficiencyResponse{
		Vehicles:  vehicles,
		Threshold: threshold,
		Period:    strconv.Itoa(hours) + "h",
	})
}

// hoursParam parses the hours query parameter as a whole number of hours.
func hoursParam(r *http.Request, fallback int) (int, error) {
	v := r.URL.Query().Get("hours")
	if v == "" {
		return fallback, nil
	}

	hours, err := strconv.Atoi(v)
	if err != nil || hours <= 0 {
		return 0, errors.New("hours must be a positive integer")
	}
	return hours, nil
}
