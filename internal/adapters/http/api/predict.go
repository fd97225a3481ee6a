// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/breakpoint/internal/app"
	"github.com/okian/breakpoint/internal/domain/feature"
	"github.com/okian/breakpoint/internal/domain/model"
	"github.com/okian/breakpoint/internal/domain/rating"
)

const (
	minBestOf = 3
	maxBestOf = 5
)

// PredictDependencies defines the interface for prediction operations.
type PredictDependencies interface {
	Predict(ctx context.Context, req service.PredictRequest) (service.PredictResponse, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictRequest is the POST /predict body. Date must lie strictly after
// both players' last recorded matches.
type predictRequest struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Date    string `json:"date"`
	Surface string `json:"surface"`
	Indoor  bool   `json:"indoor"`
	Level   string `json:"level"`
	Round   string `json:"round"`
	BestOf  int    `json:"best_of"`
}

func (p predictRequest) validate() error {
	switch {
	case strings.TrimSpace(p.PlayerA) == "":
		return errors.New("missing player_a")
	case strings.TrimSpace(p.PlayerB) == "":
		return errors.New("missing player_b")
	case strings.TrimSpace(p.PlayerA) == strings.TrimSpace(p.PlayerB):
		return errors.New("player_a and player_b must differ")
	case strings.TrimSpace(p.Date) == "":
		return errors.New("missing date")
	case p.BestOf != 0 && (p.BestOf < minBestOf || p.BestOf > maxBestOf):
		return fmt.Errorf("best_of must be %d or %d", minBestOf, maxBestOf)
	}
	if _, err := time.Parse(time.DateOnly, p.Date); err != nil {
		return errors.New("invalid date; must be YYYY-MM-DD")
	}
	return nil
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	date, _ := time.Parse(time.DateOnly, req.Date)
	bestOf := req.BestOf
	if bestOf == 0 {
		bestOf = minBestOf
	}
	resp, err := h.deps.Predict(r.Context(), service.PredictRequest{
		PlayerA: strings.TrimSpace(req.PlayerA),
		PlayerB: strings.TrimSpace(req.PlayerB),
		Date:    date,
		Surface: model.ParseSurface(req.Surface),
		Indoor:  req.Indoor,
		Level:   req.Level,
		Round:   model.ParseRound(req.Round),
		BestOf:  bestOf,
	})
	if err != nil {
		switch {
		case errors.Is(err, feature.ErrLeakDetected):
			writeError(w, http.StatusUnprocessableEntity, "date_wall", err)
		case errors.Is(err, rating.ErrMissingPlayer):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, service.ErrNotServing):
			writeError(w, http.StatusServiceUnavailable, "not_ready", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
