package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"shopify-variant-reset/internal/model"
	"shopify-variant-reset/internal/service"
	"shopify-variant-reset/pkg/apierror"
	"shopify-variant-reset/pkg/response"
)

// RunHandler triggers reset runs and reports their outcomes.
// Runs stay strictly sequential: a request while a run is active is
// rejected rather than queued.
type RunHandler struct {
	engine *service.Engine

	mu         sync.Mutex
	running    bool
	lastReport *model.RunReport
}

// NewRunHandler creates a new run handler.
func NewRunHandler(engine *service.Engine) *RunHandler {
	return &RunHandler{engine: engine}
}

// startRunRequest is the trigger request body.
type startRunRequest struct {
	ProductIDs []int64 `json:"product_ids"`
}

// StartRun handles POST /api/v1/runs
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if len(req.ProductIDs) == 0 {
		response.Error(w, apierror.BadRequest("product_ids is required"))
		return
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		response.Error(w, apierror.Conflict("a run is already in progress"))
		return
	}
	h.running = true
	h.mu.Unlock()

	go func() {
		// The run outlives the trigger request.
		report, err := h.engine.Run(context.Background(), req.ProductIDs)
		if err != nil {
			log.Printf("[RunHandler] Run failed: %v", err)
		}

		h.mu.Lock()
		h.running = false
		if report != nil {
			h.lastReport = report
		}
		h.mu.Unlock()
	}()

	response.Accepted(w, map[string]interface{}{
		"status":      "started",
		"product_ids": req.ProductIDs,
	})
}

// LastRun handles GET /api/v1/runs/last
func (h *RunHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	report := h.lastReport
	h.mu.Unlock()

	if report == nil {
		if running {
			response.OK(w, map[string]interface{}{"running": true})
			return
		}
		response.Error(w, apierror.NotFound("no runs recorded yet"))
		return
	}

	response.OK(w, map[string]interface{}{
		"running": running,
		"report":  report,
	})
}
