/*
scenarios.go - Demo scenarios, seeding and snapshot import/export

PURPOSE:

	Provides pre-built farms that replace the store's contents with
	realistic data for demos and manual testing. Each scenario is a YAML
	snapshot document embedded in the binary (see scenarios/*.yaml) and
	parsed by the factory package.

AVAILABLE SCENARIOS:

	empty-farm:      Master data only
	carry-forward:   Balances chained across a month without activity
	shared-expenses: Percentage and fixed allocations, unassigned costs
	split-days:      Half days across groups and a cap violation

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "carry-forward"}

	GET  /api/export            current data as YAML
	POST /api/import            replace everything with a YAML body

ADDING NEW SCENARIOS:
 1. Add scenarios/<id>.yaml
 2. Add an entry with the same id to the 'scenarios' slice

NOTE:

	Loading a scenario or importing replaces all data. Only use in
	development/demo environments.

SEE ALSO:
  - factory/snapshot.go: YAML schema
*/
package api

import (
	"context"
	"embed"
	"fmt"
	"io"
	"net/http"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/sirupsen/logrus"
)

//go:embed scenarios/*.yaml
var scenarioFS embed.FS

// maxImportBytes caps the size of an imported YAML document.
const maxImportBytes = 10 << 20

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty-farm",
		Name:        "Empty Farm",
		Description: "Workers, groups, activities and areas with no attendance yet",
		Category:    "setup",
	},
	{
		ID:          "carry-forward",
		Name:        "Carry Forward",
		Description: "Paddy closes January at 500, carries it through a quiet February and closes March at 1000",
		Category:    "balances",
	},
	{
		ID:          "shared-expenses",
		Name:        "Shared Expenses",
		Description: "Running costs split by percentage and fixed amount, with unallocated and unassigned remainders",
		Category:    "expenses",
	},
	{
		ID:          "split-days",
		Name:        "Split Days",
		Description: "Half days across two groups and an imported sheet over the daily cap",
		Category:    "attendance",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces all data with a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		if _, known := findScenario(req.ScenarioID); !known {
			writeError(w, http.StatusNotFound, "Unknown scenario", err)
			return
		}
		h.fail(w, r, "Failed to load scenario", err)
		return
	}

	s, _ := findScenario(req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": s,
	})
}

// ResetDatabase removes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.ReplaceAll(r.Context(), &engine.Snapshot{}); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	h.Log.Info("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// loadScenario must be called with h.mu held.
func (h *Handler) loadScenario(ctx context.Context, id string) error {
	if _, ok := findScenario(id); !ok {
		return fmt.Errorf("unknown scenario: %s", id)
	}
	data, err := scenarioFS.ReadFile("scenarios/" + id + ".yaml")
	if err != nil {
		return fmt.Errorf("failed to read scenario %s: %w", id, err)
	}
	snap, err := h.Factory.Parse(data)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	if err := h.Store.ReplaceAll(ctx, snap); err != nil {
		return err
	}
	h.currentScenario = id
	h.Log.WithField("scenario", id).Info("scenario loaded")
	return nil
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// =============================================================================
// SEEDING, IMPORT AND EXPORT
// =============================================================================

// Seed loads a YAML snapshot file into the store if the store holds no
// workers and no groups yet. It reports whether anything was loaded.
func (h *Handler) Seed(ctx context.Context, path string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, err := h.Store.LoadSnapshot(ctx)
	if err != nil {
		return false, err
	}
	if len(current.Workers) > 0 || len(current.Groups) > 0 {
		h.Log.WithField("seed_file", path).Info("store already has data, skipping seed")
		return false, nil
	}

	snap, err := h.Factory.ParseFile(path)
	if err != nil {
		return false, err
	}
	if err := h.Store.ReplaceAll(ctx, snap); err != nil {
		return false, err
	}
	h.Log.WithFields(logrus.Fields{
		"seed_file": path,
		"workers":   len(snap.Workers),
		"groups":    len(snap.Groups),
	}).Info("store seeded")
	return true, nil
}

// Export writes all data as a YAML snapshot document.
// GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	data, err := h.Factory.Marshal(snap)
	if err != nil {
		h.fail(w, r, "Failed to export data", err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="farm.yaml"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces all data with the YAML snapshot in the request body.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	snap, err := h.Factory.Parse(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot document", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.ReplaceAll(r.Context(), snap); err != nil {
		h.fail(w, r, "Failed to import data", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "imported",
		"workers":  len(snap.Workers),
		"groups":   len(snap.Groups),
		"expenses": len(snap.Expenses),
		"payments": len(snap.Payments),
	})
}
