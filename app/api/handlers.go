package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weweops/wewe-refresh/app/database"
)

type Handler struct {
	store   database.RunStore
	version string
}

func NewHandler(store database.RunStore, version string) *Handler {
	return &Handler{store: store, version: version}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (h *Handler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run id must be an integer"})
		return
	}

	run, cycles, err := h.store.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	type cycleView struct {
		database.CycleReport
		Outcomes []database.EntryOutcome `json:"outcomes"`
	}

	views := make([]cycleView, 0, len(cycles))
	for _, cycle := range cycles {
		outcomes, err := h.store.GetCycleOutcomes(cycle.ID)
		if err != nil {
			slog.Error("Database error", "operation", "get_cycle_outcomes", "cycle_id", cycle.ID, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		views = append(views, cycleView{CycleReport: cycle, Outcomes: outcomes})
	}

	c.JSON(http.StatusOK, gin.H{"run": run, "cycles": views})
}
