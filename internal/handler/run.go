package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/repository"
	"github.com/iliyamo/restaurant-sim/internal/service"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
)

// RunService is what the run endpoints need from service.Simulation.
type RunService interface {
	Start(o service.Options) (string, error)
	Get(ctx context.Context, id string) (model.RunSummary, error)
	List(ctx context.Context, limit int) ([]model.RunSummary, error)
	Latest(ctx context.Context, id string) (model.FullState, error)
}

// RunHandler serves /v1/runs.  Defaults are the options of a run started
// without overrides.
type RunHandler struct {
	Runs     RunService
	Defaults service.Options
}

// NewRunHandler constructs a RunHandler and panics if the service is nil.
func NewRunHandler(runs RunService, defaults service.Options) *RunHandler {
	if runs == nil {
		panic("nil run service passed to NewRunHandler")
	}
	return &RunHandler{Runs: runs, Defaults: defaults}
}

type startRunReq struct {
	Groups *int   `json:"groups"`
	Tables *int   `json:"tables"`
	Seed   *int64 `json:"seed"`
}

type startRunResp struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
}

type stateResp struct {
	State model.FullState `json:"state"`
	Line  string          `json:"line"`
}

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// Start launches a run with the defaults overridden by the request body.
// The run continues after the response; poll GET /v1/runs/:id.
func (h *RunHandler) Start(c echo.Context) error {
	var req startRunReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	o := h.Defaults
	if req.Groups != nil {
		o.Groups = *req.Groups
	}
	if req.Tables != nil {
		o.Tables = *req.Tables
	}
	if req.Seed != nil {
		o.Timing.Seed = *req.Seed
	}
	if o.Timing.Seed == 0 {
		o.Timing.Seed = time.Now().UnixNano()
	}

	id, err := h.Runs.Start(o)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/runs/"+id)
	return c.JSON(http.StatusAccepted, startRunResp{ID: id, Outcome: model.OutcomeRunning})
}

// List returns the most recent runs.  ?limit= caps the result.
func (h *RunHandler) List(c echo.Context) error {
	limit := defaultListLimit
	if s := strings.TrimSpace(c.QueryParam("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxListLimit)
	}
	runs, err := h.Runs.List(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list runs"})
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	noStoreWhileRunning(c, runs...)
	return c.JSON(http.StatusOK, echo.Map{"runs": runs})
}

// Get returns one run summary.
func (h *RunHandler) Get(c echo.Context) error {
	run, err := h.Runs.Get(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrRunNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load run"})
	}
	noStoreWhileRunning(c, run)
	return c.JSON(http.StatusOK, run)
}

// noStoreWhileRunning keeps a response out of caches while any of the runs
// it describes can still change.
func noStoreWhileRunning(c echo.Context, runs ...model.RunSummary) {
	for _, r := range runs {
		if r.Outcome == model.OutcomeRunning {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return
		}
	}
}

// State returns the latest snapshot of a run along with its log line.
func (h *RunHandler) State(c echo.Context) error {
	st, err := h.Runs.Latest(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no state for run"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load state"})
	}
	return c.JSON(http.StatusOK, stateResp{
		State: st,
		Line:  strings.TrimSuffix(statelog.FormatLine(st), "\n"),
	})
}

// Me echoes the identity carried by the access token.
func Me(c echo.Context) error {
	sub, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	return c.JSON(http.StatusOK, echo.Map{"subject": sub, "role": role})
}
