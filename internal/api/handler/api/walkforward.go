// internal/api/handler/api/walkforward.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/walkforward"
)

const walkforwardTimeout = 30 * time.Minute

// RunRequest is the request body for starting a walk-forward run.
type RunRequest struct {
	Symbol   string `json:"symbol"`
	Strategy string `json:"strategy"`
	Start    string `json:"start"`
	End      string `json:"end"`

	TrainDays int `json:"train_days,omitempty"`
	TestDays  int `json:"test_days,omitempty"`
	StepDays  int `json:"step_days,omitempty"`
	MinFolds  int `json:"min_folds,omitempty"`

	ReoptimizeEachFold *bool                   `json:"reoptimize_each_fold,omitempty"`
	Params             map[string]any          `json:"params,omitempty"`
	SearchSpace        walkforward.SearchSpace `json:"search_space,omitempty"`
	Objective          string                  `json:"objective,omitempty"`
}

// Runner executes one walk-forward study end to end, including export.
// The API layer treats it as a black box so handlers stay testable.
type Runner interface {
	RunWalkForward(ctx context.Context, req RunParams, progress walkforward.ProgressFunc) (*walkforward.Summary, error)
}

// RunParams is the parsed, validated form of RunRequest.
type RunParams struct {
	Symbol   string
	Strategy string
	Start    time.Time
	End      time.Time

	TrainDays int
	TestDays  int
	StepDays  int
	MinFolds  int

	ReoptimizeEachFold *bool
	Params             core.Params
	SearchSpace        walkforward.SearchSpace
	Objective          string
}

// WalkForwardHandler handles walk-forward API requests.
type WalkForwardHandler struct {
	jobStore *job.Store
	runner   Runner
}

// NewWalkForwardHandler creates a new walk-forward handler.
func NewWalkForwardHandler(jobStore *job.Store, runner Runner) *WalkForwardHandler {
	return &WalkForwardHandler{jobStore: jobStore, runner: runner}
}

// Create starts a new walk-forward job.
func (h *WalkForwardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	params, err := parseRunRequest(req)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	j := h.jobStore.Create("walkforward")
	jobID := j.ID
	status := j.Status

	go h.run(jobID, params)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func parseRunRequest(req RunRequest) (RunParams, error) {
	if req.Symbol == "" || req.Strategy == "" {
		return RunParams{}, core.WrapError(core.ErrConfigMissing, nil)
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		return RunParams{}, core.WrapError(core.ErrConfigInvalid, err)
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		return RunParams{}, core.WrapError(core.ErrConfigInvalid, err)
	}

	return RunParams{
		Symbol:             req.Symbol,
		Strategy:           req.Strategy,
		Start:              start,
		End:                end,
		TrainDays:          req.TrainDays,
		TestDays:           req.TestDays,
		StepDays:           req.StepDays,
		MinFolds:           req.MinFolds,
		ReoptimizeEachFold: req.ReoptimizeEachFold,
		Params:             core.Params(req.Params),
		SearchSpace:        req.SearchSpace,
		Objective:          req.Objective,
	}, nil
}

// run executes the study and mirrors progress into the job store.
func (h *WalkForwardHandler) run(jobID string, params RunParams) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	progress := func(percent int, message string) {
		h.jobStore.Update(jobID, func(j *job.Job) {
			if percent > j.Progress {
				j.Progress = percent
			}
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), walkforwardTimeout)
	defer cancel()
	summary, err := h.runner.RunWalkForward(ctx, params, progress)

	if err != nil {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrFoldFailed, err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = summary
	})
}

// GetStatus returns the status of a walk-forward job.
func (h *WalkForwardHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
