package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"chargehub/internal/task"
)

// taskResult mirrors one per-charge-box outcome on the wire.
type taskResult struct {
	Response     *string `json:"response,omitempty"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
}

type taskDetails struct {
	task.Overview
	Results map[string]taskResult `json:"results"`
}

// NewTaskOverviewHandler handles GET /api/v1/tasks.
func NewTaskOverviewHandler(store *task.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Overview())
	}
}

// NewTaskDetailsHandler handles GET /api/v1/tasks/{id}.
func NewTaskDetailsHandler(store *task.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(pathVar(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}

		t, err := store.Get(id)
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load task")
			return
		}

		results := make(map[string]taskResult)
		for chargeBoxID, res := range t.Results() {
			results[chargeBoxID] = taskResult{Response: res.Response, ErrorMessage: res.ErrorMessage}
		}
		writeJSON(w, http.StatusOK, taskDetails{Overview: t.Overview(), Results: results})
	}
}

// NewClearFinishedTasksHandler handles POST /api/v1/tasks/clear-finished.
func NewClearFinishedTasksHandler(store *task.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.ClearFinished()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
