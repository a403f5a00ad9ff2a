package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

func (api *Api) ListGoalsHandler(w http.ResponseWriter, r *http.Request) {
	goals, err := api.db.ListGoals()
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (api *Api) GetGoalHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	goal, err := api.db.GetGoal(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (api *Api) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	var goal models.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(goal.Title) == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := api.db.CreateGoal(&goal); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": goal.ID})
}

func (api *Api) UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var goal models.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	goal.ID = id

	changes, err := api.db.UpdateGoal(&goal)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

func (api *Api) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	changes, err := api.db.DeleteGoal(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

func (api *Api) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	tasks, err := api.db.ListTasks(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (api *Api) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GoalID int64  `json:"goal_id"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GoalID <= 0 || strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "goal_id and title are required")
		return
	}

	id, err := api.db.CreateTask(req.GoalID, req.Title)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (api *Api) ToggleTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	changes, err := api.db.ToggleTask(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

func (api *Api) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	changes, err := api.db.DeleteTask(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

func (api *Api) ListLogsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	logs, err := api.db.ListLogs(id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (api *Api) CreateLogHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GoalID int64  `json:"goal_id"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GoalID <= 0 || strings.TrimSpace(req.Note) == "" {
		respondError(w, http.StatusBadRequest, "goal_id and note are required")
		return
	}

	id, err := api.db.CreateLog(req.GoalID, req.Note)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
