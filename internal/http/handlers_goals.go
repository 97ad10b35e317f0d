package http

import (
	"net/http"

	"pennywise/internal/core"
)

type goalPayload struct {
	ID             int64   `json:"id"`
	ChildID        int64   `json:"child_id"`
	Title          string  `json:"title"`
	Amount         string  `json:"amount"`
	Deadline       string  `json:"deadline,omitempty"`
	Status         string  `json:"status"`
	Percent        float64 `json:"percent"`
	Remaining      string  `json:"remaining"`
	DisplayPercent float64 `json:"display_percent"`
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createGoal(w, r)
	case http.MethodGet:
		s.listGoals(w, r)
	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		ChildID  int64  `json:"child_id"`
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		Deadline string `json:"deadline,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal := core.Goal{ChildID: req.ChildID, Title: req.Title, Amount: amount}
	if req.Deadline != "" {
		if goal.Deadline, err = parseBodyDate(req.Deadline); err != nil {
			writeError(w, r, err)
			return
		}
	}

	created, err := s.goals.CreateGoal(r.Context(), actor, goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, goalPayload{
		ID:      created.ID,
		ChildID: created.ChildID,
		Title:   created.Title,
		Amount:  created.Amount.String(),
		Status:  string(created.Status),
	})
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	childID, err := queryID(r, "child_id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	status := core.GoalStatus(r.URL.Query().Get("status"))

	views, err := s.goals.ListGoals(r.Context(), actor, childID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload := make([]goalPayload, 0, len(views))
	for _, v := range views {
		p := goalPayload{
			ID:             v.Goal.ID,
			ChildID:        v.Goal.ChildID,
			Title:          v.Goal.Title,
			Amount:         v.Goal.Amount.String(),
			Status:         string(v.Goal.Status),
			Percent:        v.Progress.Percent,
			Remaining:      v.Progress.Remaining.String(),
			DisplayPercent: v.DisplayPercent,
		}
		if !v.Goal.Deadline.IsZero() {
			p.Deadline = v.Goal.Deadline.Format(dateLayout)
		}
		payload = append(payload, p)
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGoalStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		GoalID int64  `json:"goal_id"`
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.GoalID == 0 {
		writeBadRequest(w, "goal_id is required")
		return
	}

	if err := s.goals.UpdateGoalStatus(r.Context(), actor, req.GoalID, core.GoalStatus(req.Status)); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
