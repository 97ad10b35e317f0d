package http

import (
	"net/http"
	"strconv"
	"time"

	"pennywise/internal/core"
)

type notePayload struct {
	ID       int64  `json:"id"`
	SenderID int64  `json:"sender_id"`
	ChildID  int64  `json:"child_id"`
	Message  string `json:"message"`
	SentAt   string `json:"sent_at"`
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req struct {
			ChildID int64  `json:"child_id"`
			Message string `json:"message"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		note, err := s.family.SendNote(r.Context(), actor, core.Note{
			ChildID: req.ChildID,
			Message: req.Message,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, notePayload{
			ID:       note.ID,
			SenderID: note.SenderID,
			ChildID:  note.ChildID,
			Message:  note.Message,
			SentAt:   note.SentAt.Format(time.RFC3339),
		})

	case http.MethodGet:
		childID, err := queryID(r, "child_id")
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		notes, err := s.family.ListNotes(r.Context(), actor, childID, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		payload := make([]notePayload, 0, len(notes))
		for _, n := range notes {
			payload = append(payload, notePayload{
				ID:       n.ID,
				SenderID: n.SenderID,
				ChildID:  n.ChildID,
				Message:  n.Message,
				SentAt:   n.SentAt.Format(time.RFC3339),
			})
		}
		respondJSON(w, http.StatusOK, payload)

	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

type challengePayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Reward      string `json:"reward,omitempty"`
	EndsOn      string `json:"ends_on,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description,omitempty"`
			Reward      string `json:"reward,omitempty"`
			EndsOn      string `json:"ends_on,omitempty"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		challenge := core.Challenge{
			Title:       req.Title,
			Description: req.Description,
			Reward:      req.Reward,
		}
		if req.EndsOn != "" {
			ends, err := time.Parse(dateLayout, req.EndsOn)
			if err != nil {
				writeBadRequest(w, "invalid ends_on: want YYYY-MM-DD")
				return
			}
			challenge.EndsOn = ends
		}
		created, err := s.family.CreateChallenge(r.Context(), actor, challenge)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, challengePayload{
			ID:          created.ID,
			Title:       created.Title,
			Description: created.Description,
			Reward:      created.Reward,
			EndsOn:      formatOptionalDay(created.EndsOn),
		})

	case http.MethodGet:
		childID, err := queryID(r, "child_id")
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		views, err := s.family.ListChallengesFor(r.Context(), actor, childID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		payload := make([]challengePayload, 0, len(views))
		for _, v := range views {
			payload = append(payload, challengePayload{
				ID:          v.Challenge.ID,
				Title:       v.Challenge.Title,
				Description: v.Challenge.Description,
				Reward:      v.Challenge.Reward,
				EndsOn:      formatOptionalDay(v.Challenge.EndsOn),
				Status:      string(v.Status),
			})
		}
		respondJSON(w, http.StatusOK, payload)

	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

func (s *Server) handleChallengeStatus(w http.ResponseWriter, r *http.Request) {
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
		ChildID     int64  `json:"child_id"`
		ChallengeID int64  `json:"challenge_id"`
		Status      string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.ChildID == 0 || req.ChallengeID == 0 {
		writeBadRequest(w, "child_id and challenge_id are required")
		return
	}

	err = s.family.SetChallengeStatus(r.Context(), actor, req.ChildID, req.ChallengeID, core.ChallengeStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func formatOptionalDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
