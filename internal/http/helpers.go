package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pennywise/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst with a size cap.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto status codes: validation 422, not
// found 404, insufficient balance and duplicates 409, not authorized
// 403, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientBalance), errors.Is(err, core.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, core.ErrNotAuthorized):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// actorFromHeaders builds the acting user from the X-Actor-* headers set
// by the upstream auth proxy. Token resolution is out of scope here; the
// handlers trust the resolved identity.
func actorFromHeaders(r *http.Request) (core.Actor, error) {
	userID, err := strconv.ParseInt(r.Header.Get("X-Actor-User-ID"), 10, 64)
	if err != nil || userID == 0 {
		return core.Actor{}, fmt.Errorf("missing actor: %w", core.ErrNotAuthorized)
	}

	actor := core.Actor{UserID: userID}
	for _, role := range strings.Split(r.Header.Get("X-Actor-Roles"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			actor.Roles = append(actor.Roles, role)
		}
	}
	actor.ChildID = headerID(r, "X-Actor-Child-ID")
	actor.ParentID = headerID(r, "X-Actor-Parent-ID")
	actor.TeacherID = headerID(r, "X-Actor-Teacher-ID")
	return actor, nil
}

func headerID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.Header.Get(name), 10, 64)
	return id
}

// queryID parses a required int64 query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// queryDate parses a YYYY-MM-DD query parameter, returning fallback when
// absent.
func queryDate(r *http.Request, name string, fallback core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback, nil
	}
	parts := strings.Split(v, "-")
	if len(parts) != 3 {
		return core.Date{}, fmt.Errorf("invalid %s: want YYYY-MM-DD", name)
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return core.Date{}, fmt.Errorf("invalid %s: want YYYY-MM-DD", name)
	}
	return core.NewDate(year, month, day), nil
}

// parseAmount converts a decimal JSON string ("12.34" or "12,34") into
// Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
