package http

import (
	"net/http"
	"strconv"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/services"
	"pennywise/internal/storage"
)

const dateLayout = "2006-01-02"

type grantPayload struct {
	ID        int64  `json:"id"`
	ChildID   int64  `json:"child_id"`
	ParentID  int64  `json:"parent_id"`
	Amount    string `json:"amount"`
	DateGiven string `json:"date_given"`
	Recurring bool   `json:"recurring"`
	Schedule  string `json:"schedule,omitempty"`
	StoredIn  string `json:"stored_in,omitempty"`
}

func grantToPayload(g core.Grant) grantPayload {
	return grantPayload{
		ID:        g.ID,
		ChildID:   g.ChildID,
		ParentID:  g.ParentID,
		Amount:    g.Amount.String(),
		DateGiven: g.DateGiven.Format(dateLayout),
		Recurring: g.Recurring,
		Schedule:  string(g.Schedule),
		StoredIn:  g.StoredIn,
	}
}

func (s *Server) handleAllowances(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createAllowance(w, r)
	case http.MethodGet:
		s.listAllowances(w, r)
	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

func (s *Server) createAllowance(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		ChildID   int64  `json:"child_id"`
		ParentID  int64  `json:"parent_id,omitempty"`
		Amount    string `json:"amount"`
		DateGiven string `json:"date_given"`
		Recurring bool   `json:"recurring"`
		Schedule  string `json:"schedule,omitempty"`
		StoredIn  string `json:"stored_in,omitempty"`
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
	date, err := parseBodyDate(req.DateGiven)
	if err != nil {
		writeError(w, r, err)
		return
	}

	grant, err := s.ledger.GrantAllowance(r.Context(), actor, services.GrantRequest{
		ChildID:   req.ChildID,
		ParentID:  req.ParentID,
		Amount:    amount,
		DateGiven: date,
		Recurring: req.Recurring,
		Schedule:  core.Schedule(req.Schedule),
		StoredIn:  req.StoredIn,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, grantToPayload(grant))
}

func (s *Server) listAllowances(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	parentID, err := queryID(r, "parent_id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	filter := storage.GrantFilter{}
	if v := r.URL.Query().Get("child_id"); v != "" {
		filter.ChildID, _ = strconv.ParseInt(v, 10, 64)
	}
	if filter.From, err = queryDate(r, "from", core.Date{}); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if filter.To, err = queryDate(r, "to", core.Date{}); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	grants, err := s.ledger.ListGrants(r.Context(), actor, parentID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := make([]grantPayload, 0, len(grants))
	for _, g := range grants {
		payload = append(payload, grantToPayload(g))
	}
	respondJSON(w, http.StatusOK, payload)
}

type spendingPayload struct {
	ID          int64  `json:"id"`
	ChildID     int64  `json:"child_id"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	SpendDate   string `json:"spend_date"`
	Description string `json:"description,omitempty"`
}

func spendingToPayload(sp core.Spending) spendingPayload {
	return spendingPayload{
		ID:          sp.ID,
		ChildID:     sp.ChildID,
		Category:    sp.Category,
		Amount:      sp.Amount.String(),
		SpendDate:   sp.SpendDate.Format(dateLayout),
		Description: sp.Description,
	}
}

func (s *Server) handleSpendings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSpending(w, r)
	case http.MethodGet:
		s.listSpendings(w, r)
	case http.MethodPut:
		s.updateSpending(w, r)
	case http.MethodDelete:
		s.deleteSpending(w, r)
	default:
		methodNotAllowed(w, "GET", "POST", "PUT", "DELETE")
	}
}

func (s *Server) createSpending(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		ChildID     int64  `json:"child_id"`
		Category    string `json:"category"`
		Amount      string `json:"amount"`
		SpendDate   string `json:"spend_date"`
		Description string `json:"description,omitempty"`
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
	date, err := parseBodyDate(req.SpendDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	spend, err := s.ledger.RecordSpending(r.Context(), actor, core.Spending{
		ChildID:     req.ChildID,
		Category:    req.Category,
		Amount:      amount,
		SpendDate:   date,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, spendingToPayload(spend))
}

func (s *Server) listSpendings(w http.ResponseWriter, r *http.Request) {
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

	filter := storage.SpendingFilter{Category: r.URL.Query().Get("category")}
	if filter.From, err = queryDate(r, "from", core.Date{}); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if filter.To, err = queryDate(r, "to", core.Date{}); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	spends, err := s.ledger.ListSpendings(r.Context(), actor, childID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := make([]spendingPayload, 0, len(spends))
	for _, sp := range spends {
		payload = append(payload, spendingToPayload(sp))
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) updateSpending(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		ID          int64   `json:"id"`
		ChildID     int64   `json:"child_id"`
		Category    *string `json:"category,omitempty"`
		Amount      *string `json:"amount,omitempty"`
		SpendDate   *string `json:"spend_date,omitempty"`
		Description *string `json:"description,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.ID == 0 || req.ChildID == 0 {
		writeBadRequest(w, "id and child_id are required")
		return
	}

	changes := storage.SpendingChanges{
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		changes.Amount = &amount
	}
	if req.SpendDate != nil {
		date, err := parseBodyDate(*req.SpendDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		changes.SpendDate = &date
	}

	updated, err := s.ledger.UpdateSpending(r.Context(), actor, req.ChildID, req.ID, changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, spendingToPayload(updated))
}

func (s *Server) deleteSpending(w http.ResponseWriter, r *http.Request) {
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
	spendID, err := queryID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	balance, err := s.ledger.DeleteSpending(r.Context(), actor, childID, spendID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

type placePayload struct {
	ID      int64  `json:"id"`
	ChildID int64  `json:"child_id"`
	Name    string `json:"name"`
	Stored  string `json:"stored"`
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req struct {
			ChildID int64  `json:"child_id"`
			Name    string `json:"name"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		place, err := s.ledger.CreatePlace(r.Context(), actor, core.Place{ChildID: req.ChildID, Name: req.Name})
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, placePayload{
			ID: place.ID, ChildID: place.ChildID, Name: place.Name, Stored: place.Stored.String(),
		})

	case http.MethodGet:
		childID, err := queryID(r, "child_id")
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		places, err := s.ledger.ListPlaces(r.Context(), actor, childID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		payload := make([]placePayload, 0, len(places))
		for _, p := range places {
			payload = append(payload, placePayload{
				ID: p.ID, ChildID: p.ChildID, Name: p.Name, Stored: p.Stored.String(),
			})
		}
		respondJSON(w, http.StatusOK, payload)

	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

func (s *Server) handleMoneyOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
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

	// Access is checked before serving from cache, otherwise a cached
	// entry would leak across actors.
	overview, cached := s.overviewCache.Get(overviewKey(childID))
	if cached {
		if _, err := s.ledger.GetChild(r.Context(), actor, childID); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		overview, err = s.ledger.MoneyOverview(r.Context(), actor, childID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.overviewCache.Set(overviewKey(childID), overview)
	}

	type logPayload struct {
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		Source      string `json:"source"`
		Destination string `json:"destination"`
	}
	payload := struct {
		ChildID      int64          `json:"child_id"`
		TotalBalance string         `json:"total_balance"`
		Places       []placePayload `json:"places"`
		RecentLogs   []logPayload   `json:"recent_logs"`
	}{
		ChildID:      overview.ChildID,
		TotalBalance: overview.TotalBalance.String(),
		Places:       make([]placePayload, 0, len(overview.Places)),
		RecentLogs:   make([]logPayload, 0, len(overview.RecentLogs)),
	}
	for _, p := range overview.Places {
		payload.Places = append(payload.Places, placePayload{
			ID: p.ID, ChildID: p.ChildID, Name: p.Name, Stored: p.Stored.String(),
		})
	}
	for _, e := range overview.RecentLogs {
		payload.RecentLogs = append(payload.RecentLogs, logPayload{
			Amount:      e.Amount.String(),
			Date:        e.Date.Format(dateLayout),
			Source:      e.Source,
			Destination: e.Destination,
		})
	}
	respondJSON(w, http.StatusOK, payload)
}

func overviewKey(childID int64) string {
	return "overview:" + strconv.FormatInt(childID, 10)
}

// parseBodyDate parses a YYYY-MM-DD string from a JSON body.
func parseBodyDate(v string) (core.Date, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(t), nil
}
