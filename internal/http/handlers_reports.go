package http

import (
	"errors"
	"net/http"
	"strconv"

	"pennywise/internal/core"
)

var errMissingPeriod = errors.New("from and to are required")

type childBalancePayload struct {
	ChildID         int64  `json:"child_id"`
	Name            string `json:"name"`
	Balance         string `json:"balance"`
	TotalSpent      string `json:"total_spent"`
	TotalAllowances string `json:"total_allowances"`
}

func (s *Server) handleParentSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
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

	// The summary walks every linked child; cache it, re-checking access
	// on hits so a cached report never crosses actors.
	key := "summary:" + strconv.FormatInt(parentID, 10)
	report, cached := s.summaryCache.Get(key)
	if cached {
		if !actor.IsAdmin() && actor.ParentID != parentID {
			writeError(w, r, core.ErrNotAuthorized)
			return
		}
	} else {
		report, err = s.reports.ParentSummary(r.Context(), actor, parentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.summaryCache.Set(key, report)
	}

	payload := struct {
		Children        []childBalancePayload `json:"children"`
		ChildrenCount   int                   `json:"children_count"`
		TotalBalance    string                `json:"total_balance"`
		TotalAllowances string                `json:"total_allowances"`
		AverageBalance  string                `json:"average_balance"`
	}{
		Children:        make([]childBalancePayload, 0, len(report.Children)),
		ChildrenCount:   report.ChildrenCount,
		TotalBalance:    report.TotalBalance.String(),
		TotalAllowances: report.TotalAllowances.String(),
		AverageBalance:  report.AverageBalance.String(),
	}
	for _, c := range report.Children {
		payload.Children = append(payload.Children, childBalancePayload{
			ChildID:         c.ChildID,
			Name:            c.Name,
			Balance:         c.Balance.String(),
			TotalSpent:      c.TotalSpent.String(),
			TotalAllowances: c.TotalAllowances.String(),
		})
	}
	respondJSON(w, http.StatusOK, payload)
}

type categoryPayload struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func categoriesToPayload(in []core.CategoryAmount) []categoryPayload {
	out := make([]categoryPayload, 0, len(in))
	for _, c := range in {
		out = append(out, categoryPayload{Name: c.Name, Amount: c.Amount.String()})
	}
	return out
}

func (s *Server) handleChildReport(w http.ResponseWriter, r *http.Request) {
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
	from, to, err := reportPeriod(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	report, err := s.reports.FinancialReport(r.Context(), actor, childID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type goalLine struct {
		Title   string  `json:"title"`
		Target  string  `json:"target"`
		Percent float64 `json:"percent"`
		Status  string  `json:"status"`
	}
	payload := struct {
		ChildID          int64             `json:"child_id"`
		ChildName        string            `json:"child_name"`
		PeriodStart      string            `json:"period_start"`
		PeriodEnd        string            `json:"period_end"`
		CurrentBalance   string            `json:"current_balance"`
		TotalSpent       string            `json:"total_spent"`
		TotalReceived    string            `json:"total_received"`
		NetChange        string            `json:"net_change"`
		ByCategory       []categoryPayload `json:"by_category"`
		Goals            []goalLine        `json:"goals"`
		TransactionCount int               `json:"transaction_count"`
		AllowanceCount   int               `json:"allowance_count"`
	}{
		ChildID:          report.ChildID,
		ChildName:        report.ChildName,
		PeriodStart:      report.PeriodStart.Format(dateLayout),
		PeriodEnd:        report.PeriodEnd.Format(dateLayout),
		CurrentBalance:   report.CurrentBalance.String(),
		TotalSpent:       report.TotalSpent.String(),
		TotalReceived:    report.TotalReceived.String(),
		NetChange:        report.NetChange.String(),
		ByCategory:       categoriesToPayload(report.ByCategory),
		Goals:            make([]goalLine, 0, len(report.Goals)),
		TransactionCount: report.TransactionCount,
		AllowanceCount:   report.AllowanceCount,
	}
	for _, g := range report.Goals {
		payload.Goals = append(payload.Goals, goalLine{
			Title:   g.Title,
			Target:  g.Target.String(),
			Percent: g.Percent,
			Status:  string(g.Status),
		})
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
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
	from, to, err := reportPeriod(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	categories, err := s.reports.CategoryBreakdown(r.Context(), actor, childID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categoriesToPayload(categories))
}

func (s *Server) handleChallengeRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	actor, err := actorFromHeaders(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rates, err := s.reports.ChallengeCompletionRates(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type ratePayload struct {
		ChallengeID int64   `json:"challenge_id"`
		Title       string  `json:"title"`
		Started     int     `json:"started"`
		Completed   int     `json:"completed"`
		Rate        float64 `json:"rate"`
	}
	payload := make([]ratePayload, 0, len(rates))
	for _, c := range rates {
		payload = append(payload, ratePayload{
			ChallengeID: c.ChallengeID,
			Title:       c.Title,
			Started:     c.Started,
			Completed:   c.Completed,
			Rate:        c.Rate,
		})
	}
	respondJSON(w, http.StatusOK, payload)
}

// reportPeriod reads the required from and to query parameters.
func reportPeriod(r *http.Request) (core.Date, core.Date, error) {
	from, err := queryDate(r, "from", core.Date{})
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	to, err := queryDate(r, "to", core.Date{})
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	if from.IsZero() || to.IsZero() {
		return core.Date{}, core.Date{}, errMissingPeriod
	}
	return from, to, nil
}
