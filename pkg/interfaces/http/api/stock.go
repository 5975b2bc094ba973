package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

func (s *Server) mountStock(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Get("/movements", s.listMovements)
		r.Post("/movements", s.recordMovement)
		r.Get("/transfers", s.listTransfers)
		r.Post("/transfers", s.transfer)
		r.Get("/transfers/{id}", s.getTransfer)
		r.Get("/balances", s.listBalances)
		r.Get("/lots", s.listLots)
		r.Get("/items/{itemID}/card", s.stockCard)
	})

	r.Get("/alerts", s.listAlerts)
	r.Post("/alerts/scan", s.scanAlerts)
}

func (s *Server) recordMovement(w http.ResponseWriter, r *http.Request) {
	var in dto.MovementInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.Stock.RecordMovement(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// listMovements accepts a comma separated type list, e.g. ?type=issue,adjustment_out
func (s *Server) listMovements(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.MovementFilter{
		BranchID:    q.str("branch"),
		ItemID:      q.str("item"),
		From:        q.timePtr("from"),
		To:          q.timePtr("to"),
		ListOptions: q.page(),
	}
	if types := q.str("type"); types != "" {
		for _, t := range strings.Split(types, ",") {
			mt := entities.MovementType(strings.TrimSpace(t))
			if !mt.Valid() {
				q.v.Add("type", "unknown movement type %q", mt)
				continue
			}
			filter.Types = append(filter.Types, mt)
		}
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	movements, err := s.app.Stock.ListMovements(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(movements))
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var in dto.TransferInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.Stock.Transfer(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	opts := q.page()
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	transfers, err := s.app.Stock.ListTransfers(r.Context(), principal(r), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(transfers))
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	t, err := s.app.Stock.GetTransfer(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listBalances(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.BalanceFilter{
		BranchID: q.str("branch"),
		ItemID:   q.str("item"),
		NonZero:  q.bool("nonzero"),
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	balances, err := s.app.Stock.ListBalances(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(balances))
}

func (s *Server) listLots(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.LotFilter{
		BranchID: q.str("branch"),
		ItemID:   q.str("item"),
		OpenOnly: q.bool("open"),
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	lots, err := s.app.Stock.ListLots(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(lots))
}

func (s *Server) stockCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.app.Stock.StockCard(r.Context(), principal(r), chi.URLParam(r, "itemID"), newQuery(r).str("branch"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.AlertFilter{
		Status:      entities.AlertStatus(q.str("status")),
		BranchID:    q.str("branch"),
		ListOptions: q.page(),
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	alerts, err := s.app.Alerts.ListAlerts(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(alerts))
}

func (s *Server) scanAlerts(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Alerts.Scan(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
