package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/application/services"
)

func (s *Server) mountReports(r chi.Router) {
	reports := s.app.Reports
	r.Route("/reports", func(r chi.Router) {
		r.Get("/valuation", reportHandler(s, reports.Valuation))
		r.Get("/abc", reportHandler(s, reports.ABC))
		r.Get("/slow-moving", reportHandler(s, reports.SlowMoving))
		r.Get("/turnover", reportHandler(s, reports.Turnover))
		r.Get("/low-stock", reportHandler(s, reports.LowStock))
		r.Get("/dashboard", s.dashboard)
	})
}

// reportHandler serves a report read from ?branch=&from=&to=&days=
func reportHandler[T any](s *Server, run func(context.Context, services.Principal, dto.ReportFilter) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := newQuery(r)
		filter := dto.ReportFilter{
			BranchID: q.str("branch"),
			From:     q.time("from"),
			To:       q.time("to"),
			Days:     q.int("days"),
		}
		if err := q.err(); err != nil {
			s.writeError(w, r, err)
			return
		}
		report, err := run(r.Context(), principal(r), filter)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.app.Reports.Dashboard(r.Context(), principal(r), newQuery(r).str("branch"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
