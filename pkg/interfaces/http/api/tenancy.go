package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/brewerp/pkg/application/dto"
)

func (s *Server) mountTenancy(r chi.Router) {
	r.Get("/company", s.getCompany)
	r.Put("/company", s.updateCompany)

	r.Route("/countries", func(r chi.Router) {
		r.Get("/", s.listCountries)
		r.Post("/", s.createCountry)
		r.Get("/{id}", s.getCountry)
		r.Put("/{id}", s.updateCountry)
		r.Delete("/{id}", s.deleteCountry)
	})

	r.Route("/branches", func(r chi.Router) {
		r.Get("/", s.listBranches)
		r.Post("/", s.createBranch)
		r.Get("/{id}", s.getBranch)
		r.Put("/{id}", s.updateBranch)
		r.Delete("/{id}", s.deleteBranch)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.listUsers)
		r.Post("/", s.createUser)
		r.Get("/{id}", s.getUser)
		r.Put("/{id}", s.updateUser)
		r.Delete("/{id}", s.deleteUser)
	})
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	company, err := s.app.Tenancy.GetCompany(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) updateCompany(w http.ResponseWriter, r *http.Request) {
	var in dto.CompanyInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	company, err := s.app.Tenancy.UpdateCompany(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) listCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.app.Tenancy.ListCountries(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(countries))
}

func (s *Server) getCountry(w http.ResponseWriter, r *http.Request) {
	country, err := s.app.Tenancy.GetCountry(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, country)
}

func (s *Server) createCountry(w http.ResponseWriter, r *http.Request) {
	var in dto.CountryInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	country, err := s.app.Tenancy.CreateCountry(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, country)
}

func (s *Server) updateCountry(w http.ResponseWriter, r *http.Request) {
	var in dto.CountryInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	country, err := s.app.Tenancy.UpdateCountry(r.Context(), principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, country)
}

func (s *Server) deleteCountry(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Tenancy.DeleteCountry(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.app.Tenancy.ListBranches(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(branches))
}

func (s *Server) getBranch(w http.ResponseWriter, r *http.Request) {
	branch, err := s.app.Tenancy.GetBranch(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (s *Server) createBranch(w http.ResponseWriter, r *http.Request) {
	var in dto.BranchInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	branch, err := s.app.Tenancy.CreateBranch(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

func (s *Server) updateBranch(w http.ResponseWriter, r *http.Request) {
	var in dto.BranchInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	branch, err := s.app.Tenancy.UpdateBranch(r.Context(), principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (s *Server) deleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Tenancy.DeleteBranch(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	opts := q.page()
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	users, err := s.app.Users.ListUsers(r.Context(), principal(r), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(users))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.app.Users.GetUser(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in dto.UserInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.app.Users.CreateUser(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in dto.UserInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.app.Users.UpdateUser(r.Context(), principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Users.DeleteUser(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
