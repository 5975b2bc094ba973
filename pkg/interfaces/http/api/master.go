package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

func (s *Server) mountMaster(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.listItems)
		r.Post("/", s.createItem)
		r.Get("/{id}", s.getItem)
		r.Put("/{id}", s.updateItem)
		r.Delete("/{id}", s.deleteItem)
		r.Get("/{id}/convert", s.convertQuantity)
		r.Get("/{id}/audit", s.itemAudit)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", s.listSuppliers)
		r.Post("/", s.createSupplier)
		r.Get("/{id}", s.getSupplier)
		r.Put("/{id}", s.updateSupplier)
		r.Delete("/{id}", s.deleteSupplier)
		r.Get("/{id}/audit", s.supplierAudit)
	})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.ItemFilter{
		Category:    entities.Category(q.str("category")),
		ActiveOnly:  q.bool("active"),
		Search:      q.str("q"),
		ListOptions: q.page(),
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.app.Items.ListItems(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items))
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.app.Items.GetItem(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in dto.ItemInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.app.Items.CreateItem(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var in dto.ItemInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.app.Items.UpdateItem(r.Context(), principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// deleteItem deactivates the item unless ?hard=true asks for removal
func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	hard := q.bool("hard")
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Items.DeleteItem(r.Context(), principal(r), chi.URLParam(r, "id"), hard); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) convertQuantity(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	qty, err := decimal.NewFromString(q.str("qty"))
	if err != nil {
		s.writeError(w, r, apperror.Invalid("qty", "must be a number"))
		return
	}
	res, err := s.app.Items.ConvertQuantity(r.Context(), principal(r), chi.URLParam(r, "id"), qty, q.str("from"), q.str("to"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) itemAudit(w http.ResponseWriter, r *http.Request) {
	trail, err := s.app.Items.Audit(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(trail))
}

func (s *Server) listSuppliers(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	opts := q.page()
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	suppliers, err := s.app.Suppliers.ListSuppliers(r.Context(), principal(r), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(suppliers))
}

func (s *Server) getSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := s.app.Suppliers.GetSupplier(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

func (s *Server) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in dto.SupplierInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	supplier, err := s.app.Suppliers.CreateSupplier(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplier)
}

func (s *Server) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var in dto.SupplierInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	supplier, err := s.app.Suppliers.UpdateSupplier(r.Context(), principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

func (s *Server) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Suppliers.DeleteSupplier(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) supplierAudit(w http.ResponseWriter, r *http.Request) {
	trail, err := s.app.Suppliers.Audit(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(trail))
}
