package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

func (s *Server) mountPurchasing(r chi.Router) {
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", s.listPurchaseOrders)
		r.Post("/", s.createPurchaseOrder)
		r.Get("/{id}", s.getPurchaseOrder)
		r.Put("/{id}", s.updatePurchaseOrder)
		r.Post("/{id}/approve", s.approvePurchaseOrder)
		r.Post("/{id}/cancel", s.cancelPurchaseOrder)
	})

	r.Route("/goods-receipts", func(r chi.Router) {
		r.Get("/", s.listGoodsReceipts)
		r.Post("/", s.receiveGoods)
		r.Get("/{id}", s.getGoodsReceipt)
	})
}

func (s *Server) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.PurchaseOrderFilter{
		Status:      entities.POStatus(q.str("status")),
		SupplierID:  q.str("supplier"),
		BranchID:    q.str("branch"),
		ListOptions: q.page(),
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	orders, err := s.app.Purchasing.ListPurchaseOrders(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(orders))
}

func (s *Server) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := s.app.Purchasing.GetPurchaseOrder(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (s *Server) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var in dto.PurchaseOrderInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	po, err := s.app.Purchasing.CreatePurchaseOrder(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, po)
}

func (s *Server) updatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var in dto.PurchaseOrderInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	po, err := s.app.Purchasing.UpdatePurchaseOrder(r.Context(), principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (s *Server) approvePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := s.app.Purchasing.ApprovePurchaseOrder(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (s *Server) cancelPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := s.app.Purchasing.CancelPurchaseOrder(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (s *Server) listGoodsReceipts(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repositories.GoodsReceiptFilter{
		PurchaseOrderID: q.str("purchase_order"),
		BranchID:        q.str("branch"),
		ListOptions:     q.page(),
	}
	if err := q.err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	receipts, err := s.app.Purchasing.ListGoodsReceipts(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(receipts))
}

func (s *Server) getGoodsReceipt(w http.ResponseWriter, r *http.Request) {
	gr, err := s.app.Purchasing.GetGoodsReceipt(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gr)
}

func (s *Server) receiveGoods(w http.ResponseWriter, r *http.Request) {
	var in dto.GoodsReceiptInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	gr, err := s.app.Purchasing.ReceiveGoods(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gr)
}
