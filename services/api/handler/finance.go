package handler

import "net/http"

// IncomeResponse summarizes service income by payment state.
type IncomeResponse struct {
	Paid    float64 `json:"ingresos_pagados"`
	Pending float64 `json:"ingresos_pendientes"`
	Total   float64 `json:"ingresos_totales"`
}

// Income handles GET /api/v1/finanzas/ingresos (admin only). Income counts
// from approval: cancelled and in-flight tasks contribute nothing.
func (h *Handler) Income(w http.ResponseWriter, r *http.Request) {
	paid, pending, err := h.tasks.Income(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, IncomeResponse{
		Paid:    paid,
		Pending: pending,
		Total:   paid + pending,
	})
}
