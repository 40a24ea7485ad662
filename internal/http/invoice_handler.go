package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/events"
)

// @Summary     List invoices
// @Tags        invoices
// @Security    BearerAuth
// @Produce     json
// @Param       status  query     string  false  "Exact payment status"
// @Param       search  query     string  false  "Substring of serial number, device or customer name"
// @Success     200     {object}  map[string][]invoice.Invoice
// @Failure     401     {object}  apperr.AppError
// @Failure     500     {object}  apperr.AppError
// @Router      /api/invoices [get]
func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.invoiceSvc.List(r.Context(), userIDFromCtx(r), invoice.Filter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"invoices": list})
}

// @Summary     Create an invoice
// @Tags        invoices
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      invoice.CreateInput  true  "Invoice"
// @Success     201      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "missing field, bad date or amount, duplicate serial"
// @Failure     401      {object}  apperr.AppError
// @Failure     500      {object}  apperr.AppError
// @Router      /api/invoices [post]
func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoice.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	owner := userIDFromCtx(r)
	inv, err := h.invoiceSvc.Create(r.Context(), owner, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.emit(events.InvoiceCreated, inv.ID, owner, inv.SerialNumber)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Invoice created successfully",
		"invoice_id": inv.ID,
		"invoice":    inv,
	})
}

// @Summary     Get an invoice
// @Tags        invoices
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Invoice ID"
// @Success     200  {object}  map[string]invoice.Invoice
// @Failure     401  {object}  apperr.AppError
// @Failure     404  {object}  apperr.AppError  "missing or owned by another user"
// @Router      /api/invoices/{id} [get]
func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	inv, err := h.invoiceSvc.Get(r.Context(), userIDFromCtx(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

// @Summary     Update an invoice
// @Description Only fields present in the body are changed. updated_at is always set.
// @Tags        invoices
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64                true  "Invoice ID"
// @Param       request  body      invoice.UpdateInput  true  "Fields to change"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "bad date or amount"
// @Failure     401      {object}  apperr.AppError
// @Failure     404      {object}  apperr.AppError
// @Failure     500      {object}  apperr.AppError
// @Router      /api/invoices/{id} [put]
func (h *Handler) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req invoice.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	owner := userIDFromCtx(r)
	inv, err := h.invoiceSvc.Update(r.Context(), owner, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.emit(events.InvoiceUpdated, inv.ID, owner, inv.SerialNumber)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Invoice updated successfully",
		"invoice": inv,
	})
}

// @Summary     Delete an invoice
// @Tags        invoices
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Invoice ID"
// @Success     200  {object}  map[string]string
// @Failure     401  {object}  apperr.AppError
// @Failure     404  {object}  apperr.AppError
// @Failure     500  {object}  apperr.AppError
// @Router      /api/invoices/{id} [delete]
func (h *Handler) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	owner := userIDFromCtx(r)
	if err := h.invoiceSvc.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, r, err)
		return
	}

	h.emit(events.InvoiceDeleted, id, owner, "")

	writeJSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted successfully"})
}

// @Summary     Invoice statistics
// @Tags        invoices
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  map[string]stats.Stats
// @Failure     401  {object}  apperr.AppError
// @Failure     500  {object}  apperr.AppError
// @Router      /api/invoices/stats [get]
func (h *Handler) handleInvoiceStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.statsSvc.Compute(r.Context(), userIDFromCtx(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": st})
}

// emit never blocks the request; events are dropped when the worker lags.
func (h *Handler) emit(eventType string, invoiceID, owner int64, serial string) {
	if h.events == nil {
		return
	}
	ev := events.InvoiceEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		InvoiceID:    invoiceID,
		OwnerID:      owner,
		SerialNumber: serial,
		OccurredAt:   time.Now().UTC(),
	}
	select {
	case h.events <- ev:
	default:
	}
}
