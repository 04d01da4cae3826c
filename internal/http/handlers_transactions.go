package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"fintrack/internal/core"
	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const (
	msgNotFound     = "Transaction not found"
	msgSaveFailed   = "Failed to save transaction"
	msgDeleteFailed = "Failed to delete transaction"
	msgBadRequest   = "Invalid request format"
	msgCreated      = "Transaction added successfully"
	msgUpdated      = "Transaction updated successfully"
	msgDeleted      = "Transaction deleted successfully"
)

// handleForm renders the create form, or the edit form when ?id= names an
// existing transaction.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	id := QueryID(r)
	if id == "" {
		s.render(w, r, "transaction_form", buildFormView(form.New(s.now)))
		return
	}
	tx, ok := s.svc.Get(id)
	if !ok {
		NotFoundError(msgNotFound).TriggerErrorNotification(msgNotFound).Write(w)
		return
	}
	s.render(w, r, "transaction_form", buildFormView(form.NewEdit(tx)))
}

// handleFormType re-renders the posted form after a type change. The
// category is cleared when the type actually changed.
func (s *Server) handleFormType(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	mode, id := form.Create, ""
	if p.Get("mode") == "edit" {
		mode, id = form.Edit, p.Get("id")
	}

	values := TransactionValues(p)
	values.Type = core.TransactionType(p.Get("current_type"))
	if !values.Type.IsValid() {
		values.Type = core.Expense
	}
	f := form.FromValues(mode, id, values, s.now)

	next := core.TransactionType(p.Get(form.FieldType))
	if !next.IsValid() {
		next = core.Expense
	}
	f.SetType(next)

	s.render(w, r, "transaction_form", buildFormView(f))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.events.LogError(r.Context(), "Parse form error", err, log.OpParse, nil)
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	f := form.FromValues(form.Create, "", TransactionValues(p), s.now)
	var created core.Transaction
	err := f.Submit(r.Context(), func(ctx context.Context, in core.TransactionInput) error {
		tx, err := s.svc.Add(ctx, in)
		created = tx
		return err
	})
	if s.submitFailed(w, r, f, err, log.OpCreate) {
		return
	}

	atomic.AddInt64(&s.appMetrics.created, 1)
	resp := NewHTMXResponse().
		TriggerTransactionsChanged("created", created.ID).
		TriggerSuccessNotification(msgCreated).
		TriggerFormReset()
	s.writeForm(w, r, resp, f)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	id := QueryID(r)
	if id == "" {
		NotFoundError(msgNotFound).TriggerErrorNotification(msgNotFound).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.events.LogError(r.Context(), "Parse form error", err, log.OpParse, nil)
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	f := form.FromValues(form.Edit, id, TransactionValues(p), s.now)
	err := f.Submit(r.Context(), func(ctx context.Context, in core.TransactionInput) error {
		_, err := s.svc.Edit(ctx, id, in)
		return err
	})
	if s.submitFailed(w, r, f, err, log.OpUpdate) {
		return
	}

	atomic.AddInt64(&s.appMetrics.updated, 1)
	resp := NewHTMXResponse().
		TriggerTransactionsChanged("updated", id).
		TriggerSuccessNotification(msgUpdated).
		TriggerFormReset()
	s.writeForm(w, r, resp, form.New(s.now))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	id := QueryID(r)
	if id == "" {
		NotFoundError(msgNotFound).TriggerErrorNotification(msgNotFound).Write(w)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			NotFoundError(msgNotFound).TriggerErrorNotification(msgNotFound).Write(w)
			return
		}
		s.events.LogError(r.Context(), "Failed to delete transaction", err, log.OpDelete,
			log.NewFields().WithTransaction(id, "", "", ""))
		InternalServerError(msgDeleteFailed).TriggerErrorNotification(msgDeleteFailed).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.deleted, 1)
	NewHTMXResponse().
		TriggerTransactionsChanged("deleted", id).
		TriggerSuccessNotification(msgDeleted).
		Write(w)
}

// submitFailed writes the response for a failed submission and reports
// whether it did. Validation errors re-render the form with 422.
func (s *Server) submitFailed(w http.ResponseWriter, r *http.Request, f *form.Form, err error, op string) bool {
	if err == nil {
		return false
	}

	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		log.FromContext(r.Context()).DebugContext(r.Context(), "Transaction form rejected",
			log.FieldOperation, op,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, verr.Error())
		s.writeForm(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), f)
	case errors.Is(err, services.ErrTransactionNotFound):
		NotFoundError(msgNotFound).TriggerErrorNotification(msgNotFound).Write(w)
	default:
		s.events.LogError(r.Context(), "Failed to save transaction", err, op,
			log.NewFields().WithErrorType(log.ErrorTypeStorage))
		InternalServerError(msgSaveFailed).TriggerErrorNotification(msgSaveFailed).Write(w)
	}
	return true
}

func (s *Server) writeForm(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, f *form.Form) {
	s.renderWith(w, r, resp, "transaction_form", buildFormView(f))
}
