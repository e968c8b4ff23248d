package http

import (
	"errors"
	"net/http"

	"devbills/internal/auth"
	"devbills/internal/core"
	applog "devbills/internal/log"
)

func (s *Server) loadTransactions(r *http.Request) (transactionsView, error) {
	q := r.URL.Query()
	p := ParsePeriod(q, s.now())
	view := transactionsView{
		periodNav: s.periodNav(p),
		Search:    stripControl(q.Get("search")),
	}

	txs, err := s.tx.Transactions(r.Context(), core.TransactionFilter{Month: p.Month, Year: p.Year}, view.Search)
	if err != nil {
		view.Error = msgLoadFailed
		return view, err
	}
	view.Transactions = txs
	return view, nil
}

func (s *Server) logLoadFailure(r *http.Request, view transactionsView, err error) {
	s.appMetrics.backendErrors.Add(1)
	s.structured.LogError(r.Context(), "Transactions load failed", err,
		applog.ComponentTx, applog.OpList,
		applog.NewFields().WithPeriod(view.Period.Year, view.Period.Month))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadTransactions(r)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.logLoadFailure(r, view, err)
	}
	s.render(w, r, http.StatusOK, "transactions.html", s.newPage(w, r, "Transações", "transactions", view))
}

// handleTransactionsTable serves the table fragment for the period
// selector and the search box.
func (s *Server) handleTransactionsTable(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadTransactions(r)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.logLoadFailure(r, view, err)
	}
	s.render(w, r, http.StatusOK, "transactions_table", view)
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	view := transactionFormView{
		Form: core.TransactionForm{
			Date: s.now().Format("2006-01-02"),
			Type: string(core.Expense),
		},
		Type: core.Expense,
	}

	cats, err := s.tx.Categories(r.Context(), core.Expense)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.appMetrics.backendErrors.Add(1)
		s.structured.LogError(r.Context(), "Categories load failed", err,
			applog.ComponentTx, applog.OpList, nil)
	}
	view.Categories = cats

	s.render(w, r, http.StatusOK, "transaction_form.html", s.newPage(w, r, "Nova Transação", "transactions", view))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	form, err := ParseTransactionForm(r)
	if err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	tx, err := s.tx.CreateFromForm(ctx, form)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}

		var ve *core.ValidationError
		message := msgCreateFailed
		if errors.As(err, &ve) {
			message = ve.Message
		} else {
			s.appMetrics.backendErrors.Add(1)
			s.structured.LogError(ctx, "Transaction create failed", err,
				applog.ComponentTx, applog.OpCreate, nil)
		}
		s.renderForm(w, r, form, message)
		return
	}

	uid := ""
	if u, ok := auth.UserFrom(ctx); ok {
		uid = u.UID
	}
	s.structured.LogTransactionCreated(ctx, uid, tx.ID, string(tx.Type), tx.Amount.StringFixed(2), tx.CategoryID)
	s.appMetrics.transactionsCreated.Add(1)

	s.setFlash(w, flashTransactionCreated)
	redirect(w, r, "/transacoes")
}

// renderForm shows the form again with the submitted values and message.
func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, form core.TransactionForm, message string) {
	t, ok := core.ParseTransactionType(form.Type)
	if !ok {
		t = core.Expense
	}
	view := transactionFormView{Form: form, Type: t, Error: message}
	if cats, err := s.tx.Categories(r.Context(), t); err == nil {
		view.Categories = cats
	}

	if isHTMX(r) {
		if message == msgCreateFailed {
			NewHTMXResponse().TriggerErrorNotification(msgCreateFailed).ApplyHeaders(w)
		}
		s.render(w, r, http.StatusOK, "transaction_form", view)
		return
	}
	s.render(w, r, http.StatusUnprocessableEntity, "transaction_form.html", s.newPage(w, r, "Nova Transação", "transactions", view))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	if err := s.tx.DeleteTransaction(ctx, id); err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.appMetrics.backendErrors.Add(1)
		s.structured.LogError(ctx, "Transaction delete failed", err,
			applog.ComponentTx, applog.OpDelete, applog.LogFields{applog.FieldTransactionID: id})
		NewHTMXResponse().NoSwap().TriggerErrorNotification(msgDeleteFailed).Write(w)
		return
	}

	uid := ""
	if u, ok := auth.UserFrom(ctx); ok {
		uid = u.UID
	}
	s.structured.LogTransactionDeleted(ctx, uid, id)
	s.appMetrics.transactionsDeleted.Add(1)

	NewHTMXResponse().
		TriggerSuccessNotification(msgTransactionDeleted).
		TriggerTransactionsChanged().
		Write(w)
}

// handleCategoryOptions serves the category select for the chosen type.
func (s *Server) handleCategoryOptions(w http.ResponseWriter, r *http.Request) {
	t, ok := core.ParseTransactionType(r.URL.Query().Get("type"))
	if !ok {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	cats, err := s.tx.Categories(r.Context(), t)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.appMetrics.backendErrors.Add(1)
		s.structured.LogError(r.Context(), "Categories load failed", err,
			applog.ComponentTx, applog.OpList, nil)
	}
	s.render(w, r, http.StatusOK, "category_select", categorySelectView{Categories: cats})
}
