package http

import (
	"errors"
	"html/template"
	"net/http"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

// handleCreateTransaction validates the add form and appends a transaction.
// HTMX callers get triggers that refresh the cards and the history; JSON
// callers get the stored transaction back.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgs := s.store.Formatter().Messages()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Invalid request body",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpValidate)
		BadRequestError("Invalid request body").Write(w)
		return
	}
	asJSON := parser.IsJSON() || wantsJSON(r)

	tx, err := s.store.Add(ctx, ParseTransactionInput(parser))
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		applog.FromContext(ctx).InfoContext(ctx, "Transaction rejected",
			applog.FieldError, verr.Error(),
			applog.FieldOperation, applog.OpValidate)
		if asJSON {
			fields := make(map[string]string, len(verr.Problems))
			for _, p := range verr.Problems {
				fields[p.Field] = p.Err.Error()
			}
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": msgs.Invalid, "fields": fields})
			return
		}
		UnprocessableEntityError(msgs.Invalid).Write(w)
		return
	case err != nil:
		s.logError(ctx, "Failed to save transaction", err, applog.ComponentTransaction, applog.OpAppend)
		if asJSON {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save transaction"})
			return
		}
		InternalServerError("Failed to save transaction").Write(w)
		return
	}

	if asJSON {
		writeJSON(w, http.StatusCreated, newTransactionJSON(tx))
		return
	}

	NewHTMXResponse().
		TriggerTransactionAdded(tx.ID, tx.Type.String(), s.store.Revision()).
		TriggerFormReset().
		TriggerSuccessNotification(msgs.Added).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msgs.Added) + `</div>`).
		Write(w)
}

// handleSummaryPartial renders the income/expense/balance cards.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.logError(r.Context(), "Failed to compute summary", err, applog.ComponentTransaction, applog.OpList)
		InternalServerError("Failed to load summary").Write(w)
		return
	}
	s.render(w, r, "summary", newSummaryView(s.store.Formatter(), summary))
}

// handleTransactionsPartial renders the history list.
func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.All(r.Context())
	if err != nil {
		s.logError(r.Context(), "Failed to list transactions", err, applog.ComponentTransaction, applog.OpList)
		InternalServerError("Failed to load transactions").Write(w)
		return
	}
	s.render(w, r, "transactions", newHistoryView(s.store.Formatter(), txs))
}

// handleCategoryOptions returns the <option> list for the selected type.
func (s *Server) handleCategoryOptions(w http.ResponseWriter, r *http.Request) {
	t := ParseTypeParam(r.URL.Query())
	s.render(w, r, "category_options", core.CategoriesFor(t))
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.All(r.Context())
	if err != nil {
		s.logError(r.Context(), "Failed to list transactions", err, applog.ComponentTransaction, applog.OpList)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list transactions"})
		return
	}
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.logError(r.Context(), "Failed to compute summary", err, applog.ComponentTransaction, applog.OpList)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute summary"})
		return
	}
	writeJSON(w, http.StatusOK, newSummaryJSON(s.store.Formatter().CurrencyCode(), summary))
}
