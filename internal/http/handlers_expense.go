package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"nomadledger/internal/core"
	"nomadledger/internal/log"
	"nomadledger/internal/services"
	"nomadledger/internal/store"
)

const (
	msgReceiptTimeout    = "O upload do comprovante demorou demais. Deseja salvar a despesa sem o comprovante?"
	msgReceiptPermission = "Sem permissão para enviar o comprovante. Verifique as regras de acesso do armazenamento."
	msgReceiptUpload     = "Falha no upload do comprovante. Tente novamente."
	msgReceiptTooLarge   = "Comprovante maior que o limite permitido."
	msgReceiptNotImage   = "O comprovante deve ser uma imagem."
	msgSaveFailed        = "Falha ao salvar dados. Verifique sua conexão."
)

type expensePage struct {
	Title       string
	Account     string
	Form        ExpenseForm
	Error       string
	ConfirmSkip bool
	Categories  []core.Category
	Currencies  []core.Currency
	MaxMB       int64
}

func (s *Server) expensePage(r *http.Request, form ExpenseForm) expensePage {
	return expensePage{
		Title:      "Nova despesa",
		Account:    mustSession(r).Email,
		Form:       form,
		Categories: core.Categories(),
		Currencies: core.Currencies(),
		MaxMB:      s.maxReceiptBytes >> 20,
	}
}

func (s *Server) handleExpenseForm(w http.ResponseWriter, r *http.Request) {
	form := ExpenseForm{
		Date:     core.Today(s.now()).String(),
		Currency: string(core.ReportingCurrency),
		Category: string(core.CategoryFood),
	}
	s.render(w, r, http.StatusOK, "expense_form.html", s.expensePage(r, form))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	// Leave room for the text fields around the receipt.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxReceiptBytes+1<<20)

	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			page := s.expensePage(r, ExpenseForm{})
			page.Error = msgReceiptTooLarge
			s.render(w, r, http.StatusRequestEntityTooLarge, "expense_form.html", page)
			return
		}
		s.logger.WarnContext(r.Context(), "Parse form error",
			log.FieldError, err.Error(),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		BadRequestError("Formato de requisição inválido.").Write(w)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	form := ParseExpenseForm(r.PostForm)
	page := s.expensePage(r, form)

	exp, msg := form.ToExpense(s.validate, sess.UserID)
	if msg != "" {
		page.Error = msg
		s.render(w, r, http.StatusUnprocessableEntity, "expense_form.html", page)
		return
	}

	req := services.SubmitRequest{Expense: exp, SkipReceipt: form.SkipReceipt}
	file, header, err := r.FormFile("receipt")
	switch {
	case err == nil:
		defer file.Close()
		req.Receipt = receiptFile(file, header)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no receipt
	default:
		s.logger.WarnContext(r.Context(), "Unreadable receipt part", log.FieldError, err.Error())
		page.Error = msgReceiptUpload
		s.render(w, r, http.StatusBadRequest, "expense_form.html", page)
		return
	}

	saved, err := s.expenses.Submit(r.Context(), req)
	if err != nil {
		status, message := submitFailure(err)
		page.Error = message
		page.ConfirmSkip = errors.Is(err, services.ErrReceiptTimeout)
		s.render(w, r, status, "expense_form.html", page)
		return
	}

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerExpenseCreated(saved.ID).
			TriggerOverviewRefresh().
			TriggerSuccessNotification("Despesa salva.").
			Redirect("/").
			Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func receiptFile(f multipart.File, h *multipart.FileHeader) *store.ReceiptFile {
	return &store.ReceiptFile{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Body:        f,
	}
}

// submitFailure maps a submission error to a status and user-facing message.
func submitFailure(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrReceiptTimeout):
		return http.StatusConflict, msgReceiptTimeout
	case errors.Is(err, services.ErrReceiptPermission):
		return http.StatusBadGateway, msgReceiptPermission
	case errors.Is(err, services.ErrReceiptTooLarge):
		return http.StatusRequestEntityTooLarge, msgReceiptTooLarge
	case errors.Is(err, services.ErrReceiptNotImage):
		return http.StatusUnprocessableEntity, msgReceiptNotImage
	case errors.Is(err, services.ErrReceiptUpload):
		return http.StatusBadGateway, msgReceiptUpload
	case errors.Is(err, services.ErrSaveFailed):
		return http.StatusServiceUnavailable, msgSaveFailed
	}
	return http.StatusUnprocessableEntity, messageFor(err)
}
