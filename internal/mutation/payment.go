package mutation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nishantchy/OracleStoredProcedure/internal/api"
	"github.com/nishantchy/OracleStoredProcedure/internal/query"
	"github.com/nishantchy/OracleStoredProcedure/internal/types"
)

const (
	msgPaymentRequired = "Student and amount are required."
	msgAmountRequired  = "Amount is required."
)

// PaymentForm holds the text of the add/update payment modal. StudentID
// and Amount are typed as text and parsed at submit time.
type PaymentForm struct {
	StudentID    string
	Amount       string
	ChequeNumber string
	PaidDate     string // "YYYY-MM-DD" or empty

	// Options is the student list offered by the create modal's picker,
	// loaded when the modal opens.
	Options []types.Student
}

// parsedPayment is the numeric view of the form that validation runs
// against. Unparseable text parses to zero and `required` rejects zero,
// so non-numeric input fails exactly like an empty field.
type parsedPayment struct {
	StudentID int64   `validate:"required"`
	Amount    float64 `validate:"required"`
}

func (f *PaymentForm) parsed() parsedPayment {
	id, _ := strconv.ParseInt(strings.TrimSpace(f.StudentID), 10, 64)
	amount, _ := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64)
	return parsedPayment{StudentID: id, Amount: amount}
}

// FormFromPayment populates an update form from the selected record.
// Paid dates are truncated to the date part in case the server returned
// a full timestamp.
func FormFromPayment(p types.Payment) *PaymentForm {
	paidDate := p.PaidDate
	if len(paidDate) > 10 {
		paidDate = paidDate[:10]
	}
	return &PaymentForm{
		StudentID:    strconv.FormatInt(p.StudentID, 10),
		Amount:       strconv.FormatFloat(p.Amount, 'f', -1, 64),
		ChequeNumber: p.ChequeNumber,
		PaidDate:     paidDate,
	}
}

// NewCreatePayment builds the "Add New Payment" flow. Opening the modal
// loads the first page of students into the form's picker options; a
// picker that fails to load is logged but does not block the modal (the
// id can still be typed).
func NewCreatePayment(svc api.RecordService, cache *query.Cache, form *PaymentForm) *Flow {
	return &Flow{
		onOpen: func(ctx context.Context) {
			page, err := svc.ListStudents(ctx, api.ListParams{})
			if err != nil {
				slog.Error("loading student options", slog.String("error", err.Error()))
				return
			}
			form.Options = page.Results
		},
		validate: func() string {
			if err := validate.Struct(form.parsed()); err != nil {
				return inlineMessage(err, msgPaymentRequired, msgPaymentRequired)
			}
			return ""
		},
		submit: func(ctx context.Context) error {
			p := form.parsed()
			slog.Info("creating a payment", slog.Int64("student_id", p.StudentID))
			_, err := svc.CreatePayment(ctx, types.PaymentCreateRequest{
				StudentID:    p.StudentID,
				Amount:       p.Amount,
				ChequeNumber: form.ChequeNumber,
				PaidDate:     form.PaidDate,
			})
			return err
		},
		onSuccess: func() {
			*form = PaymentForm{}
			cache.InvalidatePrefix(api.PaymentsPath)
		},
	}
}

// NewUpdatePayment builds the update flow for one payment. Only the
// amount, cheque number, and paid date are sent; the student reference
// is fixed at creation.
func NewUpdatePayment(svc api.RecordService, cache *query.Cache, id int64, form *PaymentForm, done func()) *Flow {
	return &Flow{
		validate: func() string {
			if err := validate.Var(form.parsed().Amount, "required"); err != nil {
				return msgAmountRequired
			}
			return ""
		},
		submit: func(ctx context.Context) error {
			slog.Info("updating a payment", slog.Int64("id", id))
			_, err := svc.UpdatePayment(ctx, id, types.PaymentUpdateRequest{
				Amount:       form.parsed().Amount,
				ChequeNumber: form.ChequeNumber,
				PaidDate:     form.PaidDate,
			})
			return err
		},
		onSuccess: func() {
			cache.InvalidatePrefix(api.PaymentsPath)
			if done != nil {
				done()
			}
		},
	}
}

// NewDeletePayment builds the delete-confirmation flow for one payment.
func NewDeletePayment(svc api.RecordService, cache *query.Cache, id int64, done func()) *Flow {
	return &Flow{
		submit: func(ctx context.Context) error {
			slog.Info("deleting a payment", slog.Int64("id", id))
			return svc.DeletePayment(ctx, id)
		},
		onSuccess: func() {
			cache.InvalidatePrefix(api.PaymentsPath)
			if done != nil {
				done()
			}
		},
	}
}
