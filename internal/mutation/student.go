package mutation

import (
	"context"
	"log/slog"

	"github.com/nishantchy/OracleStoredProcedure/internal/api"
	"github.com/nishantchy/OracleStoredProcedure/internal/query"
	"github.com/nishantchy/OracleStoredProcedure/internal/types"
)

// Inline messages of the student modals. The wording is part of the UI
// contract and asserted by tests; do not rephrase casually.
const (
	msgStudentRequired = "Full name, email, and gender are required."
	msgInvalidEmail    = "Invalid email address."
)

// StudentForm holds the text of the add/update student modal. All fields
// are strings because that is what the user types; conversion and
// checking happen at submit time.
type StudentForm struct {
	FullName    string `validate:"required"`
	Email       string `validate:"required,email"`
	Phone       string
	Gender      string `validate:"required"` // "male" or "female"
	DateOfBirth string // "YYYY-MM-DD" or empty
}

// NewStudentForm returns the create modal's initial state. Gender
// defaults to "male", matching the pre-selected option of the form.
func NewStudentForm() *StudentForm {
	return &StudentForm{Gender: "male"}
}

// FormFromStudent populates an update form from the selected record.
func FormFromStudent(s types.Student) *StudentForm {
	return &StudentForm{
		FullName:    s.FullName,
		Email:       s.Email,
		Phone:       s.Phone,
		Gender:      s.Gender,
		DateOfBirth: s.DateOfBirth,
	}
}

func (f *StudentForm) request() types.StudentRequest {
	return types.StudentRequest{
		FullName:    f.FullName,
		Email:       f.Email,
		Phone:       f.Phone,
		Gender:      f.Gender,
		DateOfBirth: f.DateOfBirth,
	}
}

// NewCreateStudent builds the "Add New Student" flow. The caller owns
// the form and mutates it as the user types; on success the form resets
// to its initial state and every cached students list is invalidated.
func NewCreateStudent(svc api.RecordService, cache *query.Cache, form *StudentForm) *Flow {
	return &Flow{
		validate: func() string {
			if err := validate.Struct(form); err != nil {
				return inlineMessage(err, msgStudentRequired, msgInvalidEmail)
			}
			return ""
		},
		submit: func(ctx context.Context) error {
			slog.Info("creating a student", slog.String("email", form.Email))
			_, err := svc.CreateStudent(ctx, form.request())
			return err
		},
		onSuccess: func() {
			*form = *NewStudentForm()
			cache.InvalidatePrefix(api.StudentsPath)
		},
	}
}

// NewUpdateStudent builds the update flow for one student. done, when
// non-nil, runs after a successful update so the hosting table can drop
// its selected-record reference.
func NewUpdateStudent(svc api.RecordService, cache *query.Cache, id int64, form *StudentForm, done func()) *Flow {
	return &Flow{
		validate: func() string {
			// Presence of all three required fields, but not the email
			// shape: the shape check applies to create only.
			if err := validate.StructExcept(form, "Email"); err != nil {
				return msgStudentRequired
			}
			if form.Email == "" {
				return msgStudentRequired
			}
			return ""
		},
		submit: func(ctx context.Context) error {
			slog.Info("updating a student", slog.Int64("id", id))
			_, err := svc.UpdateStudent(ctx, id, form.request())
			return err
		},
		onSuccess: func() {
			cache.InvalidatePrefix(api.StudentsPath)
			if done != nil {
				done()
			}
		},
	}
}

// NewDeleteStudent builds the delete-confirmation flow for one student.
// There is no form; Submit performs the delete directly.
func NewDeleteStudent(svc api.RecordService, cache *query.Cache, id int64, done func()) *Flow {
	return &Flow{
		submit: func(ctx context.Context) error {
			slog.Info("deleting a student", slog.Int64("id", id))
			return svc.DeleteStudent(ctx, id)
		},
		onSuccess: func() {
			cache.InvalidatePrefix(api.StudentsPath)
			if done != nil {
				done()
			}
		},
	}
}
