// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// the API client, query cache, mutation flows, and views can all import
// types without depending on each other.
package types

// Student represents one student record as the REST backend returns it.
//
// The json:"..." tags match the snake_case field names of the API
// (full_name, date_of_birth, ...). Without them Go would encode the
// exported field names (FullName) and nothing would round-trip.
//
// DateOfBirth stays a string: the API speaks plain "YYYY-MM-DD" values
// and this program only ever displays them, never does date arithmetic.
type Student struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Gender      string `json:"gender"` // "male" or "female"
	DateOfBirth string `json:"date_of_birth"`
}

// RecordID returns the server-assigned identifier.
// Both record types implement this so the table view can key
// per-row state by identity rather than by row position.
func (s Student) RecordID() int64 { return s.ID }

// Payment represents one payment record. StudentName is a denormalized
// copy supplied by the server purely for display; the authoritative
// reference is StudentID.
type Payment struct {
	ID           int64   `json:"id"`
	StudentID    int64   `json:"student_id"`
	StudentName  string  `json:"student_name"`
	Amount       float64 `json:"amount"`
	ChequeNumber string  `json:"cheque_number"`
	PaidDate     string  `json:"paid_date"`
}

// RecordID returns the server-assigned identifier.
func (p Payment) RecordID() int64 { return p.ID }

// Page is the envelope every list endpoint returns: one page of results
// plus the total matching count and the echoed pagination parameters.
//
// It is generic over the record type because the envelope is byte-for-byte
// identical for students and payments — only the element type differs.
type Page[R any] struct {
	Results  []R `json:"results"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// TotalPages derives the page count from the total and the page size:
// ceil(total / page_size). A zero total yields zero pages, which is how
// the view knows to disable the Next control entirely.
func (p Page[R]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// StudentRequest is the request body for creating or updating a student
// (POST /students, PUT /students/{id}).
type StudentRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// PaymentCreateRequest is the request body for POST /payments.
type PaymentCreateRequest struct {
	StudentID    int64   `json:"student_id"`
	Amount       float64 `json:"amount"`
	ChequeNumber string  `json:"cheque_number,omitempty"`
	PaidDate     string  `json:"paid_date,omitempty"`
}

// PaymentUpdateRequest is the request body for PUT /payments/{id}.
// The student reference is not updatable; only these three fields are sent.
type PaymentUpdateRequest struct {
	Amount       float64 `json:"amount"`
	ChequeNumber string  `json:"cheque_number,omitempty"`
	PaidDate     string  `json:"paid_date,omitempty"`
}
