// Package api implements the record service client: one method per REST
// operation the students/payments backend exposes.
//
// Handlers of the UI (mutation flows, table views) depend on the
// RecordService INTERFACE, not on *Client. By depending only on the
// interface:
//
//   - Swapping the transport later only requires changing one line in main.
//   - Writing tests = pass a fake that satisfies the interface.
//     No real backend needed for unit tests.
//
// Every operation issues exactly one request — no retries. A failure is
// surfaced immediately to the caller as a *Error whose Detail is the
// human-readable message the UI shows inline.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nishantchy/OracleStoredProcedure/internal/config"
	"github.com/nishantchy/OracleStoredProcedure/internal/types"
)

// Base paths of the two record types, relative to the configured API root.
// These same constants feed query-key construction and cache invalidation,
// so the strings exist in exactly one place.
const (
	StudentsPath = "/students"
	PaymentsPath = "/payments"
)

// Error is the typed failure every operation returns for a non-2xx
// response or a transport error.
//
// Detail is extracted from the response body's {"detail": "..."} field
// when present; otherwise it is the operation's generic fallback message
// (e.g. "Failed to add student"). The UI displays Detail verbatim.
type Error struct {
	// StatusCode is the HTTP status of the response, or 0 when the
	// request never produced one (connection refused, timeout, ...).
	StatusCode int
	Detail     string
}

func (e *Error) Error() string { return e.Detail }

// ListParams are the query parameters of a list operation.
// Zero values are omitted from the query string, so the zero ListParams
// asks the server for its defaults (first page, default page size) —
// which is what the payment form's student picker wants.
type ListParams struct {
	Search   string
	Page     int // 1-based
	PageSize int
}

func (p ListParams) encode() string {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// RecordService is the contract the rest of the application consumes.
// *Client satisfies it; tests substitute fakes.
type RecordService interface {
	ListStudents(ctx context.Context, p ListParams) (types.Page[types.Student], error)
	CreateStudent(ctx context.Context, req types.StudentRequest) (types.Student, error)
	UpdateStudent(ctx context.Context, id int64, req types.StudentRequest) (types.Student, error)
	DeleteStudent(ctx context.Context, id int64) error

	ListPayments(ctx context.Context, p ListParams) (types.Page[types.Payment], error)
	CreatePayment(ctx context.Context, req types.PaymentCreateRequest) (types.Payment, error)
	UpdatePayment(ctx context.Context, id int64, req types.PaymentUpdateRequest) (types.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
}

// Client talks to the REST backend over HTTP. Safe for concurrent use;
// it holds no mutable state beyond the pooled http.Client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client bound to the configured base URL. The timeout
// bounds each individual call; there is no retry layer on top.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

var _ RecordService = (*Client)(nil)

// ListStudents fetches one page of students.
// GET /students?search=&page=&page_size=
func (c *Client) ListStudents(ctx context.Context, p ListParams) (types.Page[types.Student], error) {
	var page types.Page[types.Student]
	err := c.do(ctx, http.MethodGet, StudentsPath+p.encode(), nil, &page, "Failed to load students")
	return page, err
}

// CreateStudent adds a new student.
// POST /students
//
// The backend answers with a status envelope rather than the created
// record; decoding tolerates that (unknown keys are skipped), and callers
// treat the returned Student as best-effort.
func (c *Client) CreateStudent(ctx context.Context, req types.StudentRequest) (types.Student, error) {
	var student types.Student
	err := c.do(ctx, http.MethodPost, StudentsPath, req, &student, "Failed to add student")
	return student, err
}

// UpdateStudent replaces the fields of an existing student.
// PUT /students/{id}
func (c *Client) UpdateStudent(ctx context.Context, id int64, req types.StudentRequest) (types.Student, error) {
	var student types.Student
	err := c.do(ctx, http.MethodPut, recordPath(StudentsPath, id), req, &student, "Failed to update student")
	return student, err
}

// DeleteStudent removes a student.
// DELETE /students/{id}
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, recordPath(StudentsPath, id), nil, nil, "Failed to delete student")
}

// ListPayments fetches one page of payments.
// GET /payments?search=&page=&page_size=
func (c *Client) ListPayments(ctx context.Context, p ListParams) (types.Page[types.Payment], error) {
	var page types.Page[types.Payment]
	err := c.do(ctx, http.MethodGet, PaymentsPath+p.encode(), nil, &page, "Failed to load payments")
	return page, err
}

// CreatePayment records a new payment.
// POST /payments
func (c *Client) CreatePayment(ctx context.Context, req types.PaymentCreateRequest) (types.Payment, error) {
	var payment types.Payment
	err := c.do(ctx, http.MethodPost, PaymentsPath, req, &payment, "Failed to add payment")
	return payment, err
}

// UpdatePayment changes the amount, cheque number, or paid date of an
// existing payment.
// PUT /payments/{id}
func (c *Client) UpdatePayment(ctx context.Context, id int64, req types.PaymentUpdateRequest) (types.Payment, error) {
	var payment types.Payment
	err := c.do(ctx, http.MethodPut, recordPath(PaymentsPath, id), req, &payment, "Failed to update payment")
	return payment, err
}

// DeletePayment removes a payment.
// DELETE /payments/{id}
func (c *Client) DeletePayment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, recordPath(PaymentsPath, id), nil, nil, "Failed to delete payment")
}

func recordPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// do issues one request and decodes the response.
//
// Error mapping, in order:
//
//	transport error      → *Error{Detail: fallback}   (no body to read)
//	non-2xx with detail  → *Error{status, body detail}
//	non-2xx, no detail   → *Error{status, fallback}
//	2xx                  → out decoded (an empty body leaves out zeroed)
func (c *Client) do(ctx context.Context, method, path string, body, out any, fallback string) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("api request", slog.String("method", method), slog.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		// The underlying cause goes to the log; the caller gets the
		// same message the UI would show for any unreadable failure.
		slog.Error("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return &Error{Detail: fallback}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := fallback
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
			detail = payload.Detail
		}
		return &Error{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}
