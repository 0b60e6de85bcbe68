package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nishantchy/OracleStoredProcedure/internal/config"
	"github.com/nishantchy/OracleStoredProcedure/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := New(&config.Config{
		APIBaseURL:  srv.URL,
		HTTPTimeout: 5 * time.Second,
	})
	return client, srv
}

func TestListStudentsBuildsQueryAndDecodes(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(types.Page[types.Student]{
			Results:  []types.Student{{ID: 1, FullName: "Ram Thapa", Email: "ram@example.com", Gender: "male"}},
			Total:    25,
			Page:     2,
			PageSize: 10,
		})
	}))

	page, err := client.ListStudents(context.Background(), ListParams{Search: "ram", Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if gotPath != "/students" {
		t.Fatalf("path = %q, want /students", gotPath)
	}
	if gotQuery != "page=2&page_size=10&search=ram" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(page.Results) != 1 || page.Results[0].FullName != "Ram Thapa" {
		t.Fatalf("results = %+v", page.Results)
	}
	if page.TotalPages() != 3 {
		t.Fatalf("TotalPages() = %d, want 3", page.TotalPages())
	}
}

func TestListParamsOmitsZeroValues(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(types.Page[types.Student]{})
	}))

	// The payment form's student picker asks for server defaults.
	if _, err := client.ListStudents(context.Background(), ListParams{}); err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if gotQuery != "" {
		t.Fatalf("query = %q, want empty for zero params", gotQuery)
	}
}

func TestCreateStudentSendsBodyAndToleratesEnvelope(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/students" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		// The real backend answers student creation with a status
		// envelope, not the record.
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "success",
			"message": "Student added via stored procedure.",
		})
	}))

	_, err := client.CreateStudent(context.Background(), types.StudentRequest{
		FullName: "Ram Thapa",
		Email:    "ram@example.com",
		Gender:   "male",
	})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if gotBody["full_name"] != "Ram Thapa" || gotBody["email"] != "ram@example.com" || gotBody["gender"] != "male" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestUpdatePaymentPathAndBody(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody types.PaymentUpdateRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(types.Payment{ID: 7, Amount: 150.50})
	}))

	payment, err := client.UpdatePayment(context.Background(), 7, types.PaymentUpdateRequest{Amount: 150.50})
	if err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/payments/7" {
		t.Fatalf("request = %s %s, want PUT /payments/7", gotMethod, gotPath)
	}
	if gotBody.Amount != 150.50 {
		t.Fatalf("body amount = %v", gotBody.Amount)
	}
	if payment.Amount != 150.50 {
		t.Fatalf("decoded amount = %v", payment.Amount)
	}
}

func TestErrorDetailExtractedFromBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Student has payments"})
	}))

	err := client.DeleteStudent(context.Background(), 3)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.Error", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Detail != "Student has payments" {
		t.Fatalf("detail = %q, want the body's detail verbatim", apiErr.Detail)
	}
}

func TestErrorFallsBackToOperationMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.CreateStudent(context.Background(), types.StudentRequest{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.Error", err)
	}
	if apiErr.Detail != "Failed to add student" {
		t.Fatalf("detail = %q, want generic fallback", apiErr.Detail)
	}
}

func TestTransportErrorUsesFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(&config.Config{APIBaseURL: srv.URL, HTTPTimeout: time.Second})
	srv.Close() // connection refused from here on

	err := client.DeletePayment(context.Background(), 1)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.Error", err)
	}
	if apiErr.StatusCode != 0 {
		t.Fatalf("status = %d, want 0 for transport failure", apiErr.StatusCode)
	}
	if apiErr.Detail != "Failed to delete payment" {
		t.Fatalf("detail = %q", apiErr.Detail)
	}
}

func TestDeleteStudentPath(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": "Student deleted."})
	}))

	if err := client.DeleteStudent(context.Background(), 42); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/students/42" {
		t.Fatalf("request = %s %s, want DELETE /students/42", gotMethod, gotPath)
	}
}
