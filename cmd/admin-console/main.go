// main is the entry point of the students/payments admin console.
//
// STARTUP SEQUENCE:
//  1. Load configuration (.env, optional YAML, environment defaults)
//  2. Initialise the logger
//  3. Build the API client, the query cache, and the two table views
//  4. Run the command loop until EOF or "quit"
//
// RUNNING THE CONSOLE:
//
//	go run ./cmd/admin-console
//
// or against a non-default backend:
//
//	API_BASE_URL=http://staging:8000/api go run ./cmd/admin-console
//
// The loop is deliberately single-threaded: every state transition
// happens on a discrete command or on the completion of the network
// call it triggered, never concurrently with another.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/nishantchy/OracleStoredProcedure/internal/api"
	"github.com/nishantchy/OracleStoredProcedure/internal/config"
	"github.com/nishantchy/OracleStoredProcedure/internal/mutation"
	"github.com/nishantchy/OracleStoredProcedure/internal/query"
	"github.com/nishantchy/OracleStoredProcedure/internal/types"
	"github.com/nishantchy/OracleStoredProcedure/internal/view"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting admin console",
		slog.String("env", cfg.Env),
		slog.String("api", cfg.APIBaseURL),
	)

	client := api.New(cfg)
	cache := query.NewCache()

	students := view.NewTable(api.StudentsPath, cfg.PageSize, cache,
		func(ctx context.Context, search string, page, pageSize int) (types.Page[types.Student], error) {
			return client.ListStudents(ctx, api.ListParams{Search: search, Page: page, PageSize: pageSize})
		})
	payments := view.NewTable(api.PaymentsPath, cfg.PageSize, cache,
		func(ctx context.Context, search string, page, pageSize int) (types.Page[types.Payment], error) {
			return client.ListPayments(ctx, api.ListParams{Search: search, Page: page, PageSize: pageSize})
		})

	c := &console{
		svc:      client,
		cache:    cache,
		students: students,
		payments: payments,
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
		active:   "students",
	}
	c.run(context.Background())

	log.Info("admin console stopped")
}

// setupLogger returns a *slog.Logger configured for the given environment:
// human-readable text at DEBUG level for dev, JSON for staging and prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}

// console drives the two table views from line-based commands.
type console struct {
	svc      api.RecordService
	cache    *query.Cache
	students *view.Table[types.Student]
	payments *view.Table[types.Payment]

	in     *bufio.Scanner
	out    io.Writer
	active string // "students" or "payments"
}

func (c *console) run(ctx context.Context) {
	c.render(ctx)
	for {
		fmt.Fprintf(c.out, "\n%s> ", c.active)
		line, ok := c.readLine()
		if !ok {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

		switch cmd {
		case "":
			continue
		case "quit", "exit", "q":
			return
		case "help":
			c.printHelp()
			continue
		case "students":
			c.active = "students"
		case "payments":
			c.active = "payments"
		case "search":
			c.search(arg)
		case "next":
			c.next()
		case "prev":
			c.prev()
		case "refresh":
			c.refresh()
		case "add":
			c.add(ctx)
		case "actions":
			c.actions(ctx, arg)
			continue
		default:
			fmt.Fprintf(c.out, "unknown command %q (try \"help\")\n", cmd)
			continue
		}
		c.render(ctx)
	}
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, `commands:
  students | payments     switch table
  search <text>           filter (empty text clears); resets to page 1
  next | prev             change page
  refresh                 re-fetch the current page
  add                     open the create form
  actions <id>            open a row's Update/Delete menu
  quit`)
}

func (c *console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

// prompt reads one field value, keeping the current value when the user
// just presses enter. "-" clears the field.
func (c *console) prompt(label, current string) string {
	if current != "" {
		fmt.Fprintf(c.out, "  %s [%s]: ", label, current)
	} else {
		fmt.Fprintf(c.out, "  %s: ", label)
	}
	line, ok := c.readLine()
	if !ok {
		return current
	}
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return current
	case "-":
		return ""
	}
	return line
}

func (c *console) search(text string) {
	switch c.active {
	case "students":
		c.students.SetSearch(text)
		c.students.SubmitSearch()
	default:
		c.payments.SetSearch(text)
		c.payments.SubmitSearch()
	}
}

func (c *console) next() {
	if c.active == "students" {
		c.students.Next()
	} else {
		c.payments.Next()
	}
}

func (c *console) prev() {
	if c.active == "students" {
		c.students.Prev()
	} else {
		c.payments.Prev()
	}
}

func (c *console) refresh() {
	if c.active == "students" {
		c.students.Refresh()
	} else {
		c.payments.Refresh()
	}
}

func (c *console) render(ctx context.Context) {
	if c.active == "students" {
		fmt.Fprintln(c.out, "Loading students...")
		renderStudents(c.out, c.students.Snapshot(ctx), c.students)
		return
	}
	fmt.Fprintln(c.out, "Loading payments...")
	renderPayments(c.out, c.payments.Snapshot(ctx), c.payments)
}

func (c *console) add(ctx context.Context) {
	if c.active == "students" {
		form := mutation.NewStudentForm()
		flow := mutation.NewCreateStudent(c.svc, c.cache, form)
		c.runStudentForm(ctx, flow, form, "Add New Student")
		return
	}
	form := &mutation.PaymentForm{}
	flow := mutation.NewCreatePayment(c.svc, c.cache, form)
	c.runPaymentForm(ctx, flow, form, "Add New Payment")
}

// actions opens the row menu for a record id on the active table and
// walks the Update/Delete choice.
func (c *console) actions(ctx context.Context, arg string) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		fmt.Fprintln(c.out, "usage: actions <id>")
		return
	}

	if c.active == "students" {
		c.students.ToggleMenu(id)
		if c.students.OpenMenuID() == 0 {
			return
		}
		choice := c.prompt("Update (u) / Delete (d) / close (enter)", "")
		student, ok := c.students.SelectForAction(id)
		if !ok {
			fmt.Fprintln(c.out, "no such row on this page")
			return
		}
		switch choice {
		case "u":
			form := mutation.FormFromStudent(student)
			flow := mutation.NewUpdateStudent(c.svc, c.cache, student.ID, form, c.students.ClearSelection)
			c.runStudentForm(ctx, flow, form, "Update Student")
		case "d":
			flow := mutation.NewDeleteStudent(c.svc, c.cache, student.ID, c.students.ClearSelection)
			c.confirmDelete(ctx, flow, fmt.Sprintf("Are you sure you want to delete %s?", student.FullName))
		default:
			c.students.ClearSelection()
		}
		c.render(ctx)
		return
	}

	c.payments.ToggleMenu(id)
	if c.payments.OpenMenuID() == 0 {
		return
	}
	choice := c.prompt("Update (u) / Delete (d) / close (enter)", "")
	payment, ok := c.payments.SelectForAction(id)
	if !ok {
		fmt.Fprintln(c.out, "no such row on this page")
		return
	}
	switch choice {
	case "u":
		form := mutation.FormFromPayment(payment)
		flow := mutation.NewUpdatePayment(c.svc, c.cache, payment.ID, form, c.payments.ClearSelection)
		c.runPaymentForm(ctx, flow, form, "Update Payment")
	case "d":
		flow := mutation.NewDeletePayment(c.svc, c.cache, payment.ID, c.payments.ClearSelection)
		c.confirmDelete(ctx, flow, fmt.Sprintf("Are you sure you want to delete payment %d?", payment.ID))
	default:
		c.payments.ClearSelection()
	}
	c.render(ctx)
}

// runStudentForm keeps the "modal" open until the flow submits
// successfully or the user cancels; a failed submit re-prompts with the
// inline error and the previously entered values.
func (c *console) runStudentForm(ctx context.Context, flow *mutation.Flow, form *mutation.StudentForm, title string) {
	flow.Open(ctx)
	for flow.State() != mutation.Closed {
		fmt.Fprintf(c.out, "%s (enter keeps the shown value, \"-\" clears)\n", title)
		form.FullName = c.prompt("Full Name", form.FullName)
		form.Email = c.prompt("Email", form.Email)
		form.Phone = c.prompt("Phone", form.Phone)
		form.Gender = c.prompt("Gender (male/female)", form.Gender)
		form.DateOfBirth = c.prompt("Date of Birth (YYYY-MM-DD)", form.DateOfBirth)

		if flow.Submit(ctx) {
			return
		}
		fmt.Fprintln(c.out, flow.Err())
		if c.prompt("retry (enter) / cancel (c)", "") == "c" {
			flow.Close()
		}
	}
}

func (c *console) runPaymentForm(ctx context.Context, flow *mutation.Flow, form *mutation.PaymentForm, title string) {
	flow.Open(ctx)
	if len(form.Options) > 0 {
		fmt.Fprintln(c.out, "Students:")
		for _, s := range form.Options {
			fmt.Fprintf(c.out, "  %s (%d)\n", s.FullName, s.ID)
		}
	}
	for flow.State() != mutation.Closed {
		fmt.Fprintf(c.out, "%s (enter keeps the shown value, \"-\" clears)\n", title)
		form.StudentID = c.prompt("Student id", form.StudentID)
		form.Amount = c.prompt("Amount", form.Amount)
		form.ChequeNumber = c.prompt("Cheque Number", form.ChequeNumber)
		form.PaidDate = c.prompt("Paid Date (YYYY-MM-DD)", form.PaidDate)

		if flow.Submit(ctx) {
			return
		}
		fmt.Fprintln(c.out, flow.Err())
		if c.prompt("retry (enter) / cancel (c)", "") == "c" {
			flow.Close()
		}
	}
}

func (c *console) confirmDelete(ctx context.Context, flow *mutation.Flow, question string) {
	flow.Open(ctx)
	for flow.State() != mutation.Closed {
		if c.prompt(question+" (y/N)", "") != "y" {
			flow.Close()
			return
		}
		if flow.Submit(ctx) {
			return
		}
		fmt.Fprintln(c.out, flow.Err())
	}
}

func renderStudents(w io.Writer, snap view.Snapshot[types.Student], t *view.Table[types.Student]) {
	if snap.Err != nil {
		fmt.Fprintln(w, snap.Err.Error())
		return
	}
	if len(snap.Rows) == 0 {
		fmt.Fprintln(w, "No students found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "S.N\tID\tFull Name\tEmail\tPhone\tGender\tDate of Birth")
	for i, s := range snap.Rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			snap.Start+i, s.ID, s.FullName, s.Email, orDash(s.Phone), s.Gender, orDash(s.DateOfBirth))
	}
	tw.Flush()
	renderFooter(w, snap.Page, snap.TotalPages, snap.Total, "students", t.CanPrev(), t.CanNext())
}

func renderPayments(w io.Writer, snap view.Snapshot[types.Payment], t *view.Table[types.Payment]) {
	if snap.Err != nil {
		fmt.Fprintln(w, snap.Err.Error())
		return
	}
	if len(snap.Rows) == 0 {
		fmt.Fprintln(w, "No payments found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "S.N\tID\tStudent Name\tAmount\tCheque Number\tPaid Date")
	for i, p := range snap.Rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%s\t%s\n",
			snap.Start+i, p.ID, p.StudentName, p.Amount, orDash(p.ChequeNumber), orDash(p.PaidDate))
	}
	tw.Flush()
	renderFooter(w, snap.Page, snap.TotalPages, snap.Total, "payments", t.CanPrev(), t.CanNext())
}

func renderFooter(w io.Writer, page, totalPages, total int, noun string, canPrev, canNext bool) {
	fmt.Fprintf(w, "Showing page %d of %d (%d %s)", page, totalPages, total, noun)
	controls := ""
	if canPrev {
		controls += "  [prev]"
	}
	if canNext {
		controls += "  [next]"
	}
	fmt.Fprintln(w, controls)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
