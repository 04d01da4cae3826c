package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func fixedToday() time.Time {
	return time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
}

func filled() *Form {
	f := New(fixedToday)
	f.SetAmount("12.50")
	f.SetDescription("  Lunch  ")
	f.SetCategory("food")
	return f
}

func TestNewDefaults(t *testing.T) {
	f := New(fixedToday)
	v := f.Values()
	if v.Amount != "" || v.Description != "" || v.Category != "" {
		t.Fatalf("expected empty fields, got %+v", v)
	}
	if v.Date != "2024-03-15" {
		t.Fatalf("expected today's date, got %s", v.Date)
	}
	if v.Type != core.Expense {
		t.Fatalf("expected expense, got %s", v.Type)
	}
	if f.State() != Editing || f.Mode() != Create || f.IsEdit() {
		t.Fatalf("unexpected state %s / mode %v", f.State(), f.Mode())
	}
}

func TestNewEditPrefills(t *testing.T) {
	tr := core.Transaction{
		ID:          "01HX",
		Amount:      core.MoneyFromFloat(40.25),
		Date:        core.NewDate(2024, 1, 20),
		Description: "Groceries",
		Type:        core.Income,
		Category:    "gift",
	}
	f := NewEdit(tr)
	want := Values{Amount: "40.25", Date: "2024-01-20", Description: "Groceries", Type: core.Income, Category: "gift"}
	if f.Values() != want {
		t.Fatalf("got %+v, want %+v", f.Values(), want)
	}
	if !f.IsEdit() || f.ID() != "01HX" {
		t.Fatalf("expected edit mode for 01HX")
	}
}

func TestSubmitRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		set   func(*Form)
		field string
		msg   string
	}{
		{"empty amount", func(f *Form) { f.SetAmount("") }, FieldAmount, MsgAmount},
		{"zero amount", func(f *Form) { f.SetAmount("0") }, FieldAmount, MsgAmount},
		{"negative amount", func(f *Form) { f.SetAmount("-5") }, FieldAmount, MsgAmount},
		{"text amount", func(f *Form) { f.SetAmount("ten") }, FieldAmount, MsgAmount},
		{"empty date", func(f *Form) { f.SetDate("") }, FieldDate, MsgDateRequired},
		{"impossible date", func(f *Form) { f.SetDate("2024-02-30") }, FieldDate, MsgDateInvalid},
		{"wrong date format", func(f *Form) { f.SetDate("15/03/2024") }, FieldDate, MsgDateInvalid},
		{"blank description", func(f *Form) { f.SetDescription("   ") }, FieldDescription, MsgDescription},
		{"no category", func(f *Form) { f.SetCategory("") }, FieldCategory, MsgCategory},
		{"bad type", func(f *Form) { f.SetType("transfer") }, FieldType, MsgType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filled()
			tt.set(f)
			called := false
			err := f.Submit(context.Background(), func(context.Context, core.TransactionInput) error {
				called = true
				return nil
			})

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Fields[tt.field] != tt.msg {
				t.Fatalf("expected %q on %s, got %v", tt.msg, tt.field, verr.Fields)
			}
			if f.Error(tt.field) != tt.msg {
				t.Fatalf("form does not expose the error for %s", tt.field)
			}
			if called {
				t.Fatalf("callback must not run on invalid input")
			}
			if f.State() != Rejected {
				t.Fatalf("expected rejected, got %s", f.State())
			}
		})
	}
}

func TestSubmitReportsEveryInvalidField(t *testing.T) {
	f := New(fixedToday)
	f.SetDate("")
	err := f.Submit(context.Background(), func(context.Context, core.TransactionInput) error { return nil })

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{FieldAmount, FieldDate, FieldDescription, FieldCategory} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("missing error for %s in %v", field, verr.Fields)
		}
	}
	if got := verr.Error(); got != "invalid transaction: amount: Amount must be a positive number; category: Category is required; date: Date is required; description: Description is required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSubmitValidCreate(t *testing.T) {
	f := filled()
	f.SetAmount("") // trigger a rejection first
	_ = f.Submit(context.Background(), func(context.Context, core.TransactionInput) error { return nil })
	if !f.HasErrors() {
		t.Fatalf("expected errors after rejection")
	}

	f.SetAmount("12,50")
	calls := 0
	var got core.TransactionInput
	err := f.Submit(context.Background(), func(_ context.Context, in core.TransactionInput) error {
		calls++
		got = in
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback called %d times", calls)
	}
	if !got.Amount.Equal(core.MoneyFromFloat(12.5)) || got.Description != "Lunch" {
		t.Fatalf("input not normalized: %+v", got)
	}
	if got.Date.String() != "2024-03-15" || got.Type != core.Expense || got.Category != "food" {
		t.Fatalf("unexpected input %+v", got)
	}
	if f.HasErrors() {
		t.Fatalf("errors must be cleared, got %v", f.Errors())
	}
	if f.State() != Submitted {
		t.Fatalf("expected submitted, got %s", f.State())
	}
	if v := f.Values(); v.Amount != "" || v.Description != "" || v.Category != "" || v.Type != core.Expense {
		t.Fatalf("create form must reset, got %+v", v)
	}
}

func TestSubmitValidEditKeepsValues(t *testing.T) {
	f := NewEdit(core.Transaction{
		ID:          "x",
		Amount:      core.MoneyFromFloat(5),
		Date:        core.NewDate(2024, 1, 1),
		Description: "Bus",
		Type:        core.Expense,
		Category:    "transportation",
	})
	f.SetAmount("7")
	if err := f.Submit(context.Background(), func(context.Context, core.TransactionInput) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if f.Values().Amount != "7" || f.Values().Description != "Bus" {
		t.Fatalf("edit form must keep values, got %+v", f.Values())
	}
}

func TestSubmitCallbackFailureReturnsToEditing(t *testing.T) {
	f := filled()
	boom := errors.New("boom")
	err := f.Submit(context.Background(), func(context.Context, core.TransactionInput) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if f.State() != Editing {
		t.Fatalf("expected editing, got %s", f.State())
	}
	if f.Values().Amount != "12.50" {
		t.Fatalf("fields must stay intact, got %+v", f.Values())
	}
}

func TestSetTypeClearsCategoryOnChange(t *testing.T) {
	f := filled()
	f.SetType(core.Expense)
	if f.Values().Category != "food" {
		t.Fatalf("same type must keep category")
	}
	f.SetType(core.Income)
	if f.Values().Category != "" {
		t.Fatalf("type change must clear category")
	}
	if f.Categories()[0].ID != "salary" {
		t.Fatalf("expected income categories, got %+v", f.Categories()[0])
	}
}

func TestFromValuesDefaultsType(t *testing.T) {
	f := FromValues(Edit, "abc", Values{Amount: "1"}, nil)
	if f.Values().Type != core.Expense || f.ID() != "abc" || !f.IsEdit() {
		t.Fatalf("unexpected form %+v", f.Values())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Editing: "editing", Validating: "validating", Rejected: "rejected", Submitted: "submitted", State(9): "unknown"} {
		if s.String() != want {
			t.Fatalf("%d: got %s", s, s.String())
		}
	}
}
