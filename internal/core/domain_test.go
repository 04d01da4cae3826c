package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{" 2024-02-29 ", "2024-02-29", true},
		{"2024-03-05T10:00:00.000Z", "2024-03-05", true},
		{"2023-02-29", "", false},
		{"2024-13-01", "", false},
		{"15/01/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Amount:      MoneyFromFloat(12.5),
		Date:        NewDate(2025, 1, 1),
		Description: "Lunch",
		Type:        Expense,
		Category:    "food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionInput)
		want   error
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = MoneyFromFloat(-1) }, ErrInvalidAmount},
		{"zero date", func(in *TransactionInput) { in.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(in *TransactionInput) { in.Description = "   " }, ErrEmptyDescription},
		{"bad type", func(in *TransactionInput) { in.Type = "transfer" }, ErrInvalidType},
		{"no category", func(in *TransactionInput) { in.Category = "" }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := good
			tc.mutate(&in)
			if err := in.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransactionPatchApply(t *testing.T) {
	orig := Transaction{
		ID:          "01HX",
		Amount:      MoneyFromFloat(10),
		Date:        NewDate(2024, 1, 1),
		Description: "Coffee",
		Type:        Expense,
		Category:    "food",
		CreatedAt:   NewTimestamp(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)),
	}
	amount := MoneyFromFloat(99)
	got := TransactionPatch{Amount: &amount}.Apply(orig)

	if !got.Amount.Equal(amount) {
		t.Fatalf("amount not applied: %s", got.Amount)
	}
	got.Amount = orig.Amount
	if got != orig {
		t.Fatalf("patch changed more than amount: %+v", got)
	}

	full := TransactionInput{
		Amount:      MoneyFromFloat(5),
		Date:        NewDate(2024, 2, 2),
		Description: "Salary",
		Type:        Income,
		Category:    "salary",
	}
	replaced := full.Patch().Apply(orig)
	if replaced.Input() != full {
		t.Fatalf("full patch mismatch: %+v", replaced.Input())
	}
	if replaced.ID != orig.ID || !replaced.CreatedAt.Equal(orig.CreatedAt.Time) {
		t.Fatalf("identity fields changed")
	}
}

func TestTransactionJSON(t *testing.T) {
	tx := Transaction{
		ID:          "1705312800000",
		Amount:      MoneyFromFloat(40.25),
		Date:        NewDate(2024, 1, 20),
		Description: "Groceries",
		Type:        Expense,
		Category:    "food",
		CreatedAt:   NewTimestamp(time.Date(2024, 1, 20, 9, 30, 0, 123e6, time.UTC)),
		UpdatedAt:   NewTimestamp(time.Date(2024, 1, 20, 9, 30, 0, 123e6, time.UTC)),
	}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"1705312800000","amount":40.25,"date":"2024-01-20","description":"Groceries","type":"expense","category":"food","createdAt":"2024-01-20T09:30:00.123Z","updatedAt":"2024-01-20T09:30:00.123Z"}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	var back Transaction
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Amount.Equal(tx.Amount) || !back.Date.Equal(tx.Date.Time) || !back.CreatedAt.Equal(tx.CreatedAt.Time) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestTimestampTruncatesToMillis(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600)))
	if got := ts.String(); got != "2024-05-01T11:00:00.123Z" {
		t.Fatalf("got %s", got)
	}
}
