package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and form format of a transaction date.
const DateLayout = "2006-01-02"

// TimestampLayout keeps record timestamps fixed-width so they sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type (
	TransactionType string

	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Timestamp is a record metadata instant (createdAt/updatedAt).
	Timestamp struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		CreatedAt   Timestamp       `json:"createdAt"`
		UpdatedAt   Timestamp       `json:"updatedAt"`
	}

	// TransactionInput carries every user-editable field of a Transaction.
	TransactionInput struct {
		Amount      Money
		Date        Date
		Description string
		Type        TransactionType
		Category    string
	}

	// TransactionPatch lists the fields to overwrite on update. Nil means keep.
	TransactionPatch struct {
		Amount      *Money
		Date        *Date
		Description *string
		Type        *TransactionType
		Category    *string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyCategory    = errors.New("empty category")
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD. Full RFC 3339 timestamps are accepted and
// truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// InMonth reports whether d falls in the given calendar year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	y, m, _ := d.Date()
	return y == year && m == month
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewTimestamp truncates t to millisecond precision in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(TimestampLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.String() + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*ts = Timestamp{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*ts = NewTimestamp(t)
	return nil
}

func (in TransactionInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrEmptyDescription
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Patch returns a patch that overwrites every editable field with in.
func (in TransactionInput) Patch() TransactionPatch {
	return TransactionPatch{
		Amount:      &in.Amount,
		Date:        &in.Date,
		Description: &in.Description,
		Type:        &in.Type,
		Category:    &in.Category,
	}
}

// Apply merges the set fields of p over t. ID and CreatedAt never change.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	return t
}

// Input extracts the editable fields of t.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Amount:      t.Amount,
		Date:        t.Date,
		Description: t.Description,
		Type:        t.Type,
		Category:    t.Category,
	}
}

// CategoryInfo resolves t's category against the registry for its type.
func (t Transaction) CategoryInfo() Category {
	return CategoryFor(t.Type, t.Category)
}
