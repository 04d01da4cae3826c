// Package form implements the add/edit transaction form: field values,
// per-field validation and the editing → validating → rejected|submitted
// lifecycle. A Form is owned by one caller and is not safe for concurrent use.
package form

import (
	"context"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	MsgAmount       = "Amount must be a positive number"
	MsgDateRequired = "Date is required"
	MsgDateInvalid  = "Date must be a valid date"
	MsgDescription  = "Description is required"
	MsgCategory     = "Category is required"
	MsgType         = "Type must be income or expense"
)

const defaultFormType = core.Expense

// Field names, as used in form posts and error maps.
const (
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldType        = "type"
	FieldCategory    = "category"
)

type State int

const (
	Editing State = iota
	Validating
	Rejected
	Submitted
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Validating:
		return "validating"
	case Rejected:
		return "rejected"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

type Mode int

const (
	Create Mode = iota
	Edit
)

// Values are the raw field contents as typed by the user.
type Values struct {
	Amount      string
	Date        string
	Description string
	Type        core.TransactionType
	Category    string
}

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid transaction: " + strings.Join(parts, "; ")
}

// SubmitFunc receives the normalized input of a valid form.
type SubmitFunc func(ctx context.Context, in core.TransactionInput) error

type Form struct {
	mode   Mode
	id     string
	values Values
	errors map[string]string
	state  State
	today  func() time.Time
}

// New returns an empty create form dated today.
func New(today func() time.Time) *Form {
	if today == nil {
		today = time.Now
	}
	f := &Form{mode: Create, today: today, errors: map[string]string{}}
	f.reset()
	return f
}

// NewEdit returns a form pre-filled from t.
func NewEdit(t core.Transaction) *Form {
	return &Form{
		mode: Edit,
		id:   t.ID,
		values: Values{
			Amount:      t.Amount.Input(),
			Date:        t.Date.String(),
			Description: t.Description,
			Type:        t.Type,
			Category:    t.Category,
		},
		errors: map[string]string{},
		today:  time.Now,
	}
}

// FromValues rebuilds a form from posted values. id is empty in create mode.
func FromValues(mode Mode, id string, v Values, today func() time.Time) *Form {
	if today == nil {
		today = time.Now
	}
	if v.Type == "" {
		v.Type = defaultFormType
	}
	return &Form{mode: mode, id: id, values: v, errors: map[string]string{}, today: today}
}

func (f *Form) Mode() Mode { return f.mode }
func (f *Form) ID() string { return f.id }
func (f *Form) State() State { return f.state }
func (f *Form) Values() Values { return f.values }
func (f *Form) IsEdit() bool { return f.mode == Edit }
func (f *Form) HasErrors() bool { return len(f.errors) > 0 }
func (f *Form) Error(field string) string {
	return f.errors[field]
}

// Errors returns a copy of the current per-field messages.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Categories lists the choices for the current type.
func (f *Form) Categories() []core.Category {
	return core.Categories(f.values.Type)
}

func (f *Form) SetAmount(s string) {
	f.values.Amount = s
	f.state = Editing
}

func (f *Form) SetDate(s string) {
	f.values.Date = s
	f.state = Editing
}

func (f *Form) SetDescription(s string) {
	f.values.Description = s
	f.state = Editing
}

func (f *Form) SetCategory(s string) {
	f.values.Category = s
	f.state = Editing
}

// SetType switches the transaction type. The category is cleared when the
// type actually changes, since ids are per type.
func (f *Form) SetType(t core.TransactionType) {
	if f.values.Type != t {
		f.values.Category = ""
	}
	f.values.Type = t
	f.state = Editing
}

// Validate checks every field without changing the form.
func (f *Form) Validate() (core.TransactionInput, *ValidationError) {
	v := f.values
	errs := map[string]string{}
	var in core.TransactionInput

	amount, err := core.ParseAmount(v.Amount)
	if err != nil {
		errs[FieldAmount] = MsgAmount
	}
	in.Amount = amount

	if strings.TrimSpace(v.Date) == "" {
		errs[FieldDate] = MsgDateRequired
	} else if d, err := time.Parse(core.DateLayout, strings.TrimSpace(v.Date)); err != nil {
		errs[FieldDate] = MsgDateInvalid
	} else {
		in.Date = core.Date{Time: d}
	}

	in.Description = strings.TrimSpace(v.Description)
	if in.Description == "" {
		errs[FieldDescription] = MsgDescription
	}

	if !v.Type.IsValid() {
		errs[FieldType] = MsgType
	}
	in.Type = v.Type

	in.Category = strings.TrimSpace(v.Category)
	if in.Category == "" {
		errs[FieldCategory] = MsgCategory
	}

	if len(errs) > 0 {
		return core.TransactionInput{}, &ValidationError{Fields: errs}
	}
	return in, nil
}

// Submit validates the form and hands the normalized input to fn.
//
// On validation failure fn is not called, the form is Rejected and a
// *ValidationError is returned. If fn fails the form goes back to Editing
// with its values intact. On success a create form is reset to defaults;
// an edit form keeps its values.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) error {
	f.state = Validating
	in, verr := f.Validate()
	if verr != nil {
		f.errors = verr.Fields
		f.state = Rejected
		return verr
	}
	f.errors = map[string]string{}

	if err := fn(ctx, in); err != nil {
		f.state = Editing
		return err
	}

	if f.mode == Create {
		f.reset()
	}
	f.state = Submitted
	return nil
}

// Reset restores create-mode defaults and clears errors.
func (f *Form) Reset() {
	f.reset()
}

func (f *Form) reset() {
	f.values = Values{
		Date: core.DateOf(f.today()).String(),
		Type: defaultFormType,
	}
	f.errors = map[string]string{}
	f.state = Editing
}
