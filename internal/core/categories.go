package core

// OtherCategoryID is present in both registries and absorbs unknown ids.
const OtherCategoryID = "other"

// Category is a fixed classification tag with display metadata.
type Category struct {
	ID    string
	Name  string
	Color string
	Icon  string
}

var expenseCategories = []Category{
	{ID: "food", Name: "Food & Dining", Color: "#EF4444", Icon: "🍽️"},
	{ID: "transportation", Name: "Transportation", Color: "#3B82F6", Icon: "🚗"},
	{ID: "shopping", Name: "Shopping", Color: "#8B5CF6", Icon: "🛍️"},
	{ID: "entertainment", Name: "Entertainment", Color: "#F59E0B", Icon: "🎬"},
	{ID: "bills", Name: "Bills & Utilities", Color: "#EF4444", Icon: "💡"},
	{ID: "healthcare", Name: "Healthcare", Color: "#10B981", Icon: "🏥"},
	{ID: "education", Name: "Education", Color: "#6366F1", Icon: "📚"},
	{ID: "travel", Name: "Travel", Color: "#EC4899", Icon: "✈️"},
	{ID: "fitness", Name: "Fitness & Sports", Color: "#14B8A6", Icon: "💪"},
	{ID: OtherCategoryID, Name: "Other", Color: "#6B7280", Icon: "📦"},
}

var incomeCategories = []Category{
	{ID: "salary", Name: "Salary", Color: "#10B981", Icon: "💼"},
	{ID: "freelance", Name: "Freelance", Color: "#3B82F6", Icon: "💻"},
	{ID: "business", Name: "Business", Color: "#8B5CF6", Icon: "🏢"},
	{ID: "investment", Name: "Investment", Color: "#F59E0B", Icon: "📈"},
	{ID: "rental", Name: "Rental Income", Color: "#EC4899", Icon: "🏠"},
	{ID: "gift", Name: "Gift/Bonus", Color: "#14B8A6", Icon: "🎁"},
	{ID: OtherCategoryID, Name: "Other", Color: "#6B7280", Icon: "💰"},
}

// Categories returns a copy of the registry for t, in display order.
func Categories(t TransactionType) []Category {
	var src []Category
	switch t {
	case Expense:
		src = expenseCategories
	case Income:
		src = incomeCategories
	default:
		return nil
	}
	return append([]Category(nil), src...)
}

// CategoryFor looks up id in the registry for t, falling back to "other".
func CategoryFor(t TransactionType, id string) Category {
	cats := Categories(t)
	if cats == nil {
		cats = Categories(Expense)
	}
	var other Category
	for _, c := range cats {
		if c.ID == id {
			return c
		}
		if c.ID == OtherCategoryID {
			other = c
		}
	}
	return other
}

// IsKnownCategory reports whether id is registered for t.
func IsKnownCategory(t TransactionType, id string) bool {
	for _, c := range Categories(t) {
		if c.ID == id {
			return true
		}
	}
	return false
}

// DefaultCategory is assigned to stored records that predate categories.
func DefaultCategory(t TransactionType) string {
	if t == Expense {
		return OtherCategoryID
	}
	return "salary"
}
