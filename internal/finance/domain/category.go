package domain

const (
	DefaultIncomeCategory  = "other-income"
	DefaultExpenseCategory = "other-expense"
)

var incomeCategories = map[string]struct{}{
	"salary":       {},
	"freelance":    {},
	"investments":  {},
	"business":     {},
	"rental":       {},
	"other-income": {},
}

var expenseCategories = map[string]struct{}{
	"housing":        {},
	"transportation": {},
	"groceries":      {},
	"utilities":      {},
	"entertainment":  {},
	"food":           {},
	"shopping":       {},
	"healthcare":     {},
	"education":      {},
	"personal":       {},
	"travel":         {},
	"insurance":      {},
	"gifts":          {},
	"bills":          {},
	"other-expense":  {},
}

// ExpenseCategoryNames lists the expense categories offered to the receipt interpreter.
func ExpenseCategoryNames() []string {
	return []string{
		"housing", "transportation", "groceries", "utilities", "entertainment", "food", "shopping",
		"healthcare", "education", "personal", "travel", "insurance", "gifts", "bills", "other-expense",
	}
}

func IncomeCategoryNames() []string {
	return []string{"salary", "freelance", "investments", "business", "rental", "other-income"}
}

// NormalizeCategory maps an empty or unknown category to the type's fallback.
func NormalizeCategory(transactionType TransactionType, category string) string {
	switch transactionType {
	case TransactionTypeIncome:
		if _, ok := incomeCategories[category]; ok {
			return category
		}
		return DefaultIncomeCategory
	default:
		if _, ok := expenseCategories[category]; ok {
			return category
		}
		return DefaultExpenseCategory
	}
}
