package report

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// SeriesLine is one category's monthly expenses aligned to Summary.Months.
type SeriesLine struct {
	Category models.Category   `json:"category"`
	Color    string            `json:"color,omitempty"`
	Values   []decimal.Decimal `json:"values"`
}

// Summary bundles every aggregate the dashboard charts need.
type Summary struct {
	Income         decimal.Decimal            `json:"income"`
	Expense        decimal.Decimal            `json:"expense"`
	Balance        decimal.Decimal            `json:"balance"`
	ByCategory     []CategoryTotal            `json:"byCategory"`
	Months         []string                   `json:"months"`
	IncomeByMonth  map[string]decimal.Decimal `json:"incomeByMonth"`
	ExpenseByMonth map[string]decimal.Decimal `json:"expenseByMonth"`
	Series         []SeriesLine               `json:"series"`
	Location       string                     `json:"timezone"`
}

// Build computes a Summary for txs.
func Build(txs []models.Transaction, opts Options) Summary {
	income := TotalByType(txs, models.TransactionTypeIncome)
	expense := TotalByType(txs, models.TransactionTypeExpense)
	byCategory := GroupByCategory(txs)
	incomeByMonth := GroupByMonth(txs, models.TransactionTypeIncome, opts)
	expenseByMonth := GroupByMonth(txs, models.TransactionTypeExpense, opts)
	months := MonthKeys(incomeByMonth, expenseByMonth)
	if opts.MonthOrder == MonthOrderLexical {
		months = SortMonthLabelsLexically(months)
	}
	perCategory := GroupByCategoryAndMonth(txs, opts)

	// Series follow the category order of ByCategory.
	series := make([]SeriesLine, 0, len(perCategory))
	for _, ct := range byCategory {
		data, ok := perCategory[ct.Category]
		if !ok {
			// Every expense in this category is undated.
			continue
		}
		values := make([]decimal.Decimal, len(months))
		for i, month := range months {
			values[i] = data.Data[month]
		}
		series = append(series, SeriesLine{
			Category: ct.Category,
			Color:    data.Color,
			Values:   values,
		})
	}

	return Summary{
		Income:         income,
		Expense:        expense,
		Balance:        income.Sub(expense),
		ByCategory:     byCategory,
		Months:         months,
		IncomeByMonth:  incomeByMonth,
		ExpenseByMonth: expenseByMonth,
		Series:         series,
		Location:       opts.location().String(),
	}
}
