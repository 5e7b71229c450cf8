package models

// Category is one of the fixed transaction categories.
type Category string

const (
	CategorySalary      Category = "Salary"
	CategoryEMI         Category = "EMI"
	CategoryInvestment  Category = "Investment"
	CategoryCreditCards Category = "Credit Cards"
	CategoryUtilities   Category = "Utilities"
	CategoryHousing     Category = "Housing"
	CategoryTravel      Category = "Travel"
	CategoryGroceries   Category = "Groceries"
	CategoryFood        Category = "Food"
	CategoryHealth      Category = "Health"
	CategoryOtherIncome Category = "Other Income"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{
	CategorySalary,
	CategoryEMI,
	CategoryInvestment,
	CategoryCreditCards,
	CategoryUtilities,
	CategoryHousing,
	CategoryTravel,
	CategoryGroceries,
	CategoryFood,
	CategoryHealth,
	CategoryOtherIncome,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
