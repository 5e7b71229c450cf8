package report

import "fintrack/internal/models"

// categoryColors assigns chart colors to expense categories. Shopping is
// not an accepted category but older records may still carry it.
var categoryColors = map[models.Category]string{
	models.CategoryHousing:     "#00bfa5",
	models.CategoryTravel:      "#42a5f5",
	models.CategoryFood:        "#00796b",
	"Shopping":                 "#9c27b0",
	models.CategoryGroceries:   "#303f9f",
	models.CategoryEMI:         "#1a237e",
	models.CategoryCreditCards: "#f50057",
	models.CategoryUtilities:   "#0288d1",
	models.CategoryHealth:      "#d500f9",
	models.CategoryInvestment:  "#512ea8",
}

// ColorFor returns the chart color for a category, or "" if it has none.
func ColorFor(c models.Category) string {
	return categoryColors[c]
}
