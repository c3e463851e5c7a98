package models

// Category is one of the fixed issue categories.
type Category struct {
	Value string
	Label string
}

// Categories lists the accepted issue categories in display order.
var Categories = []Category{
	{Value: "Health", Label: "Health"},
	{Value: "Education", Label: "Education"},
	{Value: "Sanitation", Label: "Sanitation"},
	{Value: "Women’s Safety", Label: "Women’s Safety"},
	{Value: "Technology", Label: "Rural Tech Access"},
	{Value: "Environment", Label: "Environment"},
}

// IsValidCategory reports whether value names one of Categories.
func IsValidCategory(value string) bool {
	for _, c := range Categories {
		if c.Value == value {
			return true
		}
	}
	return false
}

// CategoryLabel returns the display label for value, or value itself when unknown.
func CategoryLabel(value string) string {
	for _, c := range Categories {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}
