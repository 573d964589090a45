// Package pricing serves the static plan catalog. Tier data is compiled in;
// billing itself happens elsewhere.
package pricing

import "fmt"

// Tier is one subscription plan shown on the pricing page.
type Tier struct {
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular"`
}

// tiers is the plan catalog, cheapest first. Prices are monthly, in NIS.
var tiers = []Tier{
	{
		Name:        "בסיסי",
		Price:       0,
		Description: "מתאים לעסקים בתחילת הדרך",
		Features: []string{
			"עד 50 לידים בחודש",
			"התראות וואטסאפ מיידיות",
			"חיבור למספר אחד",
		},
	},
	{
		Name:        "מתקדם",
		Price:       49,
		Description: "לעסקים בצמיחה שצריכים יותר",
		Features: []string{
			"עד 300 לידים בחודש",
			"התראות וואטסאפ מיידיות",
			"חיבור עד 2 מספרים",
			"הודעות מותאמות אישית",
		},
		Popular: true,
	},
	{
		Name:        "מקצוען",
		Price:       99,
		Description: "לסוכנויות ועסקים גדולים",
		Features: []string{
			"לידים ללא הגבלה",
			"התראות וואטסאפ מיידיות",
			"חיבור עד 5 מספרים",
			"הודעות מותאמות אישית",
		},
	},
}

// commonFeatures apply to every tier.
var commonFeatures = []string{
	"אבטחת SSL",
	"עדכונים שוטפים",
	"שרתים מהירים",
}

// Tiers returns the plan catalog.
func Tiers() []Tier {
	return tiers
}

// CommonFeatures returns the features shared by all tiers.
func CommonFeatures() []string {
	return commonFeatures
}

// FormatPrice renders a monthly price for display.
func FormatPrice(price int) string {
	return fmt.Sprintf("₪%d", price)
}
