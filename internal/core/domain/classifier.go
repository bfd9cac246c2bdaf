package domain

import "strings"

// Keyword sets checked by Classify. Category sets are evaluated in order and
// the first set with a hit wins.
var (
	bugKeywords     = []string{"error", "exception", "traceback", "stacktrace"}
	featureKeywords = []string{"feature", "enhancement", "add", "support"}
	billingKeywords = []string{"bill", "invoice", "payment", "charge"}
	urgencyKeywords = []string{"urgent", "asap", "critical", "down"}
)

// Classify assigns a category and priority from the ticket text. Matching is
// case-insensitive substring search over the title and description joined by
// a space. CategoryOther and PriorityLow are never produced here; they can only
// be set through an explicit update.
func Classify(title, description string) (Category, Priority) {
	text := strings.ToLower(title + " " + description)

	category := CategorySupport
	switch {
	case containsAny(text, bugKeywords):
		category = CategoryBug
	case containsAny(text, featureKeywords):
		category = CategoryFeatureRequest
	case containsAny(text, billingKeywords):
		category = CategoryBilling
	}

	priority := PriorityMedium
	if containsAny(text, urgencyKeywords) {
		priority = PriorityHigh
	}

	return category, priority
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
