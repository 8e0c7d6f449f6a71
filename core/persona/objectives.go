package persona

var objectiveLabels = map[string]string{
	"rapport-building":     "Rapport Building",
	"needs-discovery":      "Needs Discovery",
	"objection-handling":   "Objection Handling",
	"price-objection":      "Price Objection Mastery",
	"one-call-close":       "One-Call Closing",
	"urgency-creation":     "Creating Urgency",
	"spouse-objection":     "Spouse / Third-Party Objection",
	"product-presentation": "Product Presentation",
	"re-engaging-leads":    "Re-engaging Cold Leads",
	"referral-generation":  "Referral Generation",
}

// ObjectiveLabel resolves a training objective tag to its display label,
// falling back to the raw tag for unknown values.
func ObjectiveLabel(value string) string {
	if label, ok := objectiveLabels[value]; ok {
		return label
	}
	return value
}
