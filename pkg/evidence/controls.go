package evidence

import "argus-hq/argus/pkg/audit"

// controlCategories maps compliance control IDs to the audit action
// categories that evidence them. Covers the SOC 2 common criteria and the
// ISO 27001 Annex A controls this system can speak to; entries tagged with
// a control ID are always included regardless of category.
var controlCategories = map[string][]audit.Category{
	// SOC 2 common criteria.
	"CC6.1": {audit.CategoryAuth, audit.CategorySecurity},
	"CC6.2": {audit.CategoryAuth},
	"CC6.3": {audit.CategoryAuth, audit.CategoryConfig},
	"CC6.6": {audit.CategorySecurity},
	"CC6.7": {audit.CategoryData, audit.CategorySecurity},
	"CC6.8": {audit.CategorySecurity, audit.CategoryConfig},
	"CC7.1": {audit.CategorySecurity, audit.CategoryConfig},
	"CC7.2": {audit.CategorySecurity, audit.CategoryAgent},
	"CC7.3": {audit.CategorySecurity},
	"CC8.1": {audit.CategoryConfig, audit.CategoryPolicy, audit.CategoryApproval},
	"CC9.2": {audit.CategoryPolicy, audit.CategoryApproval},

	// ISO 27001:2022 Annex A.
	"A.5.15": {audit.CategoryAuth},
	"A.5.18": {audit.CategoryAuth},
	"A.8.2":  {audit.CategoryAuth, audit.CategoryData},
	"A.8.3":  {audit.CategoryData},
	"A.8.15": {audit.CategorySecurity},
	"A.8.16": {audit.CategorySecurity, audit.CategoryAgent},
	"A.8.32": {audit.CategoryConfig, audit.CategoryApproval},
}

// ControlCategories returns the audit categories mapped to controlID. The
// second return is false for an unknown control.
func ControlCategories(controlID string) ([]audit.Category, bool) {
	cats, ok := controlCategories[controlID]
	return cats, ok
}

// KnownControls returns every mapped control ID, unordered.
func KnownControls() []string {
	ids := make([]string, 0, len(controlCategories))
	for id := range controlCategories {
		ids = append(ids, id)
	}
	return ids
}
