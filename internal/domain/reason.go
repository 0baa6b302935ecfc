package domain

import "strings"

// Reason is a department-specific category a ticket can be filed under.
type Reason struct {
	ID           int64
	Name         string
	NameEN       *string
	Description  string
	DepartmentID int64
}

// LocalizedName returns the name to display for loc.
func (r Reason) LocalizedName(loc Locale) string {
	return ReasonLabel(r.Name, r.NameEN, loc)
}

// ReasonLabel resolves a reason name pair for loc, falling back to the primary name.
func ReasonLabel(name string, nameEN *string, loc Locale) string {
	if loc == LocaleEN && nameEN != nil && strings.TrimSpace(*nameEN) != "" {
		return *nameEN
	}
	return name
}
