package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" SuperUser ")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperuser, role)

	_, ok = ParseRole("staff")
	assert.False(t, ok)
}

func TestReconcileRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		platform bool
		want     Role
	}{
		{"flag promotes user", RoleUser, true, RoleSuperuser},
		{"flag promotes admin", RoleAdmin, true, RoleSuperuser},
		{"no flag keeps admin", RoleAdmin, false, RoleAdmin},
		{"no flag keeps superuser", RoleSuperuser, false, RoleSuperuser},
		{"garbage role becomes user", Role("root"), false, RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconcileRole(tt.role, tt.platform))
		})
	}
}

func TestUserHelpers(t *testing.T) {
	u := &User{Username: "jdoe", Role: RoleAdmin}
	assert.Equal(t, "jdoe", u.DisplayName())
	assert.True(t, u.IsStaff())
	assert.False(t, u.IsSuperuser())

	u.FirstName, u.LastName = "Jane", "Doe"
	assert.Equal(t, "Jane Doe", u.DisplayName())

	var nilUser *User
	assert.False(t, nilUser.IsSuperuser())
	assert.Equal(t, "", nilUser.DisplayName())
}

func TestReasonLocalizedName(t *testing.T) {
	en := "Software"
	r := Reason{Name: "Programas", NameEN: &en}
	assert.Equal(t, "Software", r.LocalizedName(LocaleEN))
	assert.Equal(t, "Programas", r.LocalizedName(LocaleES))

	blank := "  "
	r.NameEN = &blank
	assert.Equal(t, "Programas", r.LocalizedName(LocaleEN))
}
