package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principal(grants ...Grant) Principal {
	return Principal{Found: true, Active: true, HasGroup: true, Group: "Sales", Grants: NewSet(grants...)}
}

func TestParseGrantTranslatesWildcards(t *testing.T) {
	cases := []struct {
		module, action string
		want           Kind
	}{
		{"*", "*", FullWildcard},
		{"Invoices", "*", ModuleWildcard},
		{"*", "Delete", ActionWildcard},
		{"Invoices", "Create", Exact},
		{" Invoices ", " Create ", Exact},
	}
	for _, tc := range cases {
		g, err := ParseGrant(tc.module, tc.action)
		require.NoError(t, err)
		assert.Equal(t, tc.want, g.Kind, "%s/%s", tc.module, tc.action)
	}

	_, err := ParseGrant("", "Create")
	assert.ErrorIs(t, err, ErrEmptyGrant)
	_, err = ParseGrant("Invoices", "  ")
	assert.ErrorIs(t, err, ErrEmptyGrant)
}

func TestGrantStorageRoundTrip(t *testing.T) {
	for _, g := range []Grant{Full(), AllActions("stock"), Everywhere("show"), Allow("invoices", "create")} {
		m, a := g.Storage()
		back, err := ParseGrant(m, a)
		require.NoError(t, err)
		assert.Equal(t, g, back)
	}
}

func TestFullWildcardGrantsEverything(t *testing.T) {
	p := principal(Full())
	assert.True(t, HasPermission(p, "Invoices", "Create"))
	assert.True(t, HasPermission(p, "Groups", "Delete"))
}

func TestModuleWildcardCoversAnyActionOnModule(t *testing.T) {
	p := principal(AllActions("Invoices"))
	assert.True(t, HasPermission(p, "Invoices", "Create"))
	assert.True(t, HasPermission(p, "invoices", "cancel"))
	assert.False(t, HasPermission(p, "Purchases", "Create"))
}

func TestActionWildcardCoversActionEverywhere(t *testing.T) {
	p := principal(Everywhere("Show"))
	assert.True(t, HasPermission(p, "Invoices", "Show"))
	assert.True(t, HasPermission(p, "Stock", "SHOW"))
	assert.False(t, HasPermission(p, "Invoices", "Create"))
}

func TestExactGrant(t *testing.T) {
	p := principal(Allow("Purchases", "Receive"))
	assert.True(t, HasPermission(p, "purchases", "receive"))
	assert.False(t, HasPermission(p, "Purchases", "Cancel"))
	assert.False(t, HasPermission(p, "Invoices", "Receive"))
}

func TestEmptySetDeniesEverything(t *testing.T) {
	assert.False(t, HasPermission(principal(), "Invoices", "Show"))
}

func TestInactiveOrGrouplessPrincipalIsDenied(t *testing.T) {
	p := principal(Full())

	inactive := p
	inactive.Active = false
	assert.False(t, HasPermission(inactive, "Invoices", "Show"))

	noGroup := p
	noGroup.HasGroup = false
	assert.False(t, HasPermission(noGroup, "Invoices", "Show"))

	missing := p
	missing.Found = false
	assert.False(t, HasPermission(missing, "Invoices", "Show"))
}

func TestAllowsRejectsBlankQuery(t *testing.T) {
	s := NewSet(Full())
	assert.False(t, s.Allows("", "Show"))
	assert.False(t, s.Allows("Invoices", ""))
}

func TestParseSetSkipsInvalidRowsAndDuplicates(t *testing.T) {
	s := ParseSet([][2]string{
		{"Invoices", "Create"},
		{"invoices", "create"},
		{"", "Show"},
		{"Stock", "*"},
	})
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Allows("Stock", "Adjust"))
}

func TestProtectedGroup(t *testing.T) {
	assert.True(t, IsProtectedGroup("super admin"))
	assert.True(t, IsProtectedGroup(" Super Admin "))
	assert.False(t, IsProtectedGroup("Admins"))

	p := principal(Full())
	p.Group = SuperAdminGroup
	assert.True(t, p.IsSuperAdmin())
	p.Active = false
	assert.False(t, p.IsSuperAdmin())
}

func TestProtectedAccount(t *testing.T) {
	assert.True(t, IsProtectedAccount("Admin", "admin"))
	assert.False(t, IsProtectedAccount("alice", "admin"))
	assert.False(t, IsProtectedAccount("", ""))
}
