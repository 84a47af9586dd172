// Package permission decides whether a principal may run a module action.
//
// Grants are loaded explicitly by the caller and evaluated as a pure
// allow-list union: there is no deny rule and no precedence between grants.
// The "*" wildcard only exists at the storage boundary (ParseGrant and
// Grant.Storage); inside the package a wildcard is a Kind.
package permission

import (
	"errors"
	"strings"
)

// Wildcard is the storage form of "any module" / "any action".
const Wildcard = "*"

// SuperAdminGroup is the group name the admin layer refuses to let anyone
// outside that group edit.
const SuperAdminGroup = "Super Admin"

type Kind int

const (
	Exact Kind = iota
	ModuleWildcard
	ActionWildcard
	FullWildcard
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case ModuleWildcard:
		return "module_wildcard"
	case ActionWildcard:
		return "action_wildcard"
	case FullWildcard:
		return "full_wildcard"
	default:
		return "unknown"
	}
}

var ErrEmptyGrant = errors.New("permission: module and action are required")

// Grant is a single allow rule. Module and Action are stored lower-cased and
// are empty when the corresponding side is a wildcard.
type Grant struct {
	Kind   Kind
	Module string
	Action string
}

func Full() Grant { return Grant{Kind: FullWildcard} }
func AllActions(module string) Grant { return Grant{Kind: ModuleWildcard, Module: norm(module)} }
func Everywhere(action string) Grant { return Grant{Kind: ActionWildcard, Action: norm(action)} }
func Allow(module, action string) Grant {
	return Grant{Kind: Exact, Module: norm(module), Action: norm(action)}
}

// ParseGrant converts a stored (module, action) row into a Grant.
func ParseGrant(module, action string) (Grant, error) {
	module, action = strings.TrimSpace(module), strings.TrimSpace(action)
	if module == "" || action == "" {
		return Grant{}, ErrEmptyGrant
	}
	switch {
	case module == Wildcard && action == Wildcard:
		return Full(), nil
	case action == Wildcard:
		return AllActions(module), nil
	case module == Wildcard:
		return Everywhere(action), nil
	default:
		return Allow(module, action), nil
	}
}

// Storage returns the (module, action) pair persisted for the grant.
func (g Grant) Storage() (module, action string) {
	switch g.Kind {
	case FullWildcard:
		return Wildcard, Wildcard
	case ModuleWildcard:
		return g.Module, Wildcard
	case ActionWildcard:
		return Wildcard, g.Action
	default:
		return g.Module, g.Action
	}
}

// Matches is the single matcher every evaluation goes through.
func (g Grant) Matches(module, action string) bool {
	module, action = norm(module), norm(action)
	switch g.Kind {
	case FullWildcard:
		return true
	case ModuleWildcard:
		return g.Module == module
	case ActionWildcard:
		return g.Action == action
	case Exact:
		return g.Module == module && g.Action == action
	default:
		return false
	}
}

// Set is an explicitly loaded group permission set.
type Set struct {
	grants []Grant
}

func NewSet(grants ...Grant) Set {
	seen := make(map[Grant]struct{}, len(grants))
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return Set{grants: out}
}

// ParseSet builds a Set from stored rows, skipping rows that are not valid grants.
func ParseSet(rows [][2]string) Set {
	grants := make([]Grant, 0, len(rows))
	for _, r := range rows {
		g, err := ParseGrant(r[0], r[1])
		if err != nil {
			continue
		}
		grants = append(grants, g)
	}
	return NewSet(grants...)
}

func (s Set) Grants() []Grant { return append([]Grant(nil), s.grants...) }
func (s Set) Len() int { return len(s.grants) }

// Allows reports whether any grant in the set covers module/action.
func (s Set) Allows(module, action string) bool {
	if strings.TrimSpace(module) == "" || strings.TrimSpace(action) == "" {
		return false
	}
	for _, g := range s.grants {
		if g.Matches(module, action) {
			return true
		}
	}
	return false
}

// Principal is everything the evaluator needs to know about a caller.
type Principal struct {
	Found    bool
	Active   bool
	HasGroup bool
	Group    string
	Grants   Set
}

// HasPermission is closed by default: unknown, disabled and group-less
// principals are denied whatever their group holds.
func HasPermission(p Principal, module, action string) bool {
	if !p.Found || !p.Active || !p.HasGroup {
		return false
	}
	return p.Grants.Allows(module, action)
}

// IsSuperAdmin reports whether the principal belongs to the protected group.
func (p Principal) IsSuperAdmin() bool {
	return p.Found && p.Active && p.HasGroup && IsProtectedGroup(p.Group)
}

func IsProtectedGroup(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), SuperAdminGroup)
}

// IsProtectedAccount reports whether username is the configured super admin
// account. An empty configuration protects nothing.
func IsProtectedAccount(username, superAdmin string) bool {
	superAdmin = strings.TrimSpace(superAdmin)
	return superAdmin != "" && strings.EqualFold(strings.TrimSpace(username), superAdmin)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
