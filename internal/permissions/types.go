package permissions

import (
	"sort"
	"time"
)

// Source identifies why a permission is present in an effective set. It is
// used for auditing and display, never for the grant decision itself.
type Source string

const (
	// SourceRole marks permissions derived from the user's role.
	SourceRole Source = "ROLE"
	// SourceDirect marks permissions granted directly to the user. DIRECT
	// wins attribution when a name is reachable through both sources.
	SourceDirect Source = "DIRECT"
)

// EffectivePermission is a single resolved permission with its attribution.
type EffectivePermission struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Description    string `json:"description,omitempty"`
	Source         Source `json:"source"`
	SourceRoleName string `json:"source_role_name,omitempty"`
}

// EffectiveSet is the computed permission set for a (user, company) pair.
// RoleID and CompanyID are recorded so the cache can match entries during
// role- and company-scoped invalidation.
type EffectiveSet struct {
	UserID      string                         `json:"user_id"`
	CompanyID   string                         `json:"company_id"`
	RoleID      string                         `json:"role_id"`
	RoleName    string                         `json:"role_name"`
	Permissions map[string]EffectivePermission `json:"permissions"`
	ComputedAt  time.Time                      `json:"computed_at"`
}

// Has reports whether the set grants the named permission.
func (s *EffectiveSet) Has(name string) (EffectivePermission, bool) {
	if s == nil {
		return EffectivePermission{}, false
	}
	perm, ok := s.Permissions[name]
	return perm, ok
}

// Names returns the granted permission names in sorted order.
func (s *EffectiveSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Permissions))
	for name := range s.Permissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy so cached sets are never mutated by callers.
func (s *EffectiveSet) Clone() *EffectiveSet {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.Permissions = make(map[string]EffectivePermission, len(s.Permissions))
	for name, perm := range s.Permissions {
		cpy.Permissions[name] = perm
	}
	return &cpy
}
