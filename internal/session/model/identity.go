package model

import (
	"sort"
	"strings"
)

// Role is a permission label granted to an identity
type Role string

const (
	RoleUser    Role = "User"
	RoleManager Role = "Manager"
)

// ParseRole resolves a role label case-insensitively
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "user":
		return RoleUser, true
	case "manager":
		return RoleManager, true
	}
	return "", false
}

// RoleSet is a sorted set of known roles without duplicates
type RoleSet []Role

// NewRoleSet builds a RoleSet from raw labels, dropping unknown labels and duplicates
func NewRoleSet(labels ...string) RoleSet {
	seen := make(map[Role]struct{}, len(labels))
	roles := make(RoleSet, 0, len(labels))
	for _, label := range labels {
		role, ok := ParseRole(label)
		if !ok {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Has reports whether the set contains role
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Strings returns the role labels
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// Identity is the cached profile of the authenticated user
type Identity struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	UserName string  `json:"userName,omitempty" yaml:"user_name,omitempty"`
	Email    string  `json:"email,omitempty" yaml:"email,omitempty"`
	Roles    RoleSet `json:"roles" yaml:"roles"`
	Active   bool    `json:"isActive" yaml:"active"`
}

// IsManager reports whether the identity holds the Manager role
func (i Identity) IsManager() bool {
	return i.Roles.Has(RoleManager)
}

// IsUser reports whether the identity holds the User role
func (i Identity) IsUser() bool {
	return i.Roles.Has(RoleUser)
}

// PrimaryRole returns the first role of the set, or an empty string
func (i Identity) PrimaryRole() string {
	if len(i.Roles) == 0 {
		return ""
	}
	return string(i.Roles[0])
}

// Capabilities are the action flags derived from the identity's roles
type Capabilities struct {
	Authenticated bool `json:"authenticated" yaml:"authenticated"`
	CanSubmit     bool `json:"canSubmit" yaml:"can_submit"`
	CanReview     bool `json:"canReview" yaml:"can_review"`
}

// CapabilitiesOf derives the capability flags of an identity
func CapabilitiesOf(identity Identity) Capabilities {
	return Capabilities{
		Authenticated: true,
		CanSubmit:     identity.IsUser(),
		CanReview:     identity.IsManager(),
	}
}

// Credentials are the login form fields
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
