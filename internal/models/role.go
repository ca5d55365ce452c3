package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of account kinds.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRetailer   Role = "retailer"
	RoleWholesaler Role = "wholesaler"
)

var ErrUnknownRole = errors.New("unknown role")

// Roles lists every valid role.
var Roles = []Role{RoleCustomer, RoleRetailer, RoleWholesaler}

// PartnerRoles are the roles that own a store.
var PartnerRoles = []Role{RoleRetailer, RoleWholesaler}

// ParseRole accepts any letter case and surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleRetailer, RoleWholesaler:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// IsPartner reports whether the role owns a store (party).
func (r Role) IsPartner() bool {
	return r == RoleRetailer || r == RoleWholesaler
}

func (r Role) String() string { return string(r) }
