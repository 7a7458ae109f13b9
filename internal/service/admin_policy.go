package service

import "strings"

// AdminPolicy decides whether an account may manage the catalog
type AdminPolicy interface {
	IsAdmin(email string) bool
}

type emailAdminPolicy struct {
	email string
}

// NewEmailAdminPolicy grants admin rights to exactly one account.
// An empty address grants them to nobody.
func NewEmailAdminPolicy(adminEmail string) AdminPolicy {
	return &emailAdminPolicy{email: normalizeEmail(adminEmail)}
}

func (p *emailAdminPolicy) IsAdmin(email string) bool {
	return p.email != "" && normalizeEmail(email) == p.email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
