// Package policy is the single decision point for role and ownership checks.
// Every handler consults it before touching storage; the functions are pure
// and never read the database.
package policy

import "finance_tracker/internal/domain"

// Operation identifies what the caller is trying to do
type Operation int

const (
	ReadTransactions Operation = iota // List/get own transactions
	WriteTransaction                  // Create, update or delete an owned transaction
	ReadCategories                    // List the category catalog
	CreateCategory                    // Add a category to the catalog
	ReadAnalytics                     // Aggregate own transactions
)

// grants maps each operation to the roles allowed to perform it.
// Roles not listed are denied.
var grants = map[Operation][]string{
	ReadTransactions: {domain.RoleAdmin, domain.RoleUser, domain.RoleReadOnly},
	WriteTransaction: {domain.RoleAdmin, domain.RoleUser},
	ReadCategories:   {domain.RoleAdmin, domain.RoleUser, domain.RoleReadOnly},
	CreateCategory:   {domain.RoleAdmin},
	ReadAnalytics:    {domain.RoleAdmin, domain.RoleUser, domain.RoleReadOnly},
}

// Allow reports whether role may perform op
func Allow(role string, op Operation) bool {
	for _, r := range grants[op] {
		if r == role {
			return true
		}
	}
	return false
}

// AllowOwned reports whether role may perform op against a resource owned by
// ownerID while acting as userID. An ownership mismatch is denied for every
// role; admin gets no bypass.
func AllowOwned(role string, op Operation, userID, ownerID uint) bool {
	if userID != ownerID {
		return false
	}
	return Allow(role, op)
}
