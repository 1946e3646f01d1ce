package domain

// Valid user roles
const (
	RoleAdmin    = "admin"     // Manages categories in addition to own ledger
	RoleUser     = "user"      // Manages own transactions
	RoleReadOnly = "read-only" // May only read
)

// ValidRole reports whether role is one of the three recognized roles
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser || role == RoleReadOnly
}

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`          // Primary key
	Name     string `gorm:"not null" json:"name"`          // Display name
	Email    string `gorm:"unique;not null" json:"email"`  // Unique email, stored as given
	Password string `gorm:"not null" json:"-"`             // Bcrypt hash, never serialized
	Role     string `gorm:"default:user" json:"role"`      // Role: admin, user or read-only
}
