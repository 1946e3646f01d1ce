package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// ValidType reports whether t is one of the two transaction types
func ValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction Model
type Transaction struct {
	ID          uint            `gorm:"primaryKey"`                // Primary key
	UserID      uint            `gorm:"not null;index"`            // Owning user, never transfers
	CategoryID  uint            `gorm:"not null"`                  // Foreign key to Category
	Category    Category        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"` // Referenced category
	Type        string          `gorm:"not null"`                  // income or expense
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"` // Positive amount
	Description string          // Optional free text
	Date        time.Time       `gorm:"type:date;not null;index"` // Calendar date, no time of day
}
