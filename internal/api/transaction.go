package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // Path parameter conversion
	"time"     // Calendar date handling

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/middleware"
	"finance_tracker/internal/policy" // Access control decisions
	"finance_tracker/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// dateLayout is the only accepted transaction date format
const dateLayout = "2006-01-02"

// txCacheTTL bounds how long a cached transaction list may serve
const txCacheTTL = 60 * time.Second

// Request struct for transaction create and update. On update, zero-valued
// fields keep the record's previous value.
type TransactionRequest struct {
	CategoryID  uint    `json:"category_id"` // Referenced category, must exist
	Type        string  `json:"type"`        // income or expense
	Amount      float64 `json:"amount"`      // Positive amount
	Description string  `json:"description"` // Optional free text
	Date        string  `json:"date"`        // Calendar date, YYYY-MM-DD
}

// TransactionResponse is a transaction joined with its category name
type TransactionResponse struct {
	ID          uint    `json:"id"`
	UserID      uint    `json:"user_id"`
	CategoryID  uint    `json:"category_id"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// toResponse maps a loaded transaction to its wire shape
func toResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		CategoryID:  t.CategoryID,
		Category:    t.Category.Name,
		Type:        t.Type,
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
		Date:        t.Date.Format(dateLayout),
	}
}

// ListTransactionsHandler returns every transaction owned by the caller,
// newest date first, joined with the category name
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.CtxUserID)
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.ReadTransactions) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
			return
		}
		ctx := context.Background()
		// Cache key carries the user's ledger version so any mutation
		// orphans the entry
		cacheKey := "transactions:user:" + strconv.Itoa(int(userID)) +
			":v" + strconv.FormatInt(utils.LedgerVersion(ctx, rdb, userID), 10)
		var cached []TransactionResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		var txs []domain.Transaction
		// Date descending, newest insert first within a date
		if err := db.Preload("Category").Where("user_id = ?", userID).
			Order("date desc, id desc").Find(&txs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		resp := make([]TransactionResponse, len(txs))
		for i, t := range txs {
			resp[i] = toResponse(t)
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, txCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// GetTransactionHandler returns one owned transaction. A transaction owned
// by someone else answers exactly like a missing one.
func GetTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.CtxUserID)
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.ReadTransactions) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found."})
			return
		}
		var tx domain.Transaction
		if err := db.Preload("Category").
			Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found."})
			return
		}
		c.JSON(http.StatusOK, toResponse(tx))
	}
}

// CreateTransactionHandler records a new transaction owned by the caller
func CreateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.CtxUserID)
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.WriteTransaction) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.CategoryID == 0 || req.Type == "" || req.Amount == 0 || req.Date == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields."})
			return
		}
		if !domain.ValidType(req.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type."})
			return
		}
		if req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number."})
			return
		}
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be valid (YYYY-MM-DD)."})
			return
		}
		// The category reference must exist at creation time
		var cat domain.Category
		if err := db.First(&cat, req.CategoryID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist."})
			return
		}
		tx := domain.Transaction{
			UserID:      userID, // Owner is always the acting user
			CategoryID:  req.CategoryID,
			Type:        req.Type,
			Amount:      decimal.NewFromFloat(req.Amount),
			Description: req.Description,
			Date:        date,
		}
		if err := db.Create(&tx).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("Transaction create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		_ = utils.BumpLedgerVersion(context.Background(), rdb, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"category_id": req.CategoryID,
			"type":        req.Type,
			"amount":      req.Amount,
		}).Info("Transaction created")
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction created."})
	}
}

// UpdateTransactionHandler applies a partial update to an owned transaction.
// A field that binds to its zero value keeps the stored value; amount cannot
// be cleared this way, only replaced.
func UpdateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.CtxUserID)
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.WriteTransaction) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found."})
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Ownership check doubles as the existence check
		var tx domain.Transaction
		if err := db.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found."})
			return
		}
		if req.CategoryID != 0 {
			var cat domain.Category
			if err := db.First(&cat, req.CategoryID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist."})
				return
			}
			tx.CategoryID = req.CategoryID
		}
		if req.Type != "" {
			if !domain.ValidType(req.Type) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type."})
				return
			}
			tx.Type = req.Type
		}
		if req.Amount != 0 {
			if req.Amount < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number."})
				return
			}
			tx.Amount = decimal.NewFromFloat(req.Amount)
		}
		if req.Description != "" {
			tx.Description = req.Description
		}
		if req.Date != "" {
			date, err := time.Parse(dateLayout, req.Date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be valid (YYYY-MM-DD)."})
				return
			}
			tx.Date = date
		}
		if err := db.Save(&tx).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		_ = utils.BumpLedgerVersion(context.Background(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction updated."})
	}
}

// DeleteTransactionHandler removes an owned transaction irreversibly
func DeleteTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.CtxUserID)
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.WriteTransaction) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found."})
			return
		}
		var tx domain.Transaction
		if err := db.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found."})
			return
		}
		if err := db.Delete(&tx).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		_ = utils.BumpLedgerVersion(context.Background(), rdb, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":        userID,
			"transaction_id": tx.ID,
		}).Info("Transaction deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted."})
	}
}
