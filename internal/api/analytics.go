package api

import (
	"context"  // Context for Redis operations
	"fmt"      // Cache key formatting
	"net/http" // HTTP status codes
	"sort"     // Stable breakdown ordering
	"strconv"  // Query parameter conversion
	"time"     // Period boundaries

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/middleware"
	"finance_tracker/internal/policy" // Access control decisions
	"finance_tracker/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"gorm.io/gorm"                  // GORM ORM library
)

// analyticsCacheTTL bounds how long a cached aggregate may serve
const analyticsCacheTTL = 60 * time.Second

// OverviewResponse sums a period by transaction type
type OverviewResponse struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// BreakdownEntry is one category's expense total for a period
type BreakdownEntry struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// MonthEntry is one month of the income-vs-expense series
type MonthEntry struct {
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// parsePeriod reads the year and optional month query parameters and returns
// the half-open [from, to) date range they describe. Range conditions keep
// the query portable across SQL dialects and let the date index serve it.
func parsePeriod(c *gin.Context) (from, to time.Time, ok bool) {
	yearStr := c.Query("year")
	if yearStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year is required."})
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year is required."})
		return
	}
	if monthStr := c.Query("month"); monthStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be between 1 and 12."})
			return
		}
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}
	from = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), true
}

// periodTransactions loads the caller's transactions inside [from, to)
func periodTransactions(db *gorm.DB, userID uint, from, to time.Time, expenseOnly bool) ([]domain.Transaction, error) {
	q := db.Preload("Category").
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to)
	if expenseOnly {
		q = q.Where("type = ?", domain.TypeExpense)
	}
	var txs []domain.Transaction
	err := q.Find(&txs).Error
	return txs, err
}

// analyticsAllowed authorizes the read, writing the error response on deny
func analyticsAllowed(c *gin.Context) bool {
	if !policy.Allow(c.GetString(middleware.CtxRole), policy.ReadAnalytics) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
		return false
	}
	return true
}

// analyticsCacheKey builds a user- and period-scoped key carrying the ledger
// version, so mutations invalidate cached aggregates
func analyticsCacheKey(ctx context.Context, rdb *redis.Client, userID uint, name string, from time.Time) string {
	return fmt.Sprintf("analytics:%s:user:%d:v%d:%s", name, userID,
		utils.LedgerVersion(ctx, rdb, userID), from.Format(dateLayout))
}

// OverviewHandler sums the period's income and expense and their difference.
// Sums run in decimal arithmetic so many small amounts cannot drift; only the
// final response values are rendered as floats.
func OverviewHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !analyticsAllowed(c) {
			return
		}
		userID := c.GetUint(middleware.CtxUserID)
		from, to, ok := parsePeriod(c)
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := analyticsCacheKey(ctx, rdb, userID, "overview", from) + ":" + to.Format(dateLayout)
		var cached OverviewResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		txs, err := periodTransactions(db, userID, from, to, false)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		income, expense := decimal.Zero, decimal.Zero
		for _, t := range txs {
			switch t.Type {
			case domain.TypeIncome:
				income = income.Add(t.Amount)
			case domain.TypeExpense:
				expense = expense.Add(t.Amount)
			}
		}
		resp := OverviewResponse{
			Income:  income.InexactFloat64(),
			Expense: expense.InexactFloat64(),
			Net:     income.Sub(expense).InexactFloat64(),
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, analyticsCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// CategoryBreakdownHandler sums the period's expenses per category name.
// Categories with no matching expenses are omitted.
func CategoryBreakdownHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !analyticsAllowed(c) {
			return
		}
		userID := c.GetUint(middleware.CtxUserID)
		from, to, ok := parsePeriod(c)
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := analyticsCacheKey(ctx, rdb, userID, "breakdown", from) + ":" + to.Format(dateLayout)
		var cached []BreakdownEntry
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		txs, err := periodTransactions(db, userID, from, to, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		totals := make(map[string]decimal.Decimal)
		for _, t := range txs {
			totals[t.Category.Name] = totals[t.Category.Name].Add(t.Amount)
		}
		resp := make([]BreakdownEntry, 0, len(totals))
		for name, total := range totals {
			resp = append(resp, BreakdownEntry{Category: name, Total: total.InexactFloat64()})
		}
		// Map iteration order is random; sort for a stable response
		sort.Slice(resp, func(i, j int) bool { return resp[i].Category < resp[j].Category })
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, analyticsCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// IncomeVsExpenseHandler returns twelve month entries for the year, in
// calendar order, zero-filled for months with no activity
func IncomeVsExpenseHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !analyticsAllowed(c) {
			return
		}
		userID := c.GetUint(middleware.CtxUserID)
		yearStr := c.Query("year")
		year, err := strconv.Atoi(yearStr)
		if yearStr == "" || err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Year is required."})
			return
		}
		ctx := context.Background()
		from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		cacheKey := analyticsCacheKey(ctx, rdb, userID, "income-vs-expense", from)
		var cached []MonthEntry
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		txs, err := periodTransactions(db, userID, from, from.AddDate(1, 0, 0), false)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		income := make([]decimal.Decimal, 12)
		expense := make([]decimal.Decimal, 12)
		for _, t := range txs {
			m := int(t.Date.Month()) - 1
			switch t.Type {
			case domain.TypeIncome:
				income[m] = income[m].Add(t.Amount)
			case domain.TypeExpense:
				expense[m] = expense[m].Add(t.Amount)
			}
		}
		resp := make([]MonthEntry, 12)
		for i := 0; i < 12; i++ {
			resp[i] = MonthEntry{
				Month:   i + 1,
				Income:  income[i].InexactFloat64(),
				Expense: expense[i].InexactFloat64(),
			}
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, analyticsCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}
