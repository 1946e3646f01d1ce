package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

var dbCounter int64

// setupDB opens a fresh in-memory database with the full schema.
// Each test gets its own named shared-cache DB so pooled connections
// see the same data.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddInt64(&dbCounter, 1)
	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Transaction{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// setupRedis starts an in-memory Redis and returns a connected client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// newTestRouter wires every handler the way cmd/server does, minus rate
// limiting, against the given test database and Redis
func newTestRouter(db *gorm.DB, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	root := r.Group("/api")
	root.POST("/auth/register", RegisterHandler(db))
	root.POST("/auth/login", LoginHandler(db, testSecret))

	auth := root.Group("", middleware.JWTAuthMiddleware(testSecret))
	auth.GET("/categories", ListCategoriesHandler(db))
	auth.POST("/categories", CreateCategoryHandler(db))
	auth.GET("/transactions", ListTransactionsHandler(db, rdb))
	auth.GET("/transactions/:id", GetTransactionHandler(db))
	auth.POST("/transactions", CreateTransactionHandler(db, rdb))
	auth.PUT("/transactions/:id", UpdateTransactionHandler(db, rdb))
	auth.DELETE("/transactions/:id", DeleteTransactionHandler(db, rdb))
	auth.GET("/analytics/overview", OverviewHandler(db, rdb))
	auth.GET("/analytics/category-breakdown", CategoryBreakdownHandler(db, rdb))
	auth.GET("/analytics/income-vs-expense", IncomeVsExpenseHandler(db, rdb))
	return r
}

// doJSON performs a request with an optional bearer token and JSON body
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account through the API and returns its token
func registerAndLogin(t *testing.T, r *gin.Engine, name, email, password, role string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": password, "role": role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: got status %d, body %s", email, w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: got status %d, body %s", email, w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return resp.Token
}

// createCategory adds a category as the given (admin) token and returns its id
func createCategory(t *testing.T, r *gin.Engine, db *gorm.DB, token, name string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/categories", token, gin.H{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category %s: got status %d, body %s", name, w.Code, w.Body.String())
	}
	var cat domain.Category
	if err := db.Where("name = ?", name).First(&cat).Error; err != nil {
		t.Fatalf("loading created category: %v", err)
	}
	return cat.ID
}

// createTransaction posts a transaction as the given token
func createTransaction(t *testing.T, r *gin.Engine, token string, categoryID uint, txType string, amount float64, date string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/transactions", token, gin.H{
		"category_id": categoryID, "type": txType, "amount": amount, "date": date,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction: got status %d, body %s", w.Code, w.Body.String())
	}
}
