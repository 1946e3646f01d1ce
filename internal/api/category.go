package api

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/middleware"
	"finance_tracker/internal/policy" // Access control decisions

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Request struct for category creation
type CategoryRequest struct {
	Name string `json:"name"` // Category name
}

// ListCategoriesHandler returns the full catalog, name ascending.
// Readable by every authenticated role.
func ListCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.ReadCategories) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges."})
			return
		}
		var categories []domain.Category
		if err := db.Order("name asc").Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// CreateCategoryHandler adds a category to the catalog. Admin only.
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(middleware.CtxRole)
		if !policy.Allow(role, policy.CreateCategory) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: admin only."})
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required."})
			return
		}
		// Names are unique; reject duplicates before writing
		var existing domain.Category
		if err := db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Category already exists."})
			return
		}
		if err := db.Create(&domain.Category{Name: req.Name}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Category added."})
	}
}
