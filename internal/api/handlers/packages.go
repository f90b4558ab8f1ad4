package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codyseavey/manabase-builder/backend/internal/database"
	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

// PackageHandler serves the curated card-package and land-preset CRUD.
type PackageHandler struct{}

func NewPackageHandler() *PackageHandler {
	return &PackageHandler{}
}

func (h *PackageHandler) ListPackages(c *gin.Context) {
	db := database.GetDB()
	var packages []models.CardPackage
	if err := db.Order("name ASC").Find(&packages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, packages)
}

func (h *PackageHandler) CreatePackage(c *gin.Context) {
	var pkg models.CardPackage
	if err := c.ShouldBindJSON(&pkg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if pkg.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "package name required"})
		return
	}

	pkg.ID = uuid.New().String()
	pkg.CreatedAt = time.Now()
	pkg.UpdatedAt = pkg.CreatedAt

	if err := database.GetDB().Create(&pkg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	id := c.Param("id")
	db := database.GetDB()

	var existing models.CardPackage
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var update models.CardPackage
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing.Name = update.Name
	existing.Description = update.Description
	existing.Cards = update.Cards
	existing.UpdatedAt = time.Now()

	if err := db.Save(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *PackageHandler) DeletePackage(c *gin.Context) {
	id := c.Param("id")
	result := database.GetDB().Delete(&models.CardPackage{}, "id = ?", id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *PackageHandler) ListPresets(c *gin.Context) {
	db := database.GetDB()
	var presets []models.LandPreset
	if err := db.Order("updated_at DESC").Find(&presets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, presets)
}

func (h *PackageHandler) CreatePreset(c *gin.Context) {
	var preset models.LandPreset
	if err := c.ShouldBindJSON(&preset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if preset.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preset name required"})
		return
	}

	preset.ID = uuid.New().String()
	preset.CreatedAt = time.Now()
	preset.UpdatedAt = preset.CreatedAt

	if err := database.GetDB().Create(&preset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, preset)
}

func (h *PackageHandler) DeletePreset(c *gin.Context) {
	id := c.Param("id")
	result := database.GetDB().Delete(&models.LandPreset{}, "id = ?", id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
