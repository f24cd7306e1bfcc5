package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"staff-backend/middleware"
	"staff-backend/models"
	"staff-backend/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

type LoginPayload struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	var account models.Account
	err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(payload.Email))).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONError(c, http.StatusUnauthorized, "invalid credentials")
		} else {
			utils.JSONError(c, http.StatusInternalServerError, "login failed")
		}
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(payload.Password)) != nil {
		utils.JSONError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(account.ID, 12*time.Hour)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "token generation failed")
		return
	}

	// the staff profile is optional at login time; clients without one can
	// still authenticate but every staff endpoint will refuse them
	var profile *models.StaffProfile
	var found models.StaffProfile
	if err := ac.DB.Where("account_id = ? AND status = ?", account.ID, models.StaffStatusActive).
		First(&found).Error; err == nil {
		profile = &found
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":   token,
		"account": account,
		"staff":   profile,
	})
}
