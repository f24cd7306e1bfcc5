package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"staff-backend/models"
	"staff-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const staffContextKey = "staffProfile"

func JWTSecret() []byte {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	return []byte(secret)
}

// GenerateToken signs a session token for the account. TTL defaults to 12h.
func GenerateToken(accountID uint, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", accountID),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret())
}

// RequireStaff authenticates the bearer token and resolves the account's
// active staff profile. No token or a bad token is 401; a valid token whose
// account has no active staff profile is 403.
func RequireStaff(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, err := accountIDFromRequest(c)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		var profile models.StaffProfile
		err = db.
			Where("account_id = ? AND status = ?", accountID, models.StaffStatusActive).
			First(&profile).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.JSONError(c, http.StatusForbidden, "no active staff profile for this account")
			} else {
				utils.JSONError(c, http.StatusInternalServerError, "staff profile lookup failed")
			}
			c.Abort()
			return
		}

		c.Set(staffContextKey, &profile)
		c.Next()
	}
}

func StaffFromContext(c *gin.Context) (*models.StaffProfile, bool) {
	value, ok := c.Get(staffContextKey)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*models.StaffProfile)
	return profile, ok
}

func accountIDFromRequest(c *gin.Context) (uint, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return 0, errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, errors.New("malformed authorization header")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return JWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.New("token missing subject")
	}

	var accountID uint
	if _, err := fmt.Sscanf(sub, "%d", &accountID); err != nil || accountID == 0 {
		return 0, errors.New("invalid token subject")
	}
	return accountID, nil
}
