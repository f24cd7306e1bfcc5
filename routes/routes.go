package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"staff-backend/controllers"
	"staff-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(
	db *gorm.DB,
	log *zap.SugaredLogger,
	authCtl *controllers.AuthController,
	requestCtl *controllers.RequestController,
	actionCtl *controllers.ActionController,
	assignmentCtl *controllers.AssignmentController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(otelgin.Middleware("staff-backend"))

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/login", authCtl.Login)

		// customer surface, no staff session
		api.POST("/requests", requestCtl.CreateRequest)

		staff := api.Group("")
		staff.Use(middleware.RequireStaff(db))
		{
			staff.POST("/requests/action", actionCtl.ProcessAction)
			staff.GET("/requests/:id/log", requestCtl.GetActionLog)
			staff.POST("/assignments/self", assignmentCtl.SelfAssign)
			staff.GET("/assignments/mine", assignmentCtl.MyWork)
		}
	}

	return r
}
