// Package router assembles the HTTP API.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "fintrack/internal/docs" // swagger docs
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/notify"
	"fintrack/internal/otp"
	"fintrack/internal/services"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	DB       *gorm.DB
	Tokens   *middleware.TokenManager
	OTPStore otp.Store
	Notifier notify.Notifier
	OTPTTL   time.Duration

	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	CORSOrigin string

	// ReportLocation buckets summary months when a request gives no tz.
	ReportLocation *time.Location
}

// SetupRouter wires services, handlers and middleware into a Gin engine.
func SetupRouter(deps Deps) *gin.Engine {
	origin := deps.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	ttl := deps.OTPTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	// Services
	userService := services.NewUserService(deps.DB)
	transactionService := services.NewTransactionService(deps.DB)
	auditService := services.NewAuditService(deps.DB)
	otpService := services.NewOTPService(userService, deps.OTPStore, deps.Notifier, ttl)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, otpService, auditService, deps.Tokens)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService, deps.ReportLocation)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS(origin))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/validate-phone", authHandler.ValidatePhone)
	auth.POST("/validate-password", authHandler.ValidatePassword)
	auth.POST("/update-password", authHandler.UpdatePassword)
	auth.POST("/request-otp", authHandler.RequestOTP)
	auth.POST("/verify-otp", authHandler.VerifyOTP)

	transactions := api.Group("/transactions")
	transactions.Use(deps.Tokens.Middleware())
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("/add", transactionHandler.AddTransaction)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	return r
}
