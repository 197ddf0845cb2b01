// Package api mounts the HTTP surface on a gin engine.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"alumni/internal/api/controllers"
	"alumni/pkg/middleware"
)

type RouterParams struct {
	fx.In

	Log           *zap.Logger
	Tokens        middleware.TokenValidator
	Resolver      middleware.PrincipalResolver
	AllowedOrigin string `name:"allowed_origin"`

	Accounts      *controllers.AccountController
	Events        *controllers.EventController
	Registrations *controllers.RegistrationController
	Memberships   *controllers.MembershipController
	Payments      *controllers.PaymentController
	Health        *controllers.HealthController
}

func NewRouter(p RouterParams) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.TraceIDMiddleware(),
		middleware.RequestLogger(p.Log),
		middleware.Recovery(p.Log),
		middleware.CORS(p.AllowedOrigin),
	)

	RegisterRoutes(r, p)
	return r
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	auth := middleware.JWTAuthMiddleware(p.Tokens, p.Resolver)
	optional := middleware.OptionalJWTMiddleware(p.Tokens, p.Resolver)
	admin := middleware.RequireAdmin()

	r.GET("/health", p.Health.Health)

	v1 := r.Group("/api/v1")
	v1.GET("/health", p.Health.Health)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", p.Accounts.Register)
	authGroup.POST("/login", p.Accounts.Login)
	authGroup.GET("/me", auth, p.Accounts.Me)
	authGroup.POST("/forgot-password", p.Accounts.ForgotPassword)
	authGroup.POST("/reset-password", p.Accounts.ResetPassword)

	users := v1.Group("/users", auth)
	users.GET("", admin, p.Accounts.GetAllAccounts)
	users.GET("/me", p.Accounts.Me)
	users.PUT("/me", p.Accounts.UpdateMe)
	users.GET("/search", p.Accounts.SearchDirectory)
	users.GET("/:id", p.Accounts.GetProfile)

	events := v1.Group("/events")
	events.GET("", optional, p.Events.ListEvents)
	events.GET("/:id", optional, p.Events.GetEvent)
	events.POST("", auth, admin, p.Events.CreateEvent)
	events.PUT("/:id", auth, admin, p.Events.UpdateEvent)
	events.DELETE("/:id", auth, admin, p.Events.DeleteEvent)

	registrations := v1.Group("/registrations", auth)
	registrations.POST("", p.Registrations.Register)
	registrations.GET("/my-events", p.Registrations.MyEvents)
	registrations.GET("/event/:id", admin, p.Registrations.ListForEvent)
	registrations.PUT("/:id/attendance", admin, p.Registrations.UpdateAttendance)
	registrations.DELETE("/:event_id", p.Registrations.Cancel)

	memberships := v1.Group("/memberships", auth)
	memberships.POST("", p.Memberships.CreateMembership)
	memberships.GET("", admin, p.Memberships.ListMemberships)
	memberships.GET("/my-membership", p.Memberships.MyMembership)
	memberships.GET("/stats", admin, p.Memberships.Stats)
	memberships.PUT("/:id/cancel", p.Memberships.CancelMembership)

	payments := v1.Group("/payments")
	payments.POST("/create-intent", auth, p.Payments.CreateIntent)
	payments.POST("/webhook", p.Payments.HandleWebhook)
	payments.GET("/config", p.Payments.GetConfig)
	payments.GET("/failures", auth, admin, p.Payments.ListFailures)
}
