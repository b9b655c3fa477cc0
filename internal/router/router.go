package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-sessions/internal/handler"    // handlers that call the application service
	"github.com/iliyamo/cinema-sessions/internal/middleware" // JWT authentication, role enforcement and rate limiting
	"github.com/iliyamo/cinema-sessions/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the browse and booking endpoints. They do not
// apply any JWT middleware; seat booking is throttled by limiter.
func RegisterPublic(e *echo.Echo, h *handler.CinemaHandler, limiter echo.MiddlewareFunc) {
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:id", h.GetSession)
	e.GET("/v1/sessions/:id/seats/:row/:column", h.IsSeatBooked)
	e.POST("/v1/sessions/:id/seats", h.BookSeat, limiter)
	e.GET("/v1/movies", h.ListMovies)
}

// RegisterAdmin registers the login endpoint and the operator routes. When
// jwtSecret is empty the operator routes are left unregistered; login still
// answers so clients see why.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, h *handler.CinemaHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)
	if jwtSecret == "" {
		return
	}

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(utils.RoleAdmin))

	admin.POST("/sessions", h.CreateSession)
	admin.POST("/movies", h.CreateMovie)
	admin.PATCH("/movies/:title", h.UpdateMovie)
	admin.DELETE("/movies/:title", h.DeleteMovie)
	admin.POST("/snapshot", h.Snapshot)
}
