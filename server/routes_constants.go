package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteLanding = "/"

	// Auth pages
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteLogout         = "/logout"

	// Protected pages
	RouteDashboard = "/dashboard"

	// Assets
	RouteStatic  = "/static/"
	RouteFavicon = "/favicon.ico"
)

// Query parameters
const (
	paramRedirect = "redirect"
	paramMessage  = "message"
	paramError    = "error"
	paramToken    = "token"
)
