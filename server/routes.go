package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteStatic, ChainMiddleware(s.fileServer.ServeHTTP, s.StaticMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteFavicon, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	guarded := s.HTMLMiddleWare(s.GuardMiddleware)

	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.LandingHandler(), guarded...))

	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), guarded...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), guarded...))

	s.RegisterRouteFunc("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), guarded...))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), guarded...))

	s.RegisterRouteFunc("GET "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordGetHandler(), guarded...))
	s.RegisterRouteFunc("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordPostHandler(), guarded...))

	s.RegisterRouteFunc("GET "+RouteResetPassword, ChainMiddleware(s.ResetPasswordGetHandler(), guarded...))
	s.RegisterRouteFunc("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordPostHandler(), guarded...))

	s.RegisterRouteFunc("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), guarded...))

	// Logout always clears local state, even once the access credential has lapsed
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), guarded...))
}
