package server

import (
	"net/http"

	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/users"
)

func (s *Server) LandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, pageLanding, PageData{User: s.signedInUser(r)})
	}
}

// DashboardHandler fetches the profile through the refreshing client. An
// expired session sends the browser back to login.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.workspace(w, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		profile, err := ws.Auth.CurrentUser(r.Context())
		switch apiclient.Classify(err) {
		case apiclient.KindNone:
		case apiclient.KindSessionExpired:
			redirectSuccess(w, r, s.guard.LoginLocation(r.URL.Path))
			return
		default:
			s.logger.Warn().Err(err).Str("session", ws.ID).Msg("profile fetch failed")
			s.render(w, http.StatusBadGateway, pageDashboard, PageData{
				User:  ws.Session.User(),
				Error: auth.RootError(err),
			})
			return
		}

		s.render(w, http.StatusOK, pageDashboard, PageData{
			User:    ws.Session.User(),
			Profile: profile,
		})
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}
}

// signedInUser is the user behind an existing session cookie, without
// starting a new session.
func (s *Server) signedInUser(r *http.Request) *users.UserSummary {
	ws, ok := s.existingWorkspace(r)
	if !ok || !ws.Store.Present() {
		return nil
	}
	return ws.Session.User()
}

// renderFormError re-renders a form with the error's field and form-level
// messages. Session expiry goes to login instead.
func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, name string, data PageData, err error) {
	if apiclient.Classify(err) == apiclient.KindSessionExpired {
		redirectSuccess(w, r, s.guard.LoginLocation(r.URL.Path))
		return
	}

	data.Fields = auth.FieldErrors(err)
	data.Error = auth.RootError(err)
	if apiclient.Classify(err) != apiclient.KindAPI {
		s.logger.Debug().Err(err).Str("page", name).Msg("form rejected")
	}
	s.render(w, http.StatusUnprocessableEntity, name, data)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
