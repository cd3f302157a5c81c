package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/users"
)

const msgBadForm = "The form could not be read. Please try again."

func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s.render(w, http.StatusOK, pageLogin, PageData{
			Redirect: q.Get(paramRedirect),
			Notice:   loginNotices[q.Get(paramMessage)],
			Error:    q.Get(paramError),
		})
	}
}

func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.render(w, http.StatusBadRequest, pageLogin, PageData{Error: msgBadForm})
			return
		}

		req := auth.LoginRequest{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
		redirect := r.PostFormValue(paramRedirect)

		ws, err := s.workspace(w, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		if _, err := ws.Auth.Login(r.Context(), req); err != nil {
			s.renderFormError(w, r, pageLogin, PageData{
				Form:     map[string]string{auth.FieldEmail: req.Email},
				Redirect: redirect,
			}, err)
			return
		}

		redirectSuccess(w, r, localRedirect(redirect, RouteDashboard))
	}
}

func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles := s.roles(w, r)
		form := map[string]string{}
		if client, ok := users.FindRoleByName(roles, users.RoleClient); ok {
			form[auth.FieldRole] = client.ID
		}
		s.render(w, http.StatusOK, pageRegister, PageData{Roles: roles, Form: form})
	}
}

func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.render(w, http.StatusBadRequest, pageRegister, PageData{Error: msgBadForm, Roles: s.roles(w, r)})
			return
		}

		req := auth.RegisterRequest{
			FirstName:       r.PostFormValue(auth.FieldFirstName),
			LastName:        r.PostFormValue(auth.FieldLastName),
			Email:           r.PostFormValue(auth.FieldEmail),
			Phone:           strings.TrimSpace(r.PostFormValue(auth.FieldPhone)),
			Password:        r.PostFormValue(auth.FieldPassword),
			ConfirmPassword: r.PostFormValue(auth.FieldConfirmPassword),
			RoleID:          r.PostFormValue(auth.FieldRole),
		}

		ws, err := s.workspace(w, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		next, err := ws.Auth.Register(r.Context(), req)
		if err != nil {
			s.renderFormError(w, r, pageRegister, PageData{
				Roles: s.roles(w, r),
				Form: map[string]string{
					auth.FieldFirstName: req.FirstName,
					auth.FieldLastName:  req.LastName,
					auth.FieldEmail:     req.Email,
					auth.FieldPhone:     req.Phone,
					auth.FieldRole:      req.RoleID,
				},
			}, err)
			return
		}

		redirectSuccess(w, r, next)
	}
}

func (s *Server) ForgotPasswordGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, pageForgotPassword, PageData{Error: r.URL.Query().Get(paramError)})
	}
}

func (s *Server) ForgotPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.render(w, http.StatusBadRequest, pageForgotPassword, PageData{Error: msgBadForm})
			return
		}
		email := r.PostFormValue(auth.FieldEmail)

		ws, err := s.workspace(w, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		if err := ws.Auth.RequestPasswordReset(r.Context(), email); err != nil {
			s.renderFormError(w, r, pageForgotPassword, PageData{
				Form: map[string]string{auth.FieldEmail: email},
			}, err)
			return
		}

		s.render(w, http.StatusOK, pageForgotPassword, PageData{
			Notice: "If an account exists for that email, a reset link is on its way.",
		})
	}
}

func (s *Server) ResetPasswordGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get(paramToken)
		if token == "" {
			redirectWithError(w, r, RouteForgotPassword, "The reset link is missing its token. Please request a new one.")
			return
		}
		s.render(w, http.StatusOK, pageResetPassword, PageData{Token: token})
	}
}

func (s *Server) ResetPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.render(w, http.StatusBadRequest, pageResetPassword, PageData{Error: msgBadForm})
			return
		}

		req := auth.ResetPasswordRequest{
			Token:                r.PostFormValue(auth.FieldToken),
			Password:             r.PostFormValue(auth.FieldPassword),
			PasswordConfirmation: r.PostFormValue(auth.FieldPasswordConfirmation),
		}

		ws, err := s.workspace(w, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		next, err := ws.Auth.ResetPassword(r.Context(), req)
		if err != nil {
			s.renderFormError(w, r, pageResetPassword, PageData{Token: req.Token}, err)
			return
		}

		redirectSuccess(w, r, next)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := s.existingWorkspace(r)
		if !ok {
			redirectSuccess(w, r, auth.NavLanding)
			return
		}
		redirectSuccess(w, r, ws.Auth.Logout(r.Context()))
	}
}

// roles loads the role list for the register form. A failure leaves the
// select empty and the submission is refused.
func (s *Server) roles(w http.ResponseWriter, r *http.Request) []users.Role {
	ws, err := s.workspace(w, r)
	if err != nil {
		s.logger.Err(err).Msg("roles: no workspace")
		return nil
	}
	roles, err := ws.Auth.Roles(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("roles unavailable")
		return nil
	}
	return roles
}
