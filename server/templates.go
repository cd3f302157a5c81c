package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/users"
)

//go:embed templates/*
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// FileServerHandler serves the embedded static directory under /static/
func FileServerHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create static sub filesystem: " + err.Error())
	}
	return http.StripPrefix(RouteStatic, http.FileServer(http.FS(sub)))
}

// Page names, one template file each, rendered inside layout.html
const (
	pageLanding        = "landing"
	pageLogin          = "login"
	pageRegister       = "register"
	pageForgotPassword = "forgot_password"
	pageResetPassword  = "reset_password"
	pageDashboard      = "dashboard"
)

var pageTitles = map[string]string{
	pageLanding:        "Welcome",
	pageLogin:          "Sign in",
	pageRegister:       "Create account",
	pageForgotPassword: "Forgot password",
	pageResetPassword:  "Reset password",
	pageDashboard:      "Dashboard",
}

// Notices shown on the login page for ?message= codes
var loginNotices = map[string]string{
	auth.RegistrationSuccessCode: "Your account has been created. Please sign in.",
	auth.PasswordResetCode:       "Your password has been reset. Please sign in with your new password.",
}

type page struct {
	title string
	tmpl  *template.Template
}

// PageData is the view model shared by every page
type PageData struct {
	AppName  string
	Title    string
	User     *users.UserSummary
	Error    string
	Notice   string
	Fields   map[string]string // field name -> message
	Form     map[string]string // submitted values to re-fill
	Redirect string
	Token    string
	Roles    []users.Role
	Profile  *users.User
}

func parsePages() (map[string]*page, error) {
	pages := make(map[string]*page, len(pageTitles))
	for name, title := range pageTitles {
		tmpl, err := template.ParseFS(templateFiles, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("[server parsePages] %s: %w", name, err)
		}
		pages[name] = &page{title: title, tmpl: tmpl}
	}
	return pages, nil
}

// render writes the page inside the layout. Output is buffered so a
// template error never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data PageData) {
	p, ok := s.pages[name]
	if !ok {
		s.logger.Error().Str("page", name).Msg("unknown page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data.AppName = s.config.GetAppName()
	if data.Title == "" {
		data.Title = p.title
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Err(err).Str("page", name).Msg("template execution failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Str("page", name).Msg("client went away")
	}
}
