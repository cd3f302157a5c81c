package server

import "net/http"

// ANSI escapes for the DEV request log
const (
	Green      = "\033[32m"
	Blue       = "\033[34m"
	Cyan       = "\033[36m"
	Yellow     = "\033[33m"
	Magenta    = "\033[35m"
	Red        = "\033[31m"
	Gray       = "\033[90m"
	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	http.MethodGet:    Green,
	http.MethodPost:   Blue,
	http.MethodPut:    Cyan,
	http.MethodDelete: Yellow,
	http.MethodPatch:  Magenta,
}

// statusColor groups responses by class: redirects stand out from pages
// and errors from both.
func statusColor(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return Red
	case status >= http.StatusBadRequest:
		return Yellow
	case status >= http.StatusMultipleChoices:
		return Cyan
	default:
		return Green
	}
}

func colourise(colour, s string) string {
	return colour + s + ResetColor
}
