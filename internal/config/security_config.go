package config

type SecurityConfig interface {
	GetSecureCookies() bool
	GetConnectSources() []string
	GetStyleSources() []string
	GetFontSources() []string
}

type Security struct {
	SecureCookies  bool     `yaml:"secure_cookies" env:"SECURE_COOKIES" env-default:"true"`
	ConnectSources []string `yaml:"connect_sources" env:"CSP_CONNECT_SOURCES" env-separator:","`
	StyleSources   []string `yaml:"style_sources" env:"CSP_STYLE_SOURCES" env-separator:"," env-default:"https://fonts.googleapis.com"`
	FontSources    []string `yaml:"font_sources" env:"CSP_FONT_SOURCES" env-separator:"," env-default:"https://fonts.gstatic.com"`
}

var _ SecurityConfig = Security{}

// GetSecureCookies reports whether cookies carry the Secure attribute.
// Only local development over plain http should turn this off.
func (s Security) GetSecureCookies() bool {
	return s.SecureCookies
}

func (s Security) GetConnectSources() []string {
	return s.ConnectSources
}

func (s Security) GetStyleSources() []string {
	return s.StyleSources
}

func (s Security) GetFontSources() []string {
	return s.FontSources
}
