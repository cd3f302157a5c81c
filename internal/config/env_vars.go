package config

import "strings"

type EnvVars struct {
	Port       string `yaml:"port" env:"PORT" env-default:"8080"`
	AppName    string `yaml:"app_name" env:"APP_NAME" env-default:"Go Auth Console"`
	DataFolder string `yaml:"folder" env:"FOLDER" env-default:"./data"`
	APIBaseURL string `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:4000"`
	Env        string `yaml:"env" env:"ENV" env-default:"DEV"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

// GetAPIBaseURL returns the backend API root without a trailing slash
func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.APIBaseURL, "/")
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}
