package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app-wide configuration. It is loaded once at start-up.
var Conf *Config

type Config struct {
	AppName  string
	Env      string // DEV (local; default), TEST, QA, PROD
	Debug    bool
	TestMode bool
	Build    string

	SecretKey       string
	FrontendBaseURL string
	WorkDir         string

	DefaultFromEmail mail.Address
	SendgridApiKey   string
	RollbarToken     string

	JWTExpirationDelta        time.Duration
	JWTRefreshExpirationDelta time.Duration

	Server struct {
		Host string
		Addr string
	}

	Database struct {
		URI  string
		Name string
	}

	Uploads struct {
		Dir     string
		BaseURL string
	}
}

func init() {
	Conf = loadConfig()
}

func loadConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Tantsukool")
	v.SetDefault("secretKey", "gb2(x!0u^t+r3l$dz&4#yh2(h!x)#*c7(#yg4h^$cewm9emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("databaseURI", "mongodb://localhost:27017")
	v.SetDefault("databaseName", "tantsukool")
	v.SetDefault("uploadsDir", "uploads")
	v.SetDefault("uploadsBaseURL", "http://localhost:8000/uploads")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		WorkDir:         wd,
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Database.URI = v.GetString("databaseURI")
	conf.Database.Name = v.GetString("databaseName")
	conf.Uploads.Dir = v.GetString("uploadsDir")
	conf.Uploads.BaseURL = v.GetString("uploadsBaseURL")
	return conf
}
