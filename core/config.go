package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Document store engines
const (
	StoreMemory   = "memory"
	StoreFirebase = "firebase"
	StorePostgres = "postgres"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		AppName          string
		SecretKey        string
		DefaultFromEmail mail.Address
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string

		Server    ServerConfig
		Store     StoreConfig
		Database  DatabaseConfig
		Bootstrap BootstrapConfig
		Report    ReportConfig
		Sessions  SessionsConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StoreConfig struct {
		Engine         string
		FirebaseURL    string
		FirebaseAuth   string
		RequestTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// BootstrapConfig holds the credentials accepted for the very first admin login,
	// when no admin account exists yet.
	BootstrapConfig struct {
		AdminUsername string
		AdminPassword string
		AdminName     string
	}

	ReportConfig struct {
		Institution string
		Department  string
		LogoPath    string
	}

	SessionsConfig struct {
		IdleTimeout   time.Duration
		PruneInterval time.Duration
	}
)

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + strconv.Itoa(db.Port)
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("secretKey", "w8r$+2mz&q!h0c4^x7b(dj#e5u=ky9fp)lt3gvn6s*a1")
	v.SetDefault("defaultFromEmail", "Mahudhurio <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":8010")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("store.engine", StoreMemory)
	v.SetDefault("store.firebaseURL", "")
	v.SetDefault("store.firebaseAuth", "")
	v.SetDefault("store.requestTimeout", 10*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mahudhurio")
	v.SetDefault("database.user", "mahudhurio")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("bootstrap.adminUsername", "")
	v.SetDefault("bootstrap.adminPassword", "")
	v.SetDefault("bootstrap.adminName", "System Administrator")

	v.SetDefault("report.institution", "")
	v.SetDefault("report.department", "")
	v.SetDefault("report.logoPath", "")

	v.SetDefault("sessions.idleTimeout", 6*time.Hour)
	v.SetDefault("sessions.pruneInterval", 10*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	dotEnvPath := filepath.Join(configDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: *fromEmail,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ReadTimeout:               v.GetDuration("server.readTimeout"),
			WriteTimeout:              v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Store: StoreConfig{
			Engine:         strings.ToLower(v.GetString("store.engine")),
			FirebaseURL:    strings.TrimRight(v.GetString("store.firebaseURL"), "/"),
			FirebaseAuth:   v.GetString("store.firebaseAuth"),
			RequestTimeout: v.GetDuration("store.requestTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: v.GetString("bootstrap.adminUsername"),
			AdminPassword: v.GetString("bootstrap.adminPassword"),
			AdminName:     v.GetString("bootstrap.adminName"),
		},
		Report: ReportConfig{
			Institution: v.GetString("report.institution"),
			Department:  v.GetString("report.department"),
			LogoPath:    v.GetString("report.logoPath"),
		},
		Sessions: SessionsConfig{
			IdleTimeout:   v.GetDuration("sessions.idleTimeout"),
			PruneInterval: v.GetDuration("sessions.pruneInterval"),
		},
	}
}
