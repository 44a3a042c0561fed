package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port           int      `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type VerificationConfig struct {
	TokenTTL      string `yaml:"token_ttl"`
	ResetTokenTTL string `yaml:"reset_token_ttl"`
}

type OTPConfig struct {
	TTL          string `yaml:"ttl"`
	Length       int    `yaml:"length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	ResendWindow string `yaml:"resend_window"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type MailConfig struct {
	Host       string `yaml:"host"`
	Name       string `yaml:"name"`
	Address    string `yaml:"address"`
	SkipVerify bool   `yaml:"skip_verify"`
	PublicURL  string `yaml:"public_url"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type RealtimeConfig struct {
	ReadLimit int64 `yaml:"read_limit"`
}

type ConfigFile struct {
	App          AppConfig          `yaml:"app"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	JWT          JWTConfig          `yaml:"jwt"`
	Verification VerificationConfig `yaml:"verification"`
	OTP          OTPConfig          `yaml:"otp"`
	Twilio       TwilioConfig       `yaml:"twilio"`
	Mail         MailConfig         `yaml:"mail"`
	Casbin       CasbinConfig       `yaml:"casbin"`
	Realtime     RealtimeConfig     `yaml:"realtime"`
}

// Config is the fully parsed process configuration. It is built once at
// startup and passed explicitly into every constructor that needs it; no
// component reads the environment on its own.
type Config struct {
	Port             string
	GinMode          string
	AllowedOrigins   []string
	DSN              string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	JWTSecret        string
	JWTIssuer        string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	VerifyTokenTTL   time.Duration
	ResetTokenTTL    time.Duration
	OTP_TTL          time.Duration
	OTP_Length       int
	OTP_MaxAttempts  int
	OTP_ResendWindow time.Duration
	TwilioSID        string
	TwilioToken      string
	TwilioFrom       string
	MailHost         string
	MailName         string
	MailAddress      string
	MailSkipVerify   bool
	PublicURL        string
	CasbinModelPath  string
	WSReadLimit      int64
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	configFile, err := loadConfigFile(env("CONFIG_PATH", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	accTTL, err := time.ParseDuration(configFile.JWT.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}

	refTTL, err := time.ParseDuration(configFile.JWT.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT refresh TTL: %w", err)
	}

	verTTL, err := time.ParseDuration(configFile.Verification.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid verification token TTL: %w", err)
	}

	rstTTL, err := time.ParseDuration(configFile.Verification.ResetTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid reset token TTL: %w", err)
	}

	otpTTL, err := time.ParseDuration(configFile.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	resWnd, err := time.ParseDuration(configFile.OTP.ResendWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP resend window: %w", err)
	}

	secret := env("JWT_SECRET", configFile.JWT.Secret)
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	readLimit := configFile.Realtime.ReadLimit
	if readLimit == 0 {
		readLimit = 4096
	}

	origins := configFile.App.AllowedOrigins
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	return &Config{
		Port:             fmt.Sprintf("%d", configFile.App.Port),
		GinMode:          configFile.App.GinMode,
		AllowedOrigins:   origins,
		DSN:              env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:        env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:    env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:          configFile.Redis.DB,
		JWTSecret:        secret,
		JWTIssuer:        configFile.JWT.Issuer,
		AccessTTL:        accTTL,
		RefreshTTL:       refTTL,
		VerifyTokenTTL:   verTTL,
		ResetTokenTTL:    rstTTL,
		OTP_TTL:          otpTTL,
		OTP_Length:       configFile.OTP.Length,
		OTP_MaxAttempts:  configFile.OTP.MaxAttempts,
		OTP_ResendWindow: resWnd,
		TwilioSID:        env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:      env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:       configFile.Twilio.FromNumber,
		MailHost:         env("MAIL_HOST", configFile.Mail.Host),
		MailName:         configFile.Mail.Name,
		MailAddress:      configFile.Mail.Address,
		MailSkipVerify:   configFile.Mail.SkipVerify,
		PublicURL:        configFile.Mail.PublicURL,
		CasbinModelPath:  configFile.Casbin.ModelPath,
		WSReadLimit:      readLimit,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
