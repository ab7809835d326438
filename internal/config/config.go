package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and a missing value halts startup; collaborator settings (SMTP, push
// gateway) are optional so the server can run without those services in
// development.
type Config struct {
	Env            string // application environment ("dev", "test", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	WebhookSecret  string // shared secret guarding the database webhook relay
	AppURL         string // public base URL used in password reset links
	SMTPHost       string // SMTP relay host (optional)
	SMTPPort       int    // SMTP relay port
	SMTPUser       string // SMTP username (optional)
	SMTPPass       string // SMTP password (optional)
	SMTPFrom       string // From address on outbound mail
	PushGatewayURL string // push gateway base URL (optional)
	PushServerKey  string // push gateway server key (optional)
}

// Load reads configuration values from environment variables and
// returns a Config.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		WebhookSecret:  must("WEBHOOK_SECRET"),
		AppURL:         envStr("APP_URL", "http://localhost:3000"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       envInt("SMTP_PORT", 465),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		SMTPFrom:       envStr("SMTP_FROM", "no-reply@qnow.app"),
		PushGatewayURL: os.Getenv("PUSH_GATEWAY_URL"),
		PushServerKey:  os.Getenv("PUSH_SERVER_KEY"),
	}
}

// Prod reports whether the service runs in production mode, in which
// case internal error detail is suppressed from responses.
func (c Config) Prod() bool { return c.Env == "prod" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
