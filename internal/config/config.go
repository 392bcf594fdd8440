package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"golang.org/x/oauth2/google"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are believed. Empty means the peer address is the client.
	TrustedProxies []string
}

type StoreConfig struct {
	Driver string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Argon2Config struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

type SecurityConfig struct {
	JWTSecret   string
	JWTTTL      time.Duration
	StateSecret string
	SessionTTL  time.Duration
	Argon2      Argon2Config
}

type GoogleConfig struct {
	ClientID           string
	ClientSecret       string
	DefaultRedirectURI string
	PublicOrigin       string
	TunnelOrigin       string
	DevOrigins         []string
	TunnelSuffixes     []string
	DefaultFrontendURL string
	HTTPTimeout        time.Duration
	AuthURL            string
	TokenURL           string
	UserInfoURL        string
	JWKSURL            string
	JWKSRefresh        string
}

type RateLimitConfig struct {
	RegisterMax int
	LoginMax    int
	Window      time.Duration
}

type ProfileConfig struct {
	MaxNameLength int
}

type EventsConfig struct {
	Driver  string
	Stream  string
	Brokers []string
	Topic   string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Store            StoreConfig
	Postgres         PostgresConfig
	Mongo            MongoConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Google           GoogleConfig
	RateLimit        RateLimitConfig
	Profile          ProfileConfig
	Events           EventsConfig
	AllowCORSOrigins []string
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

func (c *AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		errs = append(errs, errors.New("security.jwtsecret is required"))
	}
	if c.Security.SessionTTL <= 0 {
		errs = append(errs, errors.New("security.sessionttl must be positive"))
	}
	if c.Security.JWTTTL <= 0 {
		errs = append(errs, errors.New("security.jwtttl must be positive"))
	}
	switch c.Store.Driver {
	case "postgres", "mongo", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	switch c.Events.Driver {
	case "none", "redis", "kafka":
	default:
		errs = append(errs, fmt.Errorf("unknown events driver %q", c.Events.Driver))
	}
	return errors.Join(errs...)
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("AUTHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvironmentDevelopment)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.trustedproxies", []string{})

	v.SetDefault("store.driver", "postgres")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", true)

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "authgate")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.jwtttl", "168h")
	v.SetDefault("security.statesecret", "")
	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.argon2.time", 3)
	v.SetDefault("security.argon2.memory", 64*1024)
	v.SetDefault("security.argon2.threads", 2)

	v.SetDefault("google.clientid", "")
	v.SetDefault("google.clientsecret", "")
	v.SetDefault("google.defaultredirecturi", "http://localhost:8080/api/auth/google/callback")
	v.SetDefault("google.publicorigin", "http://localhost:8080")
	v.SetDefault("google.tunnelorigin", "")
	v.SetDefault("google.devorigins", []string{
		"http://localhost:3000",
		"https://localhost:3000",
		"http://127.0.0.1:3000",
		"https://127.0.0.1:3000",
	})
	v.SetDefault("google.tunnelsuffixes", []string{".ngrok-free.app", ".ngrok.io"})
	v.SetDefault("google.defaultfrontendurl", "http://localhost:3000")
	v.SetDefault("google.httptimeout", "10s")
	v.SetDefault("google.authurl", google.Endpoint.AuthURL)
	v.SetDefault("google.tokenurl", google.Endpoint.TokenURL)
	v.SetDefault("google.userinfourl", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("google.jwksurl", "https://www.googleapis.com/oauth2/v3/certs")
	v.SetDefault("google.jwksrefresh", "0 0 */1 * * *") // hourly

	v.SetDefault("ratelimit.registermax", 10)
	v.SetDefault("ratelimit.loginmax", 5)
	v.SetDefault("ratelimit.window", "1m")

	v.SetDefault("profile.maxnamelength", 100)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.stream", "auth:events")
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "auth-events")

	v.SetDefault("allowcorsorigins", []string{})
}
