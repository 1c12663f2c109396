package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod | test
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr         string        `yaml:"addr"`
		FrontendURL  string        `yaml:"frontend_url"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		// CIDRs o IPs de proxies de confianza (X-Forwarded-For).
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
		Migrate  bool   `yaml:"migrate"` // aplicar migraciones al arrancar
	} `yaml:"storage"`

	State struct {
		Backend         string        `yaml:"backend"` // redis | memory
		TTL             time.Duration `yaml:"ttl"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		Redis           struct {
			URL      string `yaml:"url"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"state"`

	JWT struct {
		Secret     string        `yaml:"secret"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	OAuth struct {
		Google Provider `yaml:"google"`
		Line   Provider `yaml:"line"`
	} `yaml:"oauth"`

	Identity struct {
		AdminConfigPath string `yaml:"admin_config_path"`
	} `yaml:"identity"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`
}

// Provider son las credenciales OAuth de un proveedor.
type Provider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// placeholder que trae el .env.example
const placeholderSecret = "your-secret-key"

// Load lee el YAML en path (opcional si path == ""), aplica defaults,
// overrides por env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":4001"
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:4001"
	}
	c.Server.FrontendURL = strings.TrimRight(c.Server.FrontendURL, "/")
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = 10
	}

	if c.State.Backend == "" {
		if c.State.Redis.URL != "" || c.State.Redis.Addr != "" {
			c.State.Backend = "redis"
		} else {
			c.State.Backend = "memory"
		}
	}
	c.State.Backend = strings.ToLower(c.State.Backend)
	if c.State.TTL == 0 {
		c.State.TTL = 10 * time.Minute
	}
	if c.State.CleanupInterval == 0 {
		c.State.CleanupInterval = 5 * time.Minute
	}

	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 24 * time.Hour
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7 * 24 * time.Hour
	}

	if c.OAuth.Google.CallbackURL == "" {
		c.OAuth.Google.CallbackURL = "http://localhost:4001/api/oauth/google/callback"
	}
	if c.OAuth.Line.CallbackURL == "" {
		c.OAuth.Line.CallbackURL = "http://localhost:4001/api/oauth/line/callback"
	}

	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	} else if v, ok := getEnvStr("PORT"); ok {
		c.Server.Addr = ":" + v
	}
	if v, ok := getEnvStr("TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = strings.Split(v, ",")
	}
	if v, ok := getEnvStr("FRONTEND_URL"); ok {
		c.Server.FrontendURL = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("DB_MIGRATE"); ok {
		c.Storage.Migrate = v
	}

	if v, ok := getEnvStr("STATE_BACKEND"); ok {
		c.State.Backend = v
	}
	if v, ok := getEnvDur("STATE_TTL"); ok {
		c.State.TTL = v
	}
	if v, ok := getEnvDur("STATE_CLEANUP_INTERVAL"); ok {
		c.State.CleanupInterval = v
	}
	if v, ok := getEnvStr("REDIS_URL"); ok {
		c.State.Redis.URL = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.State.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.State.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.State.Redis.DB = v
	}

	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvDur("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	overrideProvider(&c.OAuth.Google, "GOOGLE")
	overrideProvider(&c.OAuth.Line, "LINE")

	if v, ok := getEnvStr("ADMIN_CONFIG_PATH"); ok {
		c.Identity.AdminConfigPath = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
}

func overrideProvider(p *Provider, prefix string) {
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_CALLBACK_URL"); ok {
		p.CallbackURL = v
	}
}

// IsProd indica si app.env es prod o production.
func (c *Config) IsProd() bool {
	e := strings.ToLower(strings.TrimSpace(c.App.Env))
	return e == "prod" || e == "production"
}

func (c *Config) Validate() error {
	var errs []error

	secret := strings.TrimSpace(c.JWT.Secret)
	switch {
	case secret == "":
		errs = append(errs, errors.New("jwt.secret is required (JWT_SECRET)"))
	case secret == placeholderSecret:
		errs = append(errs, errors.New("jwt.secret is still the placeholder value"))
	case c.IsProd() && len(secret) < 32:
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes in prod"))
	}

	if u, err := url.Parse(c.Server.FrontendURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("server.frontend_url %q is not an absolute http(s) URL", c.Server.FrontendURL))
	}

	switch c.State.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("state.backend %q: want redis or memory", c.State.Backend))
	}
	if c.State.TTL < 0 {
		errs = append(errs, errors.New("state.ttl must be positive"))
	}

	if c.IsProd() && strings.TrimSpace(c.Storage.DSN) == "" {
		errs = append(errs, errors.New("storage.dsn is required in prod (DATABASE_URL)"))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests < 1 {
		errs = append(errs, errors.New("rate.max_requests must be >= 1"))
	}
	return errors.Join(errs...)
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

// getEnvDur acepta "10m" o segundos enteros ("600").
func getEnvDur(key string) (time.Duration, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
