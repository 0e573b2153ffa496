package csconfig

import (
	"fmt"
	"log/syslog"
	"os"

	"github.com/goccy/go-yaml"
)

type Config struct {
	TrustedProxies  []string        `yaml:"trustedproxies"`
	TrustedPlatform string          `yaml:"trustedplatform"`
	Database        DatabaseConfig  `yaml:"database"`
	StaticPath      string          `yaml:"staticpath"`
	User            UserConfig      `yaml:"user"`
	Production      bool            `yaml:"production"`
	Listen          ListenConfig    `yaml:"listen"`
	Logger          LoggerConfig    `yaml:"logger"`
	Site            SiteConfig      `yaml:"site"`
	Analytics       AnalyticsConfig `yaml:"analytics"`
	RateLimit       RateLimitConfig `yaml:"ratelimit"`
}

type SiteConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"baseurl"`
	Author      string `yaml:"author"`
}

type AnalyticsConfig struct {
	// Gap in minutes after which an incoming event opens a new session.
	SessionTimeoutMinutes int `yaml:"sessiontimeout"`
	// Salt mixed into the SHA-256 of client addresses before storage.
	IPSalt string `yaml:"ipsalt"`
	// Optional MaxMind City database for geolocation fallback.
	GeoIPPath string `yaml:"geoippath"`
	// Page views older than this many days are swept nightly.
	RetentionDays int `yaml:"retentiondays"`
}

type RateLimitConfig struct {
	// Requests allowed per period, per client IP, on lead-capture
	// and login endpoints.
	Requests int64 `yaml:"requests"`
	// Period length in seconds.
	PeriodSeconds int `yaml:"periodseconds"`
}

type LoggerConfig struct {
	Level  string             `yaml:"level"`
	File   LoggerFileConfig   `yaml:"file"`
	Syslog LoggerSyslogConfig `yaml:"syslog"`
}

type LoggerFileConfig struct {
	Enable     bool   `yaml:"enable"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type LoggerSyslogConfig struct {
	Enable   bool            `yaml:"enable"`
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Tag      string          `yaml:"tag"`
	Priority syslog.Priority `yaml:"priority"`
}

type ListenConfig struct {
	Website string `yaml:"website"`
}

type UserConfig struct {
	Login string `yaml:"login"`
	Pass  string `yaml:"pass"`
	Hash  string `yaml:"hash"`
}

type DatabaseConfig struct {
	Redis RedisConfig `yaml:"redis"`
	Db    string      `yaml:"db"`
	Path  string      `yaml:"path"`
	Dsn   string      `yaml:"dsn"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	Db   int    `yaml:"db"`
}

const (
	DefaultSessionTimeoutMinutes = 30
	DefaultRetentionDays         = 90
	DefaultRateLimitRequests     = 5
	DefaultRateLimitPeriod       = 60
)

func CreateExampleConfig(filename string) (string, error) {
	example := &Config{
		Database: DatabaseConfig{
			Db:   "sqlite",
			Path: "./clearsite.db",
		},
		User: UserConfig{
			Login: "admin",
			Pass:  "admin1234",
		},
		StaticPath: "./static",
		Production: false,
		Logger: LoggerConfig{
			Level: "info",
			File: LoggerFileConfig{
				Enable: false,
			},
			Syslog: LoggerSyslogConfig{
				Enable: false,
			},
		},
		Listen: ListenConfig{
			Website: "0.0.0.0:8080",
		},
		Site: SiteConfig{
			Name:        "Clearsite",
			Description: "Business automation consultancy",
			BaseURL:     "http://localhost:8080",
			Author:      "Clearsite Team",
		},
		Analytics: AnalyticsConfig{
			SessionTimeoutMinutes: DefaultSessionTimeoutMinutes,
			IPSalt:                "change-me",
			RetentionDays:         DefaultRetentionDays,
		},
		RateLimit: RateLimitConfig{
			Requests:      DefaultRateLimitRequests,
			PeriodSeconds: DefaultRateLimitPeriod,
		},
	}

	if filename == "/etc/" {
		example.Listen.Website = "127.0.0.1:8000"
		example.Production = true
		example.Database.Path = "/var/lib/clearsite/sqlite.db"
		example.StaticPath = "/var/lib/clearsite/static"
		example.Logger.File = LoggerFileConfig{
			Enable:     true,
			Path:       "/var/log/clearsite/clearsite.log",
			MaxSize:    100,
			MaxBackups: 30,
			MaxAge:     7,
			Compress:   true,
		}
		filename = "/etc/clearsite/config.yaml"
	}

	return filename, WriteConfigYaml(filename, example)
}

func WriteConfigYaml(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

// ApplyDefaults fills zero values with sane defaults after parsing.
func (c *Config) ApplyDefaults() {
	if c.Analytics.SessionTimeoutMinutes <= 0 {
		c.Analytics.SessionTimeoutMinutes = DefaultSessionTimeoutMinutes
	}
	if c.Analytics.RetentionDays <= 0 {
		c.Analytics.RetentionDays = DefaultRetentionDays
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = DefaultRateLimitRequests
	}
	if c.RateLimit.PeriodSeconds <= 0 {
		c.RateLimit.PeriodSeconds = DefaultRateLimitPeriod
	}
	if c.Site.Name == "" {
		c.Site.Name = "Clearsite"
	}
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %v", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("YAML parse error: %v", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

func CreateExample(shouldCreateExample bool, configFile string) {
	// Handle example creation
	if shouldCreateExample {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}

	_, err := os.Stat(configFile)
	if err != nil && os.IsNotExist(err) {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

	}
}

func handleExampleCreation(filename string) error {
	if filename == "" {
		filename = "clearsite.yaml"
	}
	filename, err := CreateExampleConfig(filename)
	if err != nil {
		return fmt.Errorf("example creation failed: %v", err)
	}

	fmt.Printf("✅ Example file created: %s", filename)
	fmt.Println("⚠️  user.pass will be hashed with argon2 into user.hash on first start")
	return nil
}
