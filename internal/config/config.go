package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ScrapeConfig contains general page fetching configuration
type ScrapeConfig struct {
	UserAgent      string `yaml:"user_agent"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	SizeLimitBytes int    `yaml:"size_limit_bytes"`
	MaxRetries     int    `yaml:"max_retries"`
	ChromeMajor    int    `yaml:"chrome_major"`
}

// RelayConfig describes one CORS relay. Template carries {url} or {url_encoded}.
type RelayConfig struct {
	Name     string            `yaml:"name"`
	Template string            `yaml:"template"`
	Headers  map[string]string `yaml:"headers"`
}

// StrategyConfig holds the retrieval chain timeouts and relays
type StrategyConfig struct {
	DirectTimeout time.Duration `yaml:"direct_timeout"`
	RelayTimeout  time.Duration `yaml:"relay_timeout"`
	ScriptTimeout time.Duration `yaml:"script_timeout"`
	Relays        []RelayConfig `yaml:"relays"`
}

// BrowserConfig holds the rendered acquisition settings
type BrowserConfig struct {
	ChromePath        string        `yaml:"chrome_path"`
	WindowWidth       int           `yaml:"window_width"`
	WindowHeight      int           `yaml:"window_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	NetworkIdle       time.Duration `yaml:"network_idle"`
	MaxInflight       int           `yaml:"max_inflight"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	ScrollStep        int           `yaml:"scroll_step"`
	ScrollInterval    time.Duration `yaml:"scroll_interval"`
	PostScrollDelay   time.Duration `yaml:"post_scroll_delay"`
	BlockedDomains    []string      `yaml:"blocked_domains"`
}

// SizeConfig holds the size resolver settings
type SizeConfig struct {
	HeadTimeout         time.Duration `yaml:"head_timeout"`
	RelayHeadTimeout    time.Duration `yaml:"relay_head_timeout"`
	ProbeTimeout        time.Duration `yaml:"probe_timeout"`
	ProbeLimitBytes     int64         `yaml:"probe_limit_bytes"`
	HeadRelays          int           `yaml:"head_relays"`
	MaxConcurrentImages int           `yaml:"max_concurrent_images"`
	MaxConcurrentRelays int           `yaml:"max_concurrent_relays"`
	TransformTemplate   string        `yaml:"transform_template"`
}

// EstimationConfig holds the bytes-per-pixel heuristics used when no length is reported
type EstimationConfig struct {
	BytesPerPixel        map[string]float64 `yaml:"bytes_per_pixel"`
	DefaultBytesPerPixel float64            `yaml:"default_bytes_per_pixel"`
	OptimizedFormat      string             `yaml:"optimized_format"`
	VectorLabel          string             `yaml:"vector_label"`
}

// ServerConfig holds the HTTP surface settings
type ServerConfig struct {
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Config is the full application configuration
type Config struct {
	Scrape     ScrapeConfig     `yaml:"scrape"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Browser    BrowserConfig    `yaml:"browser"`
	Size       SizeConfig       `yaml:"size"`
	Estimation EstimationConfig `yaml:"estimation"`
	Server     ServerConfig     `yaml:"server"`
}

// DefaultScrapeConfig returns the default scraping configuration
func DefaultScrapeConfig() ScrapeConfig {
	chromeMajor := 120
	if env := os.Getenv("CHROME_MAJOR"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil {
			chromeMajor = parsed
		}
	}

	userAgent := os.Getenv("SCRAPE_USER_AGENT")
	if userAgent == "" {
		userAgent = fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", chromeMajor)
	}

	return ScrapeConfig{
		UserAgent:      userAgent,
		TimeoutMs:      15000,
		SizeLimitBytes: 6_000_000,
		MaxRetries:     2,
		ChromeMajor:    chromeMajor,
	}
}

// DefaultRelays returns the relays in chain order: A, B, C
func DefaultRelays() []RelayConfig {
	return []RelayConfig{
		{Name: "relay-allorigins", Template: "https://api.allorigins.win/raw?url={url_encoded}"},
		{
			Name:     "relay-cors-anywhere",
			Template: "https://cors-anywhere.herokuapp.com/{url}",
			Headers:  map[string]string{"X-Requested-With": "XMLHttpRequest"},
		},
		{Name: "relay-bridged", Template: "https://cors.bridged.cc/{url}"},
	}
}

// DefaultBlockedDomains lists ad and tracker hosts blocked in the browser
func DefaultBlockedDomains() []string {
	return []string{
		"doubleclick",
		"googlesyndication",
		"google-analytics",
		"facebook.com/tr",
		"taboola",
		"outbrain",
		"scorecardresearch",
		"chartbeat",
		"amazon-adsystem",
	}
}

// Default returns the complete default configuration
func Default() *Config {
	return &Config{
		Scrape: DefaultScrapeConfig(),
		Strategy: StrategyConfig{
			DirectTimeout: 10 * time.Second,
			RelayTimeout:  15 * time.Second,
			ScriptTimeout: 5 * time.Second,
			Relays:        DefaultRelays(),
		},
		Browser: BrowserConfig{
			ChromePath:        os.Getenv("CHROME_PATH"),
			WindowWidth:       1920,
			WindowHeight:      1080,
			NavigationTimeout: 30 * time.Second,
			NetworkIdle:       500 * time.Millisecond,
			MaxInflight:       2,
			SettleDelay:       3 * time.Second,
			ScrollStep:        100,
			ScrollInterval:    100 * time.Millisecond,
			PostScrollDelay:   2 * time.Second,
			BlockedDomains:    DefaultBlockedDomains(),
		},
		Size: SizeConfig{
			HeadTimeout:         5 * time.Second,
			RelayHeadTimeout:    8 * time.Second,
			ProbeTimeout:        5 * time.Second,
			ProbeLimitBytes:     512 * 1024,
			HeadRelays:          2,
			MaxConcurrentImages: 6,
			MaxConcurrentRelays: 4,
			TransformTemplate:   "https://res.cloudinary.com/shirly/image/fetch/w_800,q_auto,f_auto/{url_encoded}",
		},
		Estimation: EstimationConfig{
			BytesPerPixel: map[string]float64{
				"JPEG": 0.5,
				"PNG":  4,
				"WebP": 0.4,
				"GIF":  1,
			},
			DefaultBytesPerPixel: 3,
			OptimizedFormat:      "WebP",
			VectorLabel:          "~10-50 KB",
		},
		Server: ServerConfig{
			Port:      3000,
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// An empty path falls back to IMAGESCAN_CONFIG.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("IMAGESCAN_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Server.LogFormat = v
	}
	if v := os.Getenv("SCRAPE_USER_AGENT"); v != "" {
		cfg.Scrape.UserAgent = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Browser.ChromePath = v
	}
	if v := os.Getenv("TRANSFORM_TEMPLATE"); v != "" {
		cfg.Size.TransformTemplate = v
	}
	if v := os.Getenv("MAX_CONCURRENT_IMAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Size.MaxConcurrentImages = n
		}
	}
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Size.MaxConcurrentImages < 1 {
		return fmt.Errorf("max_concurrent_images must be at least 1, got %d", c.Size.MaxConcurrentImages)
	}
	if c.Size.MaxConcurrentRelays < 1 {
		return fmt.Errorf("max_concurrent_relays must be at least 1, got %d", c.Size.MaxConcurrentRelays)
	}
	for _, relay := range c.Strategy.Relays {
		if !strings.Contains(relay.Template, "{url}") && !strings.Contains(relay.Template, "{url_encoded}") {
			return fmt.Errorf("relay %q template has no {url} placeholder", relay.Name)
		}
	}
	if c.Estimation.DefaultBytesPerPixel <= 0 {
		return fmt.Errorf("default_bytes_per_pixel must be positive")
	}
	return nil
}

// CompileRegexes pre-compiles regex patterns for better performance
func CompileRegexes() map[string]*regexp.Regexp {
	return map[string]*regexp.Regexp{
		"cssImageURL": regexp.MustCompile(`(?i)url\([^)]+\.(jpg|jpeg|png|gif|webp|svg|bmp|ico)[^)]*\)`),
		"cssURLValue": regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`),
		"srcsetFirst": regexp.MustCompile(`^([^\s,]+)`),
		"sizeString":  regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*(bytes|kb|mb|gb)\b`),
		"cfBlock":     regexp.MustCompile(`(attention required|cloudflare ray id|what can i do to resolve this\?|why have i been blocked\?|performance & security by cloudflare|checking your browser before accessing)`),
	}
}
