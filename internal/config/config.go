// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration for a verification run.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Target  TargetConfig  `mapstructure:"target" yaml:"target"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Crawl   CrawlConfig   `mapstructure:"crawl" yaml:"crawl"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Routes  RoutesConfig  `mapstructure:"routes" yaml:"routes"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// TargetConfig identifies the deployment under test.
type TargetConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	DevEmail string `mapstructure:"dev_email" yaml:"dev_email"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless       bool `mapstructure:"headless" yaml:"headless"`
	ViewportWidth  int  `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int  `mapstructure:"viewport_height" yaml:"viewport_height"`
	// SlowMoMs inserts an artificial delay before each navigation so a
	// human can follow along in headed mode.
	SlowMoMs int `mapstructure:"slow_mo_ms" yaml:"slow_mo_ms"`
}

// CrawlConfig tunes the traversal and per-page evaluation.
type CrawlConfig struct {
	// MaxPages bounds the traversal against cyclic or unbounded link graphs.
	MaxPages          int           `mapstructure:"max_pages" yaml:"max_pages"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// SettleWait is the fixed post-load delay that lets client-side
	// rendering finish before the page is inspected.
	SettleWait time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	AuthWait   time.Duration `mapstructure:"auth_wait" yaml:"auth_wait"`
}

// OutputConfig controls where run artifacts land.
type OutputConfig struct {
	// Dir receives screenshots and the JSON report.
	Dir        string `mapstructure:"dir" yaml:"dir"`
	ReportFile string `mapstructure:"report_file" yaml:"report_file"`
}

// DynamicRouteConfig describes one category of detail pages whose URLs
// can only be learned by visiting the category's list page.
type DynamicRouteConfig struct {
	// ListPath is the list page to harvest from, e.g. "/privacy/dsar".
	ListPath string `mapstructure:"list_path" yaml:"list_path"`
	// LinkPrefix selects candidate detail links, e.g. "/privacy/dsar/".
	LinkPrefix string `mapstructure:"link_prefix" yaml:"link_prefix"`
	// Exclude drops static sub-routes that also match the prefix.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
	// Limit caps how many detail links are taken per category.
	Limit int `mapstructure:"limit" yaml:"limit"`
}

// RoutesConfig enumerates the seed routes of the application.
type RoutesConfig struct {
	// Public routes need no session and are tested before authentication.
	Public []string `mapstructure:"public" yaml:"public"`
	// Static routes are the known authenticated pages.
	Static []string `mapstructure:"static" yaml:"static"`
	// Dynamic categories are harvested from their list pages.
	Dynamic []DynamicRouteConfig `mapstructure:"dynamic" yaml:"dynamic"`
}

// SetDefaults initializes default values mirroring the reference deployment.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "verify-cli")
	v.SetDefault("logger.log_file", "verify.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Target --
	v.SetDefault("target.base_url", "http://localhost:3001")
	v.SetDefault("target.dev_email", "demo@privacysuite.example")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.slow_mo_ms", 0)

	// -- Crawl --
	v.SetDefault("crawl.max_pages", 100)
	v.SetDefault("crawl.navigation_timeout", "30s")
	v.SetDefault("crawl.settle_wait", "500ms")
	v.SetDefault("crawl.auth_wait", "2s")

	// -- Output --
	v.SetDefault("output.dir", "/tmp/privacy-suite-verification")
	v.SetDefault("output.report_file", "report.json")

	// -- Routes --
	v.SetDefault("routes.public", []string{
		"/sign-in",
		"/dsar/demo",
	})
	v.SetDefault("routes.static", []string{
		"/privacy",
		"/privacy/data-inventory",
		"/privacy/data-inventory/new",
		"/privacy/data-inventory/processing-activities",
		"/privacy/dsar",
		"/privacy/dsar/settings",
		"/privacy/assessments",
		"/privacy/assessments/new",
		"/privacy/assessments/templates",
		"/privacy/incidents",
		"/privacy/incidents/new",
		"/privacy/vendors",
		"/privacy/vendors/new",
		"/privacy/vendors/questionnaires",
	})
}

// DefaultDynamicRoutes returns the detail-page categories of the
// reference deployment. Viper cannot default a slice of structs, so the
// fallback lives here and is applied after unmarshalling.
func DefaultDynamicRoutes() []DynamicRouteConfig {
	return []DynamicRouteConfig{
		{ListPath: "/privacy/data-inventory", LinkPrefix: "/privacy/data-inventory/", Exclude: []string{"/new", "/processing"}, Limit: 2},
		{ListPath: "/privacy/dsar", LinkPrefix: "/privacy/dsar/", Exclude: []string{"/settings"}, Limit: 2},
		{ListPath: "/privacy/assessments", LinkPrefix: "/privacy/assessments/", Exclude: []string{"/new", "/templates"}, Limit: 2},
		{ListPath: "/privacy/incidents", LinkPrefix: "/privacy/incidents/", Exclude: []string{"/new"}, Limit: 2},
		{ListPath: "/privacy/vendors", LinkPrefix: "/privacy/vendors/", Exclude: []string{"/new", "/questionnaires"}, Limit: 2},
	}
}

// New unmarshals a configuration from the given viper instance and
// validates it.
func New(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if len(cfg.Routes.Dynamic) == 0 {
		cfg.Routes.Dynamic = DefaultDynamicRoutes()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target.base_url must be an absolute http(s) URL, got %q", c.Target.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target.base_url has unsupported scheme %q", u.Scheme)
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be a positive integer")
	}
	if c.Crawl.NavigationTimeout <= 0 {
		return fmt.Errorf("crawl.navigation_timeout must be a positive duration")
	}
	if c.Browser.SlowMoMs < 0 {
		return fmt.Errorf("browser.slow_mo_ms must not be negative")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	for i, d := range c.Routes.Dynamic {
		if d.ListPath == "" || d.LinkPrefix == "" {
			return fmt.Errorf("routes.dynamic[%d]: list_path and link_prefix are required", i)
		}
		if d.Limit <= 0 {
			return fmt.Errorf("routes.dynamic[%d]: limit must be a positive integer", i)
		}
	}
	return nil
}
