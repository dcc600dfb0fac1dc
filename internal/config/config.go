package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Site     SiteConfig     `mapstructure:"site"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text or json
	File       string `mapstructure:"file"`   // empty means stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// FetcherConfig holds HTTP client configuration
type FetcherConfig struct {
	Timeout           int      `mapstructure:"timeout"` // seconds, per request
	MaxRetries        int      `mapstructure:"max_retries"`
	RequestsPerSecond int      `mapstructure:"requests_per_second"` // 0 disables the limiter
	UserAgent         string   `mapstructure:"user_agent"`
	Proxies           []string `mapstructure:"proxies"`
}

// CrawlConfig bounds a single crawl run
type CrawlConfig struct {
	Workers           int `mapstructure:"workers"`
	MaxDepth          int `mapstructure:"max_depth"`
	MaxDrilldownDepth int `mapstructure:"max_drilldown_depth"`
	Deadline          int `mapstructure:"deadline"` // seconds, 0 means no deadline
}

// StorageConfig selects where snapshots are written
type StorageConfig struct {
	Driver    string            `mapstructure:"driver"` // file or postgres
	Directory string            `mapstructure:"directory"`
	Format    string            `mapstructure:"format"` // json or yaml
	Filenames map[string]string `mapstructure:"filenames"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// SiteConfig describes the crawled site and its markup
type SiteConfig struct {
	BaseURL string       `mapstructure:"base_url"`
	Menus   MenuConfig   `mapstructure:"menus"`
	Detail  DetailConfig `mapstructure:"detail"`
}

type MenuConfig struct {
	RootSelector string `mapstructure:"root_selector"`
}

type DetailConfig struct {
	ContainerSelectors []string            `mapstructure:"container_selectors"`
	CurrentTabSelector string              `mapstructure:"current_tab_selector"`
	ContactLabel       string              `mapstructure:"contact_label"`
	Intro              IntroConfig         `mapstructure:"intro"`
	Sections           []SectionConfig     `mapstructure:"sections"`
	SecondaryTabs      SecondaryTabsConfig `mapstructure:"secondary_tabs"`
	Tabs               LinkScopeConfig     `mapstructure:"tabs"`
	InnerTabs          LinkScopeConfig     `mapstructure:"inner_tabs"`
	Contact            ContactConfig       `mapstructure:"contact"`
}

// IntroConfig extracts the block right under the page title. An empty Key
// stores the result under the page's own title.
type IntroConfig struct {
	Key   string       `mapstructure:"key"`
	Rules []RuleConfig `mapstructure:"rules"`
}

// SectionConfig pairs header elements with the block that follows them.
type SectionConfig struct {
	Name      string       `mapstructure:"name"`
	Header    string       `mapstructure:"header"`
	Block     string       `mapstructure:"block"` // empty means the next sibling element
	Drilldown bool         `mapstructure:"drilldown"`
	Rules     []RuleConfig `mapstructure:"rules"`
}

type SecondaryTabsConfig struct {
	Titles   string       `mapstructure:"titles"`
	Contents string       `mapstructure:"contents"`
	Rules    []RuleConfig `mapstructure:"rules"`
}

// LinkScopeConfig limits link discovery to anchors inside Container.
type LinkScopeConfig struct {
	Container string `mapstructure:"container"`
	Link      string `mapstructure:"link"`
}

type ContactConfig struct {
	BlockSelector  string `mapstructure:"block_selector"`
	ItemSelector   string `mapstructure:"item_selector"`
	LabelSelector  string `mapstructure:"label_selector"`
	DepartmentKey  string `mapstructure:"department_key"`
	StripTelPrefix bool   `mapstructure:"strip_tel_prefix"`
	TelPrefix      string `mapstructure:"tel_prefix"`
}

// Load reads the YAML file at path, or config.yaml in the working directory
// when path is empty, and applies CRAWLER_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("crawler")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("fetcher.timeout", 30)
	v.SetDefault("fetcher.max_retries", 3)
	v.SetDefault("fetcher.requests_per_second", 5)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (compatible; LibraryFAQBot/1.0)")

	v.SetDefault("crawl.workers", 4)
	v.SetDefault("crawl.max_depth", 8)
	v.SetDefault("crawl.max_drilldown_depth", 2)
	v.SetDefault("crawl.deadline", 0)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.directory", "database")
	v.SetDefault("storage.format", "json")
	v.SetDefault("storage.filenames", map[string]string{
		"menu":   "menu_data.json",
		"detail": "detail_data.json",
	})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "crawler")
	v.SetDefault("database.user", "crawler_user")
	v.SetDefault("database.password", "crawler_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)

	v.SetDefault("site.detail.container_selectors", []string{"#divContents", "#divContent"})
	v.SetDefault("site.detail.contact.item_selector", "li")
	v.SetDefault("site.detail.contact.label_selector", "span, strong")
	v.SetDefault("site.detail.contact.department_key", "부서명")
	v.SetDefault("site.detail.contact.tel_prefix", "Tel")
	v.SetDefault("site.detail.tabs.link", "a")
	v.SetDefault("site.detail.inner_tabs.link", "a")
}
