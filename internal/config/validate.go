package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ConfigError reports a missing or invalid configuration key. It is returned
// before any network activity starts.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// Validate checks required keys and fills per-rule defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, &ConfigError{Key: "site.base_url", Reason: "required"})
	} else if u, err := url.Parse(c.Site.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, &ConfigError{Key: "site.base_url", Reason: "must be an absolute http(s) URL"})
	}

	if c.Site.Menus.RootSelector == "" {
		errs = append(errs, &ConfigError{Key: "site.menus.root_selector", Reason: "required"})
	}

	detail := &c.Site.Detail
	if len(detail.ContainerSelectors) == 0 {
		errs = append(errs, &ConfigError{Key: "site.detail.container_selectors", Reason: "at least one selector is required"})
	}

	errs = append(errs, validateRules("site.detail.intro.rules", detail.Intro.Rules)...)

	for i := range detail.Sections {
		section := &detail.Sections[i]
		key := fmt.Sprintf("site.detail.sections[%d]", i)
		if section.Header == "" {
			errs = append(errs, &ConfigError{Key: key + ".header", Reason: "required"})
		}
		if len(section.Rules) == 0 && !section.Drilldown {
			errs = append(errs, &ConfigError{Key: key + ".rules", Reason: "at least one rule is required"})
		}
		errs = append(errs, validateRules(key+".rules", section.Rules)...)
	}

	if (detail.SecondaryTabs.Titles == "") != (detail.SecondaryTabs.Contents == "") {
		errs = append(errs, &ConfigError{Key: "site.detail.secondary_tabs", Reason: "titles and contents must be set together"})
	}
	if detail.SecondaryTabs.Titles != "" && len(detail.SecondaryTabs.Rules) == 0 {
		detail.SecondaryTabs.Rules = []RuleConfig{{Kind: RuleTextBlock}}
	}
	errs = append(errs, validateRules("site.detail.secondary_tabs.rules", detail.SecondaryTabs.Rules)...)

	if detail.Contact.StripTelPrefix && detail.Contact.TelPrefix == "" {
		errs = append(errs, &ConfigError{Key: "site.detail.contact.tel_prefix", Reason: "required when strip_tel_prefix is set"})
	}

	if c.Crawl.Workers < 1 {
		c.Crawl.Workers = 1
	}
	if c.Crawl.MaxDepth < 0 {
		errs = append(errs, &ConfigError{Key: "crawl.max_depth", Reason: "must not be negative"})
	}
	if c.Crawl.MaxDrilldownDepth < 0 {
		errs = append(errs, &ConfigError{Key: "crawl.max_drilldown_depth", Reason: "must not be negative"})
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.Format != "json" && c.Storage.Format != "yaml" {
			errs = append(errs, &ConfigError{Key: "storage.format", Reason: "must be json or yaml"})
		}
		if c.Storage.Directory == "" {
			errs = append(errs, &ConfigError{Key: "storage.directory", Reason: "required for the file driver"})
		}
	case "postgres":
	default:
		errs = append(errs, &ConfigError{Key: "storage.driver", Reason: "must be file or postgres"})
	}
	for _, name := range []string{"menu", "detail"} {
		if c.Storage.Filenames[name] == "" {
			errs = append(errs, &ConfigError{Key: "storage.filenames." + name, Reason: "required"})
		}
	}

	return errors.Join(errs...)
}

func validateRules(key string, rules []RuleConfig) []error {
	var errs []error
	for i := range rules {
		if err := rules[i].validate(fmt.Sprintf("%s[%d]", key, i)); err != nil {
			errs = append(errs, err)
			continue
		}
		rules[i] = rules[i].withDefaults()
	}
	return errs
}
