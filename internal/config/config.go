package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models hireline.yml.
type Config struct {
	Scheduling struct {
		AutoConfirm     bool `yaml:"auto_confirm"`
		DefaultDuration int  `yaml:"default_duration_minutes"`
	} `yaml:"scheduling"`
	Meeting struct {
		Prefix  string `yaml:"prefix"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"meeting"`
	Channels struct {
		Email EmailChannel `yaml:"email"`
		Push  PushChannel  `yaml:"push"`
		Chat  ChatChannel  `yaml:"chat"`
	} `yaml:"channels"`
	Notifications struct {
		TeamChannelID  string              `yaml:"team_channel_id"`
		TimeoutSeconds int                 `yaml:"timeout_seconds"`
		Routes         map[string][]string `yaml:"routes"`
	} `yaml:"notifications"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig describes one outbound webhook subscriber. An empty Events
// list subscribes to every event kind.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

type EmailChannel struct {
	APIURL      string `yaml:"api_url"`
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
}

type PushChannel struct {
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
}

type ChatChannel struct {
	BotURL   string `yaml:"bot_url"`
	BotToken string `yaml:"bot_token"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create it with hl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Scheduling.DefaultDuration < 0 {
		return fmt.Errorf("config.scheduling.default_duration_minutes must not be negative")
	}
	if c.Meeting.Prefix == "" {
		return fmt.Errorf("config.meeting.prefix is required")
	}
	if c.Notifications.TimeoutSeconds < 0 {
		return fmt.Errorf("config.notifications.timeout_seconds must not be negative")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.webhooks[%d].timeout_seconds must not be negative", i)
		}
	}
	for event, channels := range c.Notifications.Routes {
		if event == "" {
			return fmt.Errorf("config.notifications.routes contains empty event kind")
		}
		for _, ch := range channels {
			switch ch {
			case "email", "push", "chat":
			default:
				return fmt.Errorf("route %s references unknown channel %s", event, ch)
			}
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "hireline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// RoutesFor returns the channels configured for an event kind.
func (c *Config) RoutesFor(eventKind string) []string {
	if c.Notifications.Routes == nil {
		return nil
	}
	return c.Notifications.Routes[eventKind]
}

const defaultTemplate = `scheduling:
  auto_confirm: true
  default_duration_minutes: 30

meeting:
  prefix: hireline
  base_url: https://meet.hireline.example

channels:
  email:
    api_url: ""
    api_key: ""
    from_address: no-reply@hireline.example
  push:
    gateway_url: ""
    api_key: ""
  chat:
    bot_url: ""
    bot_token: ""

notifications:
  team_channel_id: ""
  timeout_seconds: 10
  routes:
    interview.scheduled: [email, push, chat]
    interview.cancelled: [email, push]
    interview.rescheduled: [email, push]
    interview.reminder: [email, push]
    application.received: [push]

webhooks: []
`
