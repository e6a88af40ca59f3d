package config_test

import (
	"strings"
	"testing"

	"hireline/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if !cfg.Scheduling.AutoConfirm {
		t.Fatalf("auto_confirm should default on")
	}
	if cfg.Scheduling.DefaultDuration != 30 {
		t.Fatalf("default duration: %d", cfg.Scheduling.DefaultDuration)
	}
	if cfg.Meeting.Prefix != "hireline" {
		t.Fatalf("meeting prefix: %q", cfg.Meeting.Prefix)
	}
	if cfg.Notifications.TimeoutSeconds != 10 {
		t.Fatalf("timeout: %d", cfg.Notifications.TimeoutSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	if err != nil {
		t.Fatalf("generated template: %v", err)
	}
	routes := cfg.RoutesFor("interview.scheduled")
	if len(routes) != 3 {
		t.Fatalf("interview.scheduled routes: %v", routes)
	}
	if got := cfg.RoutesFor("application.received"); len(got) != 1 || got[0] != "push" {
		t.Fatalf("application.received routes: %v", got)
	}
	if cfg.RoutesFor("interview.unknown") != nil {
		t.Fatalf("unknown event must have no routes")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing meeting prefix",
			"meeting:\n  prefix: \"\"\n",
			"meeting.prefix",
		},
		{
			"negative timeout",
			"meeting:\n  prefix: hireline\nnotifications:\n  timeout_seconds: -1\n",
			"timeout_seconds",
		},
		{
			"unknown route channel",
			"meeting:\n  prefix: hireline\nnotifications:\n  routes:\n    interview.scheduled: [sms]\n",
			"unknown channel",
		},
		{
			"webhook without url",
			"meeting:\n  prefix: hireline\nwebhooks:\n  - secret: s3cret\n",
			"webhooks[0].url",
		},
	}
	for _, tc := range cases {
		_, err := config.FromYAML([]byte(tc.yaml))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestLoadOptionalFallsBack(t *testing.T) {
	cfg, err := config.LoadOptional(t.TempDir())
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if cfg.Meeting.Prefix != "hireline" {
		t.Fatalf("expected defaults, got prefix %q", cfg.Meeting.Prefix)
	}
}
