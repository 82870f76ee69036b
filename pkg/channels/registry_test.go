package channels_test

import (
	"testing"

	"parley/pkg/channels"
	_ "parley/pkg/channels/console"
	"parley/pkg/config"
)

func TestLoadFromConfigDefaultsToConsole(t *testing.T) {
	frontend, err := channels.LoadFromConfig(nil, config.DefaultSystemConfig())
	if err != nil {
		t.Fatalf("LoadFromConfig failed: %v", err)
	}
	if frontend.ID() != "console" {
		t.Errorf("frontend = %q, want console", frontend.ID())
	}
}

func TestLoadFromConfigExplicitType(t *testing.T) {
	frontend, err := channels.LoadFromConfig([]byte(`{"type":"console"}`), config.DefaultSystemConfig())
	if err != nil {
		t.Fatalf("LoadFromConfig failed: %v", err)
	}
	if frontend.ID() != "console" {
		t.Errorf("frontend = %q, want console", frontend.ID())
	}
}

func TestLoadFromConfigUnknownType(t *testing.T) {
	_, err := channels.LoadFromConfig([]byte(`{"type":"smoke-signals"}`), config.DefaultSystemConfig())
	if err == nil {
		t.Fatal("unknown frontend type must fail")
	}
}

func TestGetFrontendFactory(t *testing.T) {
	if _, ok := channels.GetFrontendFactory("console"); !ok {
		t.Error("console factory not registered")
	}
	if _, ok := channels.GetFrontendFactory("nope"); ok {
		t.Error("unexpected factory 'nope'")
	}
}
