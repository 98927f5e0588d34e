package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Addr      string `env:"CRYPTOPIA_CMD_TEST_ADDR" envDefault:"127.0.0.1:8095"`
	WorldPath string `env:"CRYPTOPIA_CMD_TEST_WORLD"`
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CRYPTOPIA_CMD_TEST_ADDR", "env:9000")
	t.Setenv("CRYPTOPIA_CMD_TEST_WORLD", "env-world.json")

	var cfg testConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address")
	fs.StringVar(&cfg.WorldPath, "world", cfg.WorldPath, "world")
	if err := ParseArgs(fs, []string{"-addr", "flag:9001"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Addr != "flag:9001" {
		t.Fatalf("addr = %q, want flag:9001", cfg.Addr)
	}
	if cfg.WorldPath != "env-world.json" {
		t.Fatalf("world = %q, want env-world.json", cfg.WorldPath)
	}
}

func TestParseRejectsNilTargets(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil config to fail")
	}
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected nil flag set to fail")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServicePirates, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("CRYPTOPIA_OTEL_ENABLED", "false")
	want := errors.New("boom")
	var ran bool
	err := RunWithTelemetry(context.Background(), ServicePirates, func(context.Context) error {
		ran = true
		return want
	})
	if !ran {
		t.Fatal("expected run to be called")
	}
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
