package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/shell/internal/config"
	"github.com/vango-dev/shell/internal/errors"
	"github.com/vango-dev/shell/pkg/server"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(&globalFlags{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("output = %q, want %q", out, version)
	}
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "init", "--dir", dir, "--base-url", "http://example.com/app/"); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://example.com/app/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}

	_, err = execute(t, "init", "--dir", dir)
	if se, ok := err.(*errors.ShellError); !ok || se.Code != "E051" {
		t.Fatalf("second init error = %v, want E051", err)
	}
	if _, err := execute(t, "init", "--dir", dir, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "chatty", "version")
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestNavigateAgainstReferenceServer(t *testing.T) {
	srv := server.New(nil, server.NewRouteBinder("main/users", "users/{id}"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	cfg := config.New()
	cfg.BaseURL = ts.URL + "/"

	var out bytes.Buffer
	err := runNavigate(context.Background(), cfg, []string{"main/users", "users/42"}, true, &out)
	if err != nil {
		t.Fatalf("runNavigate: %v", err)
	}

	got := out.String()
	for _, want := range []string{"session ", "\tmain/users\n", "\tusers/42\n", "flow-main-users-", "flow-users-42-", "shell_navigations_total"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestNavigateUnknownRoute(t *testing.T) {
	srv := server.New(nil, server.NewRouteBinder("main"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	cfg := config.New()
	cfg.BaseURL = ts.URL + "/"

	err := runNavigate(context.Background(), cfg, []string{"nowhere"}, false, &bytes.Buffer{})
	if se := errors.Classify(err); se == nil || se.Code != "E021" {
		t.Fatalf("error = %v, want E021", err)
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := loadConfig(&globalFlags{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseURL != config.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}

	path := filepath.Join(dir, "custom.json")
	custom := config.New()
	custom.BaseURL = "http://custom:1/"
	if err := custom.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(&globalFlags{configPath: path})
	if err != nil || cfg.BaseURL != "http://custom:1/" {
		t.Errorf("loadConfig(--config) = %v, %v", cfg, err)
	}
}
