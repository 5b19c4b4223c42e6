package cmd

import (
	"strings"
	"testing"
)

func TestRootCommandFlags(t *testing.T) {
	flags := []string{
		"show-config", "budget", "concurrency", "delay", "timeout",
		"user-agent", "max-links", "sample", "strict-tls", "page",
		"output", "log-level", "log-file",
	}
	for _, name := range flags {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("Flag %q not registered", name)
		}
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("Persistent flag \"config\" not registered")
	}
}

func TestRootCommandRequiresURL(t *testing.T) {
	if err := rootCmd.Args(rootCmd, []string{}); err == nil {
		t.Error("Expected error with no arguments")
	}
	if err := rootCmd.Args(rootCmd, []string{"https://acme.example"}); err != nil {
		t.Errorf("Unexpected error with one argument: %v", err)
	}
	if err := rootCmd.Args(rootCmd, []string{"a", "b"}); err == nil {
		t.Error("Expected error with two arguments")
	}
}

func TestGenerateUserAgent(t *testing.T) {
	orig := version
	defer func() { version = orig }()

	version = ""
	if ua := generateUserAgent(); !strings.Contains(ua, "Sitelens/dev") {
		t.Errorf("UA = %q", ua)
	}

	version = "1.2.3"
	if ua := generateUserAgent(); !strings.Contains(ua, "Sitelens/1.2.3") {
		t.Errorf("UA = %q", ua)
	}
}

func TestSetVersionInfo(t *testing.T) {
	orig, origBT := version, buildTime
	defer func() { SetVersionInfo(orig, origBT) }()

	SetVersionInfo("2.0.0", "2026-01-01")
	if !strings.Contains(rootCmd.Version, "2.0.0") {
		t.Errorf("Version = %q", rootCmd.Version)
	}
}
