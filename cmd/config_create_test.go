package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestSaveDefaultConfigCreatesExampleTemplate(t *testing.T) {
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
	})

	tmpConfig := filepath.Join(t.TempDir(), "create-template.yaml")
	cfgFile = tmpConfig
	viper.Reset()

	var out bytes.Buffer
	if err := saveDefaultConfig(&out); err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(tmpConfig)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "# atlbrowse configuration") {
		t.Fatalf("expected example header in config file, got:\n%s", text)
	}
	if !strings.Contains(text, "issue_batch_size: 50") || !strings.Contains(text, "request_timeout: 30s") {
		t.Fatalf("expected paging and scan defaults in config file, got:\n%s", text)
	}
	if !strings.Contains(out.String(), "New config file created at: "+tmpConfig) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSaveDefaultConfigDoesNotOverwriteExistingFile(t *testing.T) {
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
	})

	tmpConfig := filepath.Join(t.TempDir(), "existing.yaml")
	original := "atlassian:\n  domain: \"acme.atlassian.net\"\npaging:\n  issue_batch_size: 20\n"
	if err := os.WriteFile(tmpConfig, []byte(original), 0o644); err != nil {
		t.Fatalf("failed writing initial config: %v", err)
	}

	cfgFile = tmpConfig
	viper.Reset()

	var out bytes.Buffer
	if err := saveDefaultConfig(&out); err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(tmpConfig)
	if err != nil {
		t.Fatalf("failed reading existing config after create: %v", err)
	}
	if string(content) != original {
		t.Fatalf("expected existing config to remain unchanged")
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
