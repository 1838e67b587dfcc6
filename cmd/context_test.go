package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

func TestCommandContextUsesConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.WarnLevel)

	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(context.Background())
	ctx := commandContext(cmd, logger, logrus.Fields{"user_id": "u1"})

	entry := logging.FromContext(ctx)
	if entry.Logger != logger {
		t.Fatalf("context entry does not use the configured logger")
	}
	entry.Info("hidden")
	entry.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line ignored the configured level:\n%s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"user_id":"u1"`) {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestCommandContextWithoutParent(t *testing.T) {
	logger := logrus.New()
	ctx := commandContext(&cobra.Command{Use: "bare"}, logger, nil)
	if ctx == nil || logging.FromContext(ctx).Logger != logger {
		t.Fatalf("expected a context carrying the logger")
	}
}

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		raw  string
		want entity.Language
	}{
		{"", entity.LanguageItalian},
		{"  ", entity.LanguageItalian},
		{"ES", entity.LanguageSpanish},
		{"it", entity.LanguageItalian},
	}
	for _, tc := range cases {
		if got := resolveLanguage(tc.raw, entity.LanguageItalian); got != tc.want {
			t.Fatalf("resolveLanguage(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
