package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deltad/internal/config"
	"github.com/fyrsmithlabs/deltad/internal/hookio"
	"github.com/fyrsmithlabs/deltad/internal/hooks"
	"github.com/fyrsmithlabs/deltad/internal/logging"
)

// Hook entry points. Every one of them swallows every error after logging
// it: the host treats a non-zero hook exit as a failure of the user's own
// operation, and nothing deltad does is worth blocking that.

var sessionStartCmd = &cobra.Command{
	Use:   "session-start",
	Short: "Handle a session-start event (emits injection on stdout)",
	Run: func(cmd *cobra.Command, args []string) {
		runHook(cmd.OutOrStdout(), func(h *hooks.Handler, e *hookio.Event) (string, error) {
			return h.Inject(e)
		})
	},
}

var preToolCmd = &cobra.Command{
	Use:   "pre-tool",
	Short: "Handle a tool-use-before event (emits injection on stdout)",
	Run: func(cmd *cobra.Command, args []string) {
		runHook(cmd.OutOrStdout(), func(h *hooks.Handler, e *hookio.Event) (string, error) {
			return h.Inject(e)
		})
	},
}

var postToolCmd = &cobra.Command{
	Use:   "post-tool",
	Short: "Handle a tool-use-after event (classifies outcome, updates confidence)",
	Run: func(cmd *cobra.Command, args []string) {
		runHook(cmd.OutOrStdout(), func(h *hooks.Handler, e *hookio.Event) (string, error) {
			return "", h.ToolOutcome(e)
		})
	},
}

var userMessageCmd = &cobra.Command{
	Use:   "user-message",
	Short: "Handle a user-message event (detects negative feedback)",
	Run: func(cmd *cobra.Command, args []string) {
		runHook(cmd.OutOrStdout(), func(h *hooks.Handler, e *hookio.Event) (string, error) {
			return "", h.UserMessage(e)
		})
	},
}

// runHook is the shared error boundary: config, logger, payload, handler,
// and a guaranteed silent exit on any failure.
func runHook(out io.Writer, fn func(*hooks.Handler, *hookio.Event) (string, error)) {
	logger := bootLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("config unavailable, hook is a no-op", zap.Error(err))
		return
	}
	if configured, lerr := logging.New(&cfg.Logging); lerr == nil {
		logger = configured
	}

	event, err := hookio.ReadEvent(os.Stdin)
	if err != nil {
		// Malformed or oversized payload: nothing to do.
		logger.Debug("unusable event payload", zap.Error(err))
		return
	}

	text, err := fn(hooks.NewHandler(cfg, logger), event)
	if err != nil {
		logger.Warn("hook handler failed, no action taken", zap.Error(err))
		return
	}
	if text != "" {
		fmt.Fprint(out, text)
	}
}

// bootLogger is the fallback logger used until config is loaded.
func bootLogger() *zap.Logger {
	logger, err := logging.New(logging.NewDefaultConfig())
	if err != nil {
		return logging.NewNop()
	}
	return logger
}
