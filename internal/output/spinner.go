package output

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title string
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// RunWithSpinner runs action while a spinner is drawn on stderr. Without a
// terminal, or in verbose mode where log lines would interleave, the action
// just runs.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{title: "Building..."}
	for _, opt := range opts {
		opt(cfg)
	}

	if !IsTTY() || logger.GetLevel() <= debugLevel {
		return action()
	}

	var actionErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		actionErr = action()
	}()

	spinnerErr := spinner.New().
		Title(cfg.title).
		Context(ctx).
		Action(func() {
			select {
			case <-ctx.Done():
			case <-done:
			}
		}).
		Run()

	// The action owns cancellation; always wait for it to return.
	<-done
	if actionErr != nil {
		return actionErr
	}
	if spinnerErr != nil && ctx.Err() == nil {
		return fmt.Errorf("spinner error: %w", spinnerErr)
	}
	return nil
}
