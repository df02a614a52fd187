package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/example/muralmend/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Restore bool
	Save    bool
	Copy    bool
	Failure bool
}

// Viewport bounds the initial fit of a loaded image.
type Viewport struct {
	MaxWidth  int
	MaxHeight int
}

// Progress controls status polling and the progress animation.
type Progress struct {
	PollInterval time.Duration
	TickInterval time.Duration
}

// Intake limits accepted input files.
type Intake struct {
	MaxBytes int64
}

// Config holds the application configuration.
type Config struct {
	Theme        string
	SaveDir      string
	ServiceURL   string
	ExportFormat string
	LogLevel     string
	Notify       Notify
	Viewport     Viewport
	Progress     Progress
	Intake       Intake
	Themes       map[string]*theme.Theme
}

const (
	DefaultServiceURL = "http://127.0.0.1:5000"
	DefaultMaxBytes   = 50 << 20
)

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		ServiceURL:   DefaultServiceURL,
		ExportFormat: "png",
		LogLevel:     "info",
		Notify: Notify{
			Restore: true,
			Failure: true,
		},
		Viewport: Viewport{MaxWidth: 800, MaxHeight: 500},
		Progress: Progress{PollInterval: time.Second, TickInterval: 30 * time.Millisecond},
		Intake:   Intake{MaxBytes: DefaultMaxBytes},
		Themes:   make(map[string]*theme.Theme),
	}
}

// ApplyEnv overrides settings from MURALMEND_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("MURALMEND_SERVICE_URL")); v != "" {
		c.ServiceURL = v
	}
	if v := strings.TrimSpace(getenv("MURALMEND_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(getenv("MURALMEND_SAVE_DIR")); v != "" {
		c.SaveDir = v
	}
	if v := strings.TrimSpace(getenv("MURALMEND_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	fmt.Fprintf(&sb, "service_url = %s\n", c.ServiceURL)
	fmt.Fprintf(&sb, "export_format = %s\n", c.ExportFormat)
	fmt.Fprintf(&sb, "log_level = %s\n", c.LogLevel)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "restore = %v\n", c.Notify.Restore)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "failure = %v\n", c.Notify.Failure)
	sb.WriteString("\n")

	sb.WriteString("[viewport]\n")
	fmt.Fprintf(&sb, "max_width = %d\n", c.Viewport.MaxWidth)
	fmt.Fprintf(&sb, "max_height = %d\n", c.Viewport.MaxHeight)
	sb.WriteString("\n")

	sb.WriteString("[progress]\n")
	fmt.Fprintf(&sb, "poll_interval = %s\n", c.Progress.PollInterval)
	fmt.Fprintf(&sb, "tick_interval = %s\n", c.Progress.TickInterval)
	sb.WriteString("\n")

	sb.WriteString("[intake]\n")
	fmt.Fprintf(&sb, "max_bytes = %d\n", c.Intake.MaxBytes)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, kv := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
