package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/muralmend/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value. URLs contain ':' so '=' wins.
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = currentTheme.Set(key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "viewport":
			err = setViewportField(&cfg.Viewport, key, value)
		case currentSection == "progress":
			err = setProgressField(&cfg.Progress, key, value)
		case currentSection == "intake":
			err = setIntakeField(&cfg.Intake, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			name := currentSection
			if name == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", name, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "service_url":
		cfg.ServiceURL = value
	case "export_format":
		switch strings.ToLower(value) {
		case "png", "jpg", "jpeg", "webp":
			cfg.ExportFormat = strings.ToLower(value)
		default:
			return fmt.Errorf("unsupported export_format %q", value)
		}
	case "log_level":
		cfg.LogLevel = value
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "restore":
		n.Restore = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	case "failure":
		n.Failure = b
	}
	return nil
}

func setViewportField(v *Viewport, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid size for key %s: %q", key, value)
	}
	switch strings.ToLower(key) {
	case "max_width":
		v.MaxWidth = n
	case "max_height":
		v.MaxHeight = n
	}
	return nil
}

func setProgressField(p *Progress, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for key %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("duration for key %s must be positive", key)
	}
	switch strings.ToLower(key) {
	case "poll_interval":
		p.PollInterval = d
	case "tick_interval":
		p.TickInterval = d
	}
	return nil
}

func setIntakeField(in *Intake, key, value string) error {
	switch strings.ToLower(key) {
	case "max_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid byte count %q", value)
		}
		in.MaxBytes = n
	}
	return nil
}
