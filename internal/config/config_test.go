package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/murals
service_url = http://restorer.local:5000
export_format = WEBP

[notify]
restore = true
save = false
copy = true

[viewport]
max_width = 1024
max_height = 640

[progress]
poll_interval = 500ms
tick_interval = 10ms

[intake]
max_bytes = 1048576

[theme.my_custom_theme]
Background = #111111
Stroke = #00FF00
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/murals" {
		t.Errorf("Expected save_dir '/tmp/murals', got '%s'", cfg.SaveDir)
	}
	if cfg.ServiceURL != "http://restorer.local:5000" {
		t.Errorf("Unexpected service_url %q", cfg.ServiceURL)
	}
	if cfg.ExportFormat != "webp" {
		t.Errorf("Unexpected export_format %q", cfg.ExportFormat)
	}
	if !cfg.Notify.Restore || cfg.Notify.Save || !cfg.Notify.Copy {
		t.Errorf("Unexpected notify %+v", cfg.Notify)
	}
	if !cfg.Notify.Failure {
		t.Error("failure notifications should default to on")
	}
	if cfg.Viewport != (Viewport{MaxWidth: 1024, MaxHeight: 640}) {
		t.Errorf("Unexpected viewport %+v", cfg.Viewport)
	}
	if cfg.Progress.PollInterval != 500*time.Millisecond || cfg.Progress.TickInterval != 10*time.Millisecond {
		t.Errorf("Unexpected progress %+v", cfg.Progress)
	}
	if cfg.Intake.MaxBytes != 1<<20 {
		t.Errorf("Unexpected max_bytes %d", cfg.Intake.MaxBytes)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
	if theme.Stroke.G != 0xFF || theme.Stroke.R != 0 {
		t.Errorf("Unexpected Stroke color: %+v", theme.Stroke)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"[notify]\nsave = maybe\n",
		"[progress]\npoll_interval = soon\n",
		"[progress]\ntick_interval = -1s\n",
		"[viewport]\nmax_width = 0\n",
		"export_format = bmp\n",
		"[theme.x]\nStroke = red\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Viewport.MaxWidth != 800 || cfg.Viewport.MaxHeight != 500 {
		t.Errorf("viewport defaults %+v", cfg.Viewport)
	}
	if cfg.Progress.PollInterval != time.Second || cfg.Progress.TickInterval != 30*time.Millisecond {
		t.Errorf("progress defaults %+v", cfg.Progress)
	}
	if cfg.Intake.MaxBytes != 50*1024*1024 {
		t.Errorf("intake default %d", cfg.Intake.MaxBytes)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MURALMEND_SERVICE_URL": "http://env:1",
		"MURALMEND_THEME":       "dark",
	}
	cfg := New()
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.ServiceURL != "http://env:1" || cfg.Theme != "dark" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SaveDir != "" {
		t.Fatalf("unset variable changed save_dir: %q", cfg.SaveDir)
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/murals
service_url = http://localhost:5000

[notify]
restore = true
save = true
copy = false
failure = false

[progress]
poll_interval = 2s

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	generated := cfg.String()

	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.ServiceURL != cfg2.ServiceURL {
		t.Errorf("ServiceURL mismatch: %q vs %q", cfg.ServiceURL, cfg2.ServiceURL)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if cfg.Progress != cfg2.Progress {
		t.Errorf("Progress mismatch: %+v vs %+v", cfg.Progress, cfg2.Progress)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestLoaderSaveAndLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sub", "config.rc")
	l := NewLoader("v1", path)
	if got := l.GetConfigPath(); got != "" {
		t.Fatalf("GetConfigPath before save = %q", got)
	}
	cfg := New()
	cfg.Theme = "dark"
	written, err := l.Save(cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if written != path {
		t.Fatalf("Save wrote %q, want %q", written, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	loaded, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Theme != "dark" {
		t.Fatalf("loaded theme %q", loaded.Theme)
	}
}
