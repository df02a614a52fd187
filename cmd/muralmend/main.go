package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/example/muralmend/internal/config"
	"github.com/example/muralmend/internal/notify"
	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/restore"
	"github.com/example/muralmend/internal/session"
	"github.com/example/muralmend/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs            *flag.FlagSet
	program       string
	notifier      *notify.Notifier
	config        *config.Config
	logger        *slog.Logger
	restoreAlerts bool
	saveAlerts    bool
	copyAlerts    bool
	failureAlerts bool
	verbose       bool
	themeName     string
	serviceURL    string
	activeTheme   *theme.Theme
}

func (r *root) Program() string { return r.program }

func (r *root) FlagSet() *flag.FlagSet { return r.fs }

func (r *root) subcommand(name string) *root {
	sub := *r
	sub.fs = nil
	sub.program = strings.TrimSpace(r.program + " " + name)
	return &sub
}

func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}
}

func newRoot() *root {
	loadEnv()
	if p := os.Getenv("MURALMEND_CONFIG"); p != "" && configPathOverride == "" {
		configPathOverride = p
	}
	cfg, err := config.NewLoader(version, configPathOverride).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	cfg.ApplyEnv(os.Getenv)

	r := &root{
		fs:       flag.NewFlagSet("muralmend", flag.ExitOnError),
		program:  "muralmend",
		notifier: notify.New(notify.LoadPreferences(os.Getenv)),
		config:   cfg,
	}
	r.fs.BoolVar(&r.restoreAlerts, "notify-restore", cfg.Notify.Restore, "show a desktop notification when a restoration finishes")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.failureAlerts, "notify-failure", cfg.Notify.Failure, "show a desktop notification when a restoration fails")
	r.fs.BoolVar(&r.verbose, "v", false, "log debug output")
	// Precedence: CLI > Env > Config > Default. Env is already folded into cfg.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, light, dark)")
	r.fs.StringVar(&r.serviceURL, "service", "", "restoration service URL (default from config, "+config.DefaultServiceURL+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (r *root) setup() {
	if r.serviceURL != "" {
		r.config.ServiceURL = r.serviceURL
	}
	level := parseLevel(r.config.LogLevel)
	if r.verbose {
		level = slog.LevelDebug
	}
	r.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if r.notifier != nil {
		r.notifier.Enable(notify.EventRestore, r.restoreAlerts)
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventFailure, r.failureAlerts)
	}
	r.activeTheme = r.resolveTheme()
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) log(component string) *slog.Logger {
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.logger.With("component", component)
}

func (r *root) client() *restore.Client {
	return restore.NewClient(r.config.ServiceURL, restore.WithClientLogger(r.log("client")))
}

func (r *root) reconciler(src progress.StatusSource, opts ...progress.Option) *progress.Reconciler {
	base := []progress.Option{
		progress.WithPollInterval(r.config.Progress.PollInterval),
		progress.WithTickInterval(r.config.Progress.TickInterval),
		progress.WithLogger(r.log("progress")),
	}
	return progress.New(src, append(base, opts...)...)
}

func (r *root) session() *session.Session {
	return session.New(
		session.WithBounds(r.config.Viewport.MaxWidth, r.config.Viewport.MaxHeight),
		session.WithLogger(r.log("session")),
	)
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.setup()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r.subcommand(cmdName))
	case "submit":
		cmd, err = parseSubmitCmd(subArgs, r.subcommand(cmdName))
	case "serve":
		cmd, err = parseServeCmd(subArgs, r.subcommand(cmdName))
	case "status":
		cmd, err = parseStatusCmd(subArgs, r.subcommand(cmdName))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(cmdName))
	case "version":
		cmd = &versionCmd{root: r.subcommand(cmdName)}
	case "help":
		return &UsageError{of: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
