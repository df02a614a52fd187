package main

import (
	"flag"
	"fmt"
	"image"

	"github.com/example/muralmend/internal/appstate"
	"github.com/example/muralmend/internal/intake"
)

var (
	openFileFn      = intake.Open
	fromClipboardFn = intake.FromClipboard
	captureScreenFn = intake.CaptureScreen
	runWindowFn     = func(st *appstate.AppState) { st.Run() }
)

// annotateCmd represents the annotate subcommand.
type annotateCmd struct {
	*root
	fs          *flag.FlagSet
	file        string
	clipboard   bool
	capture     bool
	interactive bool
	outputDir   string
	format      string
}

func (a *annotateCmd) FlagSet() *flag.FlagSet { return a.fs }

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.StringVar(&a.file, "file", "", "image file to annotate")
	fs.BoolVar(&a.clipboard, "clipboard", false, "annotate the image on the clipboard")
	fs.BoolVar(&a.capture, "capture", false, "annotate a screenshot of the desktop")
	fs.BoolVar(&a.interactive, "select", false, "let the desktop portal ask which screen to capture")
	fs.StringVar(&a.outputDir, "output", "", "directory restored images are saved to (default from config)")
	fs.StringVar(&a.format, "format", "", "export format: png, jpg or webp (default from config)")
	fs.Usage = usageFunc(a)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	sources := 0
	for _, set := range []bool{a.file != "", a.clipboard, a.capture} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, fmt.Errorf("choose only one of -file, -clipboard and -capture")
	}
	if fs.NArg() == 1 && a.file == "" && sources == 0 {
		a.file = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return nil, &UsageError{of: a}
	}
	return a, nil
}

func (a *annotateCmd) load() (image.Image, error) {
	switch {
	case a.file != "":
		img, err := openFileFn(a.file, a.config.Intake.MaxBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		return img, nil
	case a.clipboard:
		img, err := fromClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return img, nil
	case a.capture:
		img, err := captureScreenFn(a.interactive)
		if err != nil {
			return nil, fmt.Errorf("failed to capture screen: %w", err)
		}
		return img, nil
	}
	return nil, nil
}

func (a *annotateCmd) Run() error {
	img, err := a.load()
	if err != nil {
		return err
	}
	sess := a.session()
	if img != nil {
		if err := sess.LoadImage(img); err != nil {
			return err
		}
	}
	dir := a.outputDir
	if dir == "" {
		dir = a.config.SaveDir
	}
	format := a.format
	if format == "" {
		format = a.config.ExportFormat
	}
	client := a.client()
	st := appstate.New(
		appstate.WithSession(sess),
		appstate.WithProcessor(client),
		appstate.WithReconciler(a.reconciler(client)),
		appstate.WithNotifier(a.notifier),
		appstate.WithTheme(a.activeTheme),
		appstate.WithOutput(dir, format),
	)
	runWindowFn(st)
	return nil
}
