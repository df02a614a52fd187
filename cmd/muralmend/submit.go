package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/example/muralmend/internal/annotation"
	"github.com/example/muralmend/internal/export"
	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/session"
)

// rectList collects repeated -rect x,y,w,h flags.
type rectList []annotation.Rect

func (l *rectList) String() string {
	parts := make([]string, 0, len(*l))
	for _, r := range *l {
		parts = append(parts, fmt.Sprintf("%g,%g,%g,%g", r.X, r.Y, r.Width, r.Height))
	}
	return strings.Join(parts, " ")
}

func (l *rectList) Set(v string) error {
	fields := strings.Split(v, ",")
	if len(fields) != 4 {
		return fmt.Errorf("rect %q: want x,y,w,h", v)
	}
	var n [4]float64
	for i, f := range fields {
		val, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("rect %q: %w", v, err)
		}
		n[i] = val
	}
	if n[2] < 0 {
		n[0], n[2] = n[0]+n[2], -n[2]
	}
	if n[3] < 0 {
		n[1], n[3] = n[1]+n[3], -n[3]
	}
	*l = append(*l, annotation.Rect{X: n[0], Y: n[1], Width: n[2], Height: n[3]})
	return nil
}

type submitCmd struct {
	*root
	fs     *flag.FlagSet
	file   string
	output string
	rects  rectList
	quiet  bool
	stderr io.Writer
	proc   session.Processor
	status progress.StatusSource
}

func (s *submitCmd) FlagSet() *flag.FlagSet { return s.fs }

func parseSubmitCmd(args []string, r *root) (*submitCmd, error) {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	s := &submitCmd{root: r, fs: fs, stderr: os.Stderr}
	fs.StringVar(&s.file, "file", "", "image file to restore")
	fs.StringVar(&s.output, "output", "", "output path (default restored_mural.<format> in the save directory)")
	fs.Var(&s.rects, "rect", "damaged region as x,y,w,h in image pixels (repeatable)")
	fs.BoolVar(&s.quiet, "q", false, "do not print progress")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if s.file == "" && fs.NArg() == 1 {
		s.file = fs.Arg(0)
	}
	if s.file == "" {
		return nil, &UsageError{of: s}
	}
	if len(s.rects) == 0 {
		return nil, session.ErrNoRegions
	}
	return s, nil
}

// progressPrinter writes one line per change of percentage or message.
func progressPrinter(w io.Writer) func(progress.State) {
	var mu sync.Mutex
	last := progress.State{Displayed: -1}
	return func(st progress.State) {
		mu.Lock()
		defer mu.Unlock()
		if st.Displayed == last.Displayed && st.Message == last.Message {
			return
		}
		last = st
		fmt.Fprintf(w, "%3d%% %s\n", st.Displayed, st.Message)
	}
}

func (s *submitCmd) Run() error {
	img, err := openFileFn(s.file, s.config.Intake.MaxBytes)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	sess := s.session()
	if err := sess.LoadImage(img); err != nil {
		return err
	}
	for _, r := range s.rects {
		if err := sess.Mark(r); err != nil {
			return err
		}
	}

	proc, src := s.proc, s.status
	if proc == nil {
		c := s.client()
		proc, src = c, c
	}
	var opts []progress.Option
	if !s.quiet {
		opts = append(opts, progress.WithOnChange(progressPrinter(s.stderr)))
	}
	rec := s.reconciler(src, opts...)
	defer rec.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := sess.Submit(ctx, proc, rec)
	if err != nil {
		s.notifier.Failure(err)
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("submission cancelled")
		}
		return err
	}

	path := s.output
	if path == "" {
		path, err = export.Save(sess.Image(), s.config.SaveDir, s.config.ExportFormat)
	} else {
		err = export.Write(sess.Image(), path)
	}
	if err != nil {
		return err
	}
	elapsed := fmt.Sprintf("%.1fs", res.Elapsed.Seconds())
	s.notifier.Restored(elapsed, sess.Image())
	s.notifier.Save(path)
	fmt.Printf("%s (%s)\n", path, elapsed)
	return nil
}
