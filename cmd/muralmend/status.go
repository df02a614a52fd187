package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/muralmend/internal/progress"
)

type statusCmd struct {
	*root
	fs     *flag.FlagSet
	src    progress.StatusSource
	stdout io.Writer
}

func (s *statusCmd) FlagSet() *flag.FlagSet { return s.fs }

func parseStatusCmd(args []string, r *root) (*statusCmd, error) {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	s := &statusCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

func (s *statusCmd) Run() error {
	src := s.src
	if src == nil {
		src = s.client()
	}
	st, err := src.Status(context.Background())
	if err != nil {
		return fmt.Errorf("failed to query status: %w", err)
	}
	fmt.Fprintf(s.stdout, "%d%% %s\n", st.Progress, st.Message)
	return nil
}
