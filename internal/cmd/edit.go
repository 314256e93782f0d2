package cmd

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/matchstyle/internal/app"
)

// newScreen is replaced in tests with a simulation screen.
var newScreen = tcell.NewScreen

func newEditCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [FILE]",
		Short: "Edit text in the terminal with matches restyled as you type",
		Long: `Open FILE, or an empty buffer, in a small terminal editor. Matches are
restyled according to the change delay; with a negative delay press
Ctrl-R to restyle.

Keys:
  Ctrl-S        save to FILE
  Ctrl-R        restyle now
  Esc, Ctrl-Q   quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runEdit(cmd, g, path)
		},
	}
}

func runEdit(cmd *cobra.Command, g *globalOptions, path string) error {
	text := ""
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text = string(data)
		case errors.Is(err, fs.ErrNotExist):
			// New file, created on first save.
		default:
			return err
		}
	}

	// The screen owns the terminal, so logs only go to --log-file.
	a, cleanup, err := g.newSession(cmd, io.Discard, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	screen, err := newScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	if text != "" {
		if err := a.Load(text); err != nil {
			return err
		}
	}

	return app.NewEditor(a, screen, path).Run(cmd.Context())
}
