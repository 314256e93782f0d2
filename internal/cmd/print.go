package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/matchstyle/internal/config"
	"github.com/dshills/matchstyle/internal/host"
	"github.com/dshills/matchstyle/internal/render"
)

func newPrintCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print [FILE]",
		Short: "Print a file with matches styled",
		Long: `Print FILE, or standard input when FILE is "-" or omitted, with every
match of the pattern styled. The file is restyled once; the change delay
is ignored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runPrint(cmd, g, path)
		},
	}
}

func runPrint(cmd *cobra.Command, g *globalOptions, path string) error {
	mode, err := g.colorMode()
	if err != nil {
		return err
	}
	text, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	a, cleanup, err := g.newSession(cmd, cmd.ErrOrStderr(), func(o *config.Options) {
		o.ChangeDelayMs = -1
	})
	if err != nil {
		return err
	}
	defer cleanup()

	if text == "" {
		return nil
	}
	if err := a.Load(text); err != nil {
		return err
	}
	if err := a.Behaviour().Restyle(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return printBlocks(out, a.Box().Document().Blocks(), a.Config().Terminator, mode)
}

func printBlocks(out io.Writer, blocks []host.Block, terminator string, mode render.ColorMode) error {
	return render.NewANSI(out, mode).Write(out, blocks, terminator)
}
