package cmd

import (
	"context"
	"io"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/dshills/matchstyle/internal/app"
	"github.com/dshills/matchstyle/internal/debounce"
	"github.com/dshills/matchstyle/internal/render"
	"github.com/dshills/matchstyle/internal/watch"
)

func newWatchCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Reprint a file with matches styled whenever it changes",
		Long: `Print FILE with matches styled, then reload it whenever it is written.
Reloads go through the change delay like edits: bursts of saves within the
delay produce one reprint. With a negative delay every reload is restyled
at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, args[0])
		},
	}
}

func runWatch(cmd *cobra.Command, g *globalOptions, path string) error {
	mode, err := g.colorMode()
	if err != nil {
		return err
	}

	a, cleanup, err := g.newSession(cmd, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	fw, err := watch.NewFileWatcher(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	data, err := fw.ReadFile()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := &reprinter{
		app:        a,
		out:        out,
		ansi:       render.NewANSI(out, mode),
		clear:      render.IsTerminal(out),
		terminator: a.Config().Terminator,
	}
	a.Loop().AfterEach(p.maybePrint)

	manual := debounce.ModeFor(a.Behaviour().ChangeDelay()) == debounce.ModeManual
	reload := func(text string) {
		log := a.Logger().WithComponent("watch")
		if err := a.Load(text); err != nil {
			log.Error("reload %s: %v", fw.Path(), err)
			return
		}
		if manual {
			if err := a.Behaviour().Restyle(); err != nil {
				log.Error("restyle %s: %v", fw.Path(), err)
			}
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := a.Post(func() {
		reload(string(data))
		// Print once even when there is no pattern to restyle with.
		p.print()
	}); err != nil {
		return err
	}

	go forwardChanges(ctx, a, fw, reload)

	return a.Run(ctx)
}

// forwardChanges posts a reload for every change of the watched file.
func forwardChanges(ctx context.Context, a *app.App, fw *watch.FileWatcher, reload func(string)) {
	log := a.Logger().WithComponent("watch")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events():
			if !ok {
				return
			}
			if !ev.Changed() {
				log.Debug("%s: %s ignored", ev.Path, ev.Op)
				continue
			}
			data, err := fw.ReadFile()
			if err != nil {
				log.Warn("read %s: %v", ev.Path, err)
				continue
			}
			if err := a.Post(func() { reload(string(data)) }); err != nil {
				return
			}
		case err, ok := <-fw.Errors():
			if !ok {
				return
			}
			log.Warn("watch: %v", err)
		}
	}
}

// reprinter prints the box after every restyle. It runs on the loop
// goroutine.
type reprinter struct {
	app        *app.App
	out        io.Writer
	ansi       *render.ANSI
	clear      bool
	terminator string
	printed    int
}

func (p *reprinter) maybePrint() {
	if p.app.Behaviour().Stats().Restyles == p.printed {
		return
	}
	p.print()
}

func (p *reprinter) print() {
	p.printed = p.app.Behaviour().Stats().Restyles
	if p.clear {
		termenv.NewOutput(p.out).ClearScreen()
	}
	if err := p.ansi.Write(p.out, p.app.Box().Document().Blocks(), p.terminator); err != nil {
		p.app.Logger().Error("print: %v", err)
	}
}
