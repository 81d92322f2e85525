package cmd

import (
	"github.com/byxorna/orderpane/pkg/app"
	"github.com/byxorna/orderpane/pkg/db/fs"
	"github.com/byxorna/orderpane/pkg/model"
	"github.com/byxorna/orderpane/pkg/nav"
	"github.com/byxorna/orderpane/pkg/pane"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [pane]",
	Short: "Open a pane interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	settings, err := cfg.Pane(name)
	if err != nil {
		return err
	}
	if name == "" && len(cfg.Panes) > 1 {
		picker := app.NewPicker(cfg.Panes)
		if _, err := tea.NewProgram(picker, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
			return err
		}
		var ok bool
		if settings, ok = picker.Chosen(); !ok {
			return nil
		}
	}
	paneCfg, err := pane.FromSettings(settings)
	if err != nil {
		return err
	}

	store, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := model.Options{Autoscroll: cfg.Autoscroll}
	// another editor of the dataset file triggers a refresh
	if f, ok := store.(*fs.Store); ok {
		if err := f.Watch(); err != nil {
			log.Warn("unable to watch dataset", zap.Error(err))
		} else {
			opts.Changes = f.Changes()
		}
	}

	navigator := nav.NewBrowser(cfg.Studio.BaseURL, cfg.Studio.Browser)
	m := model.New(ctx, paneCfg, store, navigator, opts, log)

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	m.Attach(p)
	_, err = p.Run()
	m.Close()
	return err
}
