package cmd

import (
	"fmt"

	"github.com/byxorna/orderpane/pkg/config"
	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/rank"
	"github.com/byxorna/orderpane/pkg/text"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type paneStatus struct {
	pane     config.Pane
	raw      int
	shown    int
	unranked int
	shadowed int
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize every configured pane",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		results := make([]paneStatus, len(cfg.Panes))
		g, ctx := errgroup.WithContext(cmd.Context())
		for i, p := range cfg.Panes {
			g.Go(func() error {
				records, err := store.Fetch(ctx, db.Query{Type: p.Type, Projection: p.Projection})
				if err != nil {
					return fmt.Errorf("%s: %w", p.Title, err)
				}
				s := paneStatus{pane: p, raw: len(records)}
				for _, r := range rank.DedupeAndSort(records) {
					s.shown++
					if !r.Ranked() {
						s.unranked++
					}
					if r.HasPublished {
						s.shadowed++
					}
				}
				results[i] = s
				log.Debug("fetched pane", zap.String("type", p.Type), zap.Int("records", len(records)))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s\n", store.Name(), store.Status())
		for _, s := range results {
			fmt.Fprintf(w, "%s  %s documents (%s stored), %s unranked, %s drafts of published documents\n",
				text.PadRight(s.pane.Title, 20),
				humanize.Comma(int64(s.shown)),
				humanize.Comma(int64(s.raw)),
				humanize.Comma(int64(s.unranked)),
				humanize.Comma(int64(s.shadowed)),
			)
		}
		return nil
	},
}
