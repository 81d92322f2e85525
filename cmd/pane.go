package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/nav"
	"github.com/byxorna/orderpane/pkg/pane"
	"github.com/byxorna/orderpane/pkg/rank"
	"github.com/byxorna/orderpane/pkg/text"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/spf13/cobra"
)

var (
	listFlags = struct {
		Filter string
	}{}

	listCmd = &cobra.Command{
		Use:   "list [pane]",
		Short: "Print a pane in its effective order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return withPane(cmd.Context(), name, func(c *pane.Controller, _ *notices) error {
				c.SetFilter(listFlags.Filter)
				printList(cmd.OutOrStdout(), c)
				return nil
			})
		},
	}

	moveCmd = &cobra.Command{
		Use:   "move <pane> <record> <offset>",
		Short: "Move a record up (negative) or down (positive)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("offset %q is not a number", args[2])
			}
			return withPane(cmd.Context(), args[0], func(c *pane.Controller, n *notices) error {
				r, err := resolve(c, args[1])
				if err != nil {
					return err
				}
				return commit(cmd.Context(), cmd.OutOrStdout(), c, n, c.Move(r.ID, offset))
			})
		},
	}

	placeCmd = &cobra.Command{
		Use:   "place <pane> <record> <index>",
		Short: "Move a record to a position, counting from 0",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("index %q is not a number", args[2])
			}
			return withPane(cmd.Context(), args[0], func(c *pane.Controller, n *notices) error {
				r, err := resolve(c, args[1])
				if err != nil {
					return err
				}
				records := c.Records()
				to = max(0, min(to, len(records)-1))
				from := rank.IndexOf(records, r.ID)
				return commit(cmd.Context(), cmd.OutOrStdout(), c, n, c.Place(from, to))
			})
		},
	}

	normalizeCmd = &cobra.Command{
		Use:   "normalize <pane>",
		Short: "Rewrite every rank in the current order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPane(cmd.Context(), args[0], func(c *pane.Controller, n *notices) error {
				return commit(cmd.Context(), cmd.OutOrStdout(), c, n, c.Reorder(c.Records()))
			})
		},
	}
)

func init() {
	listCmd.Flags().StringVarP(&listFlags.Filter, "filter", "f", "", "only show records matching this search")
}

// notices keeps what the controller reported during one command.
type notices []pane.Notice

func (n *notices) Notify(notice pane.Notice) { *n = append(*n, notice) }

// withPane opens the backend, loads the named pane and hands it to fn.
func withPane(ctx context.Context, name string, fn func(*pane.Controller, *notices) error) error {
	settings, err := cfg.Pane(name)
	if err != nil {
		return err
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

	n := &notices{}
	c := pane.New(paneCfg, store, n, nav.NewBrowser(cfg.Studio.BaseURL, cfg.Studio.Browser), log)
	defer c.Close()

	c.Run(ctx, c.Refresh())
	if c.State() == pane.LoadError {
		return c.Err()
	}
	return fn(c, n)
}

// commit runs a reorder task and reports its outcome.
func commit(ctx context.Context, w io.Writer, c *pane.Controller, n *notices, task pane.Task) error {
	if task == nil {
		fmt.Fprintln(w, "Nothing to do: the order is unchanged.")
		return nil
	}
	c.Run(ctx, task)
	for _, notice := range *n {
		if notice.Level == pane.NoticeError {
			return notice.Err
		}
		fmt.Fprintln(w, notice.String())
	}
	printList(w, c)
	return nil
}

func printList(w io.Writer, c *pane.Controller) {
	visible := c.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}
	for i, r := range visible {
		key := r.Rank
		if key == "" {
			key = "unranked"
		}
		id := r.ID
		if r.IsDraft() && r.HasPublished {
			id += "*"
		}
		fmt.Fprintf(w, "%3d  %s  %s  %s\n", i, text.PadRight(key, 10), text.PadRight(id, 24), c.Label(r))
	}
}

var errAmbiguous = errors.New("ambiguous record")

// resolve finds a record by id, published id, or the best fuzzy label match.
func resolve(c *pane.Controller, query string) (v1.Record, error) {
	records := c.Records()
	for _, r := range records {
		if r.ID == query || r.BaseID() == query {
			return r, nil
		}
	}

	matches := fuzzyLabels(c, records, query)
	switch {
	case len(matches) == 0:
		return v1.Record{}, fmt.Errorf("%w: %q", db.ErrNotFound, query)
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		var names []string
		for _, m := range matches[:min(len(matches), 5)] {
			names = append(names, m.Str)
		}
		return v1.Record{}, fmt.Errorf("%w %q: could be %s", errAmbiguous, query, strings.Join(names, ", "))
	}
	return records[matches[0].Index], nil
}
