package cli

import (
	"context"
	"errors"

	"spansearch/internal/index"
	"spansearch/internal/index/file"
	"spansearch/internal/search"

	"github.com/spf13/cobra"
)

func (a *app) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <query | @file | ->",
		Short: "Run a query against segments as they are written",
		Long: `Run a KoralQuery document against every segment below --root, by
default the segments directory of the home directory, and then against
each segment written there until interrupted. Matches are printed per
segment as they are found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			root, _ := cmd.Flags().GetString("root")
			if root == "" {
				hd := a.cfg.HomeDir()
				if err := hd.EnsureSegmentsDir(); err != nil {
					return err
				}
				root = hd.SegmentsDir()
			}

			s := search.New(*a.cfg, nil, search.WithLogger(a.logger))
			res, err := s.Compile(data)
			p := a.printer(cmd)
			if err != nil {
				if res != nil && !p.isJSON() {
					printNotifications(p, res.Notifications)
				}
				return err
			}

			store := file.NewStore(a.logger, file.WithCacheSize(a.cfg.PostingCacheSize))
			defer func() { _ = store.Close() }()

			header := true
			err = store.Watch(cmd.Context(), root, func(seg *file.Segment) error {
				resp, err := s.WithSegments([]index.Segment{seg}).Search(cmd.Context(), data, a.cfg.Limit)
				if err != nil {
					return err
				}
				if p.isJSON() {
					return p.json(resp)
				}
				if len(resp.Matches) > 0 {
					printMatches(p, resp.Matches, header)
					header = false
				}
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("root", "", "directory new segments are written to (default: home segments directory)")
	cmd.Flags().Int("limit", 0, "maximum number of matches shown per segment (default 25, 0 in config shows all)")
	cmd.Flags().Int("cache-size", 0, "compiled queries kept (default 128)")
	cmd.Flags().Int("posting-cache", 0, "decoded posting lists kept per segment (default 1024)")
	return cmd
}
