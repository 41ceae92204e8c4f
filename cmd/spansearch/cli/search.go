package cli

import (
	"errors"
	"strconv"

	"spansearch/internal/index"
	"spansearch/internal/index/file"
	"spansearch/internal/search"

	"github.com/spf13/cobra"
)

func (a *app) newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query | @file | ->",
		Short: "Run a KoralQuery document against index segments",
		Long: `Run a KoralQuery document against every segment matched by the
--segments glob patterns (doublestar syntax, e.g. 'data/**'), or in the
segments directory of the home directory when no pattern is configured.
Matches are listed in segment order, then by document and position.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			patterns := a.cfg.SegmentPatterns()
			if len(patterns) == 0 {
				return errors.New("no segment patterns given, use --segments")
			}

			store := file.NewStore(a.logger, file.WithCacheSize(a.cfg.PostingCacheSize))
			defer func() { _ = store.Close() }()
			opened, err := store.Glob(cmd.Context(), patterns...)
			if err != nil {
				return err
			}
			segs := make([]index.Segment, len(opened))
			for i, s := range opened {
				segs[i] = s
			}

			s := search.New(*a.cfg, segs, search.WithLogger(a.logger))
			resp, serr := s.Search(cmd.Context(), data, a.cfg.Limit)

			p := a.printer(cmd)
			if p.isJSON() {
				if resp != nil {
					if err := p.json(resp); err != nil {
						return err
					}
				}
				return serr
			}
			if resp == nil {
				return serr
			}

			if serr == nil {
				printMatches(p, resp.Matches, true)
				p.line("%d of %d matches", len(resp.Matches), resp.TotalResults)
			}
			printNotifications(p, resp.Notifications)
			return serr
		},
	}
	cmd.Flags().StringSlice("segments", nil, "segment glob patterns (repeatable)")
	cmd.Flags().Int("limit", 0, "maximum number of matches shown (default 25, 0 in config shows all)")
	cmd.Flags().Int("cache-size", 0, "compiled queries kept (default 128)")
	cmd.Flags().Int("posting-cache", 0, "decoded posting lists kept per segment (default 1024)")
	return cmd
}

var matchHeader = []string{"MATCH", "CORPUS", "DOC", "START", "END"}

func printMatches(p *printer, ms []search.Match, header bool) {
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{
			m.ID, m.Corpus, m.DocName, strconv.Itoa(m.Start), strconv.Itoa(m.End),
		})
	}
	h := matchHeader
	if !header {
		h = nil
	}
	p.table(h, rows)
}
