package cli

import (
	"strconv"
	"strings"

	"spansearch/internal/index/file"

	"github.com/spf13/cobra"
)

func (a *app) newTermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms <segment-dir> [prefix]",
		Short: "List the indexed terms of a segment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) > 1 {
				prefix = args[1]
			}
			seg, err := file.Open(args[0], file.WithCacheSize(a.cfg.PostingCacheSize))
			if err != nil {
				return err
			}
			defer func() { _ = seg.Close() }()

			type termView struct {
				Term string `json:"term"`
				Docs int64  `json:"docs"`
			}
			var terms []termView
			var perr error
			err = seg.Terms(seg.Field(), func(term string) bool {
				if !strings.HasPrefix(term, prefix) {
					// Terms arrive sorted; stop past the prefix range.
					return term < prefix
				}
				p, err := seg.Postings(seg.Field(), term)
				if err != nil {
					perr = err
					return false
				}
				terms = append(terms, termView{Term: term, Docs: p.Cost()})
				return true
			})
			if err != nil {
				return err
			}
			if perr != nil {
				return perr
			}

			p := a.printer(cmd)
			if p.isJSON() {
				return p.json(terms)
			}
			rows := make([][]string, 0, len(terms))
			for _, t := range terms {
				rows = append(rows, []string{t.Term, strconv.FormatInt(t.Docs, 10)})
			}
			p.table([]string{"TERM", "DOCS"}, rows)
			return nil
		},
	}
	return cmd
}
