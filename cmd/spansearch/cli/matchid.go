package cli

import (
	"fmt"
	"strconv"

	"spansearch/internal/matchid"

	"github.com/spf13/cobra"
)

func (a *app) newMatchIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchid",
		Short: "Encode and decode match identifiers",
	}
	cmd.AddCommand(a.newMatchIDDecodeCmd(), a.newMatchIDEncodeCmd())
	return cmd
}

type matchIDView struct {
	ID        string             `json:"id"`
	Corpus    string             `json:"corpus,omitempty"`
	Doc       string             `json:"doc"`
	Start     int                `json:"start"`
	End       int                `json:"end"`
	Positions []matchid.Position `json:"positions,omitempty"`
}

func (a *app) newMatchIDDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <id>...",
		Short: "Decode match identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]matchIDView, 0, len(args))
			for _, arg := range args {
				id, ok := matchid.Decode(arg)
				if !ok {
					return fmt.Errorf("not a match identifier: %q", arg)
				}
				views = append(views, matchIDView{
					ID:        id.String(),
					Corpus:    id.CorpusID(),
					Doc:       id.DocID(),
					Start:     id.Start(),
					End:       id.End(),
					Positions: id.Positions(),
				})
			}

			p := a.printer(cmd)
			if p.isJSON() {
				return p.json(views)
			}
			for i, v := range views {
				if i > 0 {
					p.line("")
				}
				pairs := [][2]string{
					{"ID", v.ID},
					{"Corpus", v.Corpus},
					{"Document", v.Doc},
					{"Span", fmt.Sprintf("%d-%d", v.Start, v.End)},
				}
				for _, pos := range v.Positions {
					pairs = append(pairs, [2]string{"Class " + strconv.Itoa(pos.Class), fmt.Sprintf("%d-%d", pos.Start, pos.End)})
				}
				p.kv(pairs)
			}
			return nil
		},
	}
}

func (a *app) newMatchIDEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a match identifier",
		Long: `Encode a match identifier from its parts. Class sub-spans are given as
class:start-end, e.g. --class 1:2-3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, _ := cmd.Flags().GetString("corpus")
			doc, _ := cmd.Flags().GetString("doc")
			start, _ := cmd.Flags().GetInt("start")
			end, _ := cmd.Flags().GetInt("end")
			classes, _ := cmd.Flags().GetStringSlice("class")

			id := matchid.New(corpus, doc, start, end)
			for _, c := range classes {
				pos, err := parsePosition(c)
				if err != nil {
					return err
				}
				id.AddPosition(pos.Start, pos.End, pos.Class)
			}
			s := id.String()
			if s == "" {
				return fmt.Errorf("invalid document id %q", doc)
			}
			if a.printer(cmd).isJSON() {
				return a.printer(cmd).json(map[string]string{"id": s})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().String("corpus", "", "corpus id")
	cmd.Flags().String("doc", "", "document id")
	cmd.Flags().Int("start", 0, "match start position")
	cmd.Flags().Int("end", 0, "match end position")
	cmd.Flags().StringSlice("class", nil, "class sub-span class:start-end (repeatable)")
	return cmd
}

// parsePosition parses "class:start-end".
func parsePosition(s string) (matchid.Position, error) {
	var p matchid.Position
	if _, err := fmt.Sscanf(s, "%d:%d-%d", &p.Class, &p.Start, &p.End); err != nil {
		return p, fmt.Errorf("invalid class sub-span %q: want class:start-end", s)
	}
	if p.Class < 0 || p.Start < 0 || p.End < 0 {
		return p, fmt.Errorf("invalid class sub-span %q: negative value", s)
	}
	return p, nil
}
