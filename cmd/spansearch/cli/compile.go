package cli

import (
	"strconv"

	"spansearch/internal/koral"

	"github.com/spf13/cobra"
)

func (a *app) newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <query | @file | ->",
		Short: "Compile a KoralQuery document and print the span query",
		Long: `Compile a KoralQuery document into a span query.

The query is given inline, read from a file with @path, or from standard
input with -. Notifications raised during compilation are listed below the
compiled query. Compilation errors exit non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, cerr := koral.New(a.cfg.Field, koral.WithLogger(a.logger)).Compile(data)

			p := a.printer(cmd)
			if p.isJSON() {
				out := struct {
					Query         string              `json:"query,omitempty"`
					Notifications koral.Notifications `json:"notifications,omitempty"`
				}{Notifications: res.Notifications}
				if cerr == nil {
					out.Query = res.Node.String()
				}
				if err := p.json(out); err != nil {
					return err
				}
				return cerr
			}

			if cerr == nil {
				p.line("%s", res.Node.String())
			}
			printNotifications(p, res.Notifications)
			return cerr
		},
	}
}

func printNotifications(p *printer, notes koral.Notifications) {
	if len(notes) == 0 {
		return
	}
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{n.Severity.String(), strconv.Itoa(n.Code), n.Text})
	}
	p.line("")
	p.table([]string{"SEVERITY", "CODE", "MESSAGE"}, rows)
}
