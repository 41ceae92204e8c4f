package cli

import (
	"fmt"
	"os"
	"slices"

	"spansearch/internal/corpus"
	"spansearch/internal/index/file"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

func (a *app) newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <corpus-pattern>...",
		Short: "Build an index segment from corpus documents",
		Long: `Load annotated documents from every JSON file matched by the patterns
(doublestar syntax), build one segment from them and write it to a new
directory below --root, by default the segments directory of the home
directory. The segment directory is printed on success.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			if root == "" {
				hd := a.cfg.HomeDir()
				if err := hd.EnsureSegmentsDir(); err != nil {
					return err
				}
				root = hd.SegmentsDir()
			}
			paths, err := expandFiles(args)
			if err != nil {
				return err
			}

			var docs []corpus.Document
			for _, path := range paths {
				loaded, err := loadCorpusFile(path)
				if err != nil {
					return err
				}
				docs = append(docs, loaded...)
			}
			seg, err := corpus.Build(docs, a.cfg.Field)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(root, 0o755); err != nil {
				return err
			}
			dir, err := file.Write(root, seg, file.WithCompression(a.cfg.Compress))
			if err != nil {
				return err
			}
			a.logger.Info("segment written",
				"dir", dir, "id", seg.ID(), "files", len(paths), "docs", seg.NumDocs(), "compressed", a.cfg.Compress)

			p := a.printer(cmd)
			if p.isJSON() {
				return p.json(map[string]any{"dir": dir, "id": seg.ID(), "docs": seg.NumDocs()})
			}
			p.line("%s", dir)
			return nil
		},
	}
	cmd.Flags().String("root", "", "directory the segment is written below")
	cmd.Flags().Bool("compress", false, "store postings as seekable zstd")
	return cmd
}

// expandFiles resolves the patterns to a sorted, deduplicated list of
// files. A pattern matching nothing is an error.
func expandFiles(patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matches no files", pattern)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func loadCorpusFile(path string) ([]corpus.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	docs, err := corpus.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}
