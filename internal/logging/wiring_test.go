package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"spansearch/internal/config"
	"spansearch/internal/index"
	"spansearch/internal/logging"
	"spansearch/internal/memtest"
	"spansearch/internal/search"
)

const baum = `{"@type":"koral:token","wrap":{"@type":"koral:term","layer":"orth","key":"Baum"}}`

// Records of the compiler and the searcher are filtered by their own
// component names, as the command line sets them up.
func TestSearchRecordsByComponent(t *testing.T) {
	tests := []struct {
		name      string
		component string
		want      string
		dropped   string
	}{
		{name: "compiler", component: "koral-compiler", want: `msg="query compiled"`, dropped: `msg="query executed"`},
		{name: "searcher", component: "searcher", want: `msg="query executed"`, dropped: `msg="query compiled"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.New(&buf, slog.LevelInfo, map[string]slog.Level{tt.component: slog.LevelDebug})
			seg := memtest.Segment("tokens", memtest.Doc{Name: "d1", Tokens: []string{"s:Baum"}})
			s := search.New(config.Default(), []index.Segment{seg}, search.WithLogger(logger))

			if _, err := s.Search(context.Background(), []byte(baum), 0); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("missing %s in %q", tt.want, out)
			}
			if strings.Contains(out, tt.dropped) {
				t.Errorf("unexpected %s in %q", tt.dropped, out)
			}
			if n := strings.Count(out, "component="); n != 1 {
				t.Errorf("got %d component attrs, want 1: %q", n, out)
			}
		})
	}
}
