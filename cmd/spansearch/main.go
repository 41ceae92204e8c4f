// Command spansearch compiles and runs positional span queries over
// annotated corpora.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"spansearch/cmd/spansearch/cli"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cli.NewRootCommand(version).ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}
