// Command discogs-cache builds and maintains a deduplicated, library-
// matched cache of Discogs release metadata in Postgres.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "discogs-cache",
		Short: "Build and maintain the WXYC Discogs release cache",
	}
	root.AddCommand(newRunCmd())
	return root
}
