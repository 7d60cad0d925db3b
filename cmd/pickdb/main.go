// Command pickdb manages multivalue tables, their dictionaries and records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pickdb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
