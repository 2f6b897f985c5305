// Command tempo compiles, inspects and plays composite timelines, and runs
// timeline scenarios as tests.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tempo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
