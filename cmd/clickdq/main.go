// clickdq is the clickstream data-quality pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/xtxerr/clickdq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
