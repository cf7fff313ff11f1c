// Command vaulted is a personal knowledge vault with semantic search.
package main

import (
	"os"

	"github.com/custodia-labs/vaulted-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
