// Command dmersetl loads and reports on the DMERS analytics warehouse.
package main

import (
	"fmt"
	"os"

	"github.com/dmers-project/dmersetl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
