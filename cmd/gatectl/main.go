package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ingestgate/internal/client/cli"
)

func main() {
	if err := cli.NewRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
