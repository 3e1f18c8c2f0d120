// Command trackctl sends tracking events to the Conversions API from the
// command line. Events are always built in clean mode: no request context
// is attached.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand(os.Stdout, nil)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
