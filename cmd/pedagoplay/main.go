// Command pedagoplay is the command-line front end of the activity planner.
package main

import (
	"fmt"
	"os"

	"pedagoplay/internal/cli"
	"pedagoplay/internal/common/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		msg := err.Error()
		if stdErr, ok := errors.AsStandardError(err); ok {
			msg = stdErr.Message
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(1)
	}
}
