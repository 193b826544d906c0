package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cotb",
	Short: "Claude On The Beach - control a Claude terminal from anywhere",
	Long: `cotb launches Claude in a Terminal window, watches the session
through periodic screenshots, and relays its state to a remote
operator.

It allows you to:
  - Send commands and input responses from your phone
  - Get notified exactly once when a task completes
  - Get a screenshot whenever Claude is waiting on a question
  - Pull screenshots and rolling recordings on demand`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
