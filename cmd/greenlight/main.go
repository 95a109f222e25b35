// Command greenlight runs the approval workflow worker and its companion
// operator tooling (submitting items for review, recording decisions, and
// sweeping stale approvals).
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
