// Command idcard is a terminal client for the onboarding API. It keeps the
// resolved ID card in a local cache file so later runs can show it offline.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Getenv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
