// collections serves the chat, hotel and quotes resources over HTTP.
//
// Usage:
//
//	collections all    [--port=9090] [--config=collections.yaml]
//	collections chat   [--port=9090]
//	collections hotel  [--port=9090]
//	collections quotes [--port=9090]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
