// Command expertchat serves a browser chat backed by fine-tuned expert
// models, keeping a single expert resident at a time.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
