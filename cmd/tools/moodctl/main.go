// Command moodctl inspects and edits the mood journal directly in the durable
// store, without going through the HTTP server.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(openStore).Execute(); err != nil {
		os.Exit(1)
	}
}
