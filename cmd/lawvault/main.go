// The lawvault command archives the Cornell LII law collection into a local
// database: seed enqueues the initial discovery jobs, run works the queue,
// serve exposes the read API, and stats and reset operate on the queue.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
