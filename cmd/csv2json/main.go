package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jlfwebstudio/tabela-node-backend/internal/cli"
)

// Populated by the release build
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Same .env as the server, but real environment variables win here.
	_ = godotenv.Load()

	if err := cli.New(cli.BuildInfo{Version: version, Date: date}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "csv2json:", err)
		os.Exit(1)
	}
}
