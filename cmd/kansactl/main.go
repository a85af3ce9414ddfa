package main

import (
	"github.com/joho/godotenv"

	"github.com/torii-ai/kansa/internal/cli"
)

func main() {
	// Best-effort: a missing .env is fine, the environment still applies.
	_ = godotenv.Load()
	cli.Execute()
}
