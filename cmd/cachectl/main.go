// Package main is cachectl, an operator CLI driving a cache backend through the manager.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/limccn/omi-cache-manager/internal/pkg/logging"
)

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), "console")

	if err := execute(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("cachectl failed")
		os.Exit(1)
	}
}
