package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/khabaroff/license-gate/src/client"
	"github.com/khabaroff/license-gate/src/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath(), "path to the client config file (YAML or JSON)")
	flag.Parse()

	logging.Setup(logging.Config{
		Level:  getEnv("LOG_LEVEL", "error"),
		Format: "pretty",
	})

	cfg, err := client.LoadConfig(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring client config file")
	}

	decision := client.NewGate(cfg).Check(context.Background())
	for _, msg := range decision.Messages {
		fmt.Println(msg)
	}

	if !decision.Allowed {
		return 1
	}
	return 0
}

// defaultConfigPath places the config file next to the executable
func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return client.DefaultConfigFile
	}
	return filepath.Join(filepath.Dir(exe), client.DefaultConfigFile)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
