package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultDotEnvPath is read by LoadDotEnv when no paths are given.
const DefaultDotEnvPath = ".env"

// LoadDotEnv copies variables from local .env files into the process
// environment. Variables already set are never overridden and missing files
// are skipped, so deployed environments are unaffected.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultDotEnvPath}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("loading %s: %w", path, err)
		}
	}

	return nil
}
