package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const defaultAppEnv = "dev"

func AppEnv() string {
	if v := os.Getenv("APP_ENV"); v != "" {
		return v
	}
	return defaultAppEnv
}

// Load reads dir/.env without touching variables that are already set, then
// overlays dir/.env.$APP_ENV on top of everything. Missing files are skipped.
// It returns the files that were actually loaded.
func Load(dir string) ([]string, error) {
	var loaded []string

	base := filepath.Join(dir, ".env")
	if err := godotenv.Load(base); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", base, err)
		}
	} else {
		loaded = append(loaded, base)
	}

	overlay := filepath.Join(dir, ".env."+AppEnv())
	if err := godotenv.Overload(overlay); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", overlay, err)
		}
	} else {
		loaded = append(loaded, overlay)
	}

	return loaded, nil
}
