package env

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file without overriding
// variables that are already set. ENV_PATH, when set, replaces defaultPath
// and the file must then exist. A missing default file is skipped.
func LoadDotEnv(defaultPath string) error {
	envPath, explicit := os.LookupEnv("ENV_PATH")
	if !explicit || envPath == "" {
		envPath = defaultPath
		explicit = false
	}

	err := godotenv.Load(envPath)
	if err == nil {
		slog.Debug("loaded environment file", "path", envPath)
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		slog.Debug("skipping .env", "path", envPath)
		return nil
	}
	return err
}
