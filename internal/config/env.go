package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles lists .env files in order of precedence. godotenv never
// overrides a variable that is already set, so earlier files win and the
// real environment wins over all of them.
func envFiles() []string {
	files := []string{}
	if explicit := os.Getenv("ENV_FILE"); explicit != "" {
		files = append(files, expandPath(explicit))
	}
	files = append(files, ".env.local", ".env")

	if homeDir, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(homeDir, ".gitdigest", ".env"))
	}
	return files
}

// loadEnvFiles loads every existing .env file; unreadable files are skipped
func loadEnvFiles() []string {
	var loaded []string
	for _, file := range envFiles() {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err == nil {
			loaded = append(loaded, file)
		}
	}
	return loaded
}
