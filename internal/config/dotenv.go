package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the dotenv file looked up in the working directory and in
// the data directory.
const EnvFileName = ".env"

// LoadDotEnv applies dotenv files to the process environment and returns the
// files it read. Variables that are already set are never overridden, so the
// first source to set a key wins:
//
//  1. path if given, which must exist; otherwise ./.env if present
//  2. {DATA_DIR}/.env if present, where DATA_DIR is read after step 1
//
// The data directory file holds per-install settings such as
// EMBEDDING_ENDPOINT_API_KEY that should not live in a project checkout.
func LoadDotEnv(path string) ([]string, error) {
	var loaded []string

	first := path
	if first == "" {
		first = EnvFileName
	}
	ok, err := applyEnvFile(first, path != "")
	if err != nil {
		return nil, err
	}
	if ok {
		loaded = append(loaded, first)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	installFile := filepath.Join(dataDir, EnvFileName)
	if sameFile(installFile, first) {
		return loaded, nil
	}
	ok, err = applyEnvFile(installFile, false)
	if err != nil {
		return nil, err
	}
	if ok {
		loaded = append(loaded, installFile)
	}
	return loaded, nil
}

// applyEnvFile loads one file without overriding set variables. A missing
// file is an error only when required.
func applyEnvFile(path string, required bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return false, nil
		}
		return false, fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return true, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// LoadConfig resolves the AppConfig from defaults, dotenv files and the
// environment, in increasing precedence. Command line flags are applied by
// the caller on top.
func LoadConfig(envPath string) (AppConfig, error) {
	files, err := LoadDotEnv(envPath)
	if err != nil {
		return AppConfig{}, err
	}

	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, err
	}

	cfg, err := envCfg.ToAppConfig()
	if err != nil {
		return AppConfig{}, err
	}
	return cfg.Apply(WithEnvFiles(files...)), nil
}
