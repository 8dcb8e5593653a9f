package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.ModelDir)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "auto", cfg.EmbeddingProvider)
	assert.Equal(t, 256, cfg.HashDimension)
	assert.Equal(t, "", cfg.CategoriesFile)
	assert.Equal(t, 3, cfg.DefaultTopK)
	assert.Equal(t, 1, cfg.BatchTopK)
	assert.Equal(t, 4, cfg.BatchParallelism)
	assert.Equal(t, "*", cfg.CORSAllowedOrigins)

	assert.Equal(t, 60.0, cfg.EmbeddingEndpoint.Timeout)
	assert.Equal(t, 0, cfg.EmbeddingEndpoint.MaxRetries)
	assert.Equal(t, 2.0, cfg.EmbeddingEndpoint.InitialDelay)
	assert.Equal(t, 2.0, cfg.EmbeddingEndpoint.BackoffFactor)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals, so keep them in sync with the constants.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultHashDimension, cfg.HashDimension)
	assert.Equal(t, DefaultTopK, cfg.DefaultTopK)
	assert.Equal(t, DefaultBatchTopK, cfg.BatchTopK)
	assert.Equal(t, DefaultBatchParallelism, cfg.BatchParallelism)

	endpoint := cfg.EmbeddingEndpoint.ToEndpoint()
	assert.Equal(t, DefaultEndpointTimeout, endpoint.Timeout())
	assert.Equal(t, DefaultEndpointMaxRetries, endpoint.MaxRetries())
	assert.Equal(t, DefaultEndpointInitialDelay, endpoint.InitialDelay())
	assert.Equal(t, DefaultEndpointBackoffFactor, endpoint.BackoffFactor())
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_DIR", "/custom/data")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("HASH_DIMENSION", "512")
	t.Setenv("DEFAULT_TOP_K", "5")
	t.Setenv("BATCH_PARALLELISM", "8")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/custom/data", cfg.DataDir)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "hash", cfg.EmbeddingProvider)
	assert.Equal(t, 512, cfg.HashDimension)
	assert.Equal(t, 5, cfg.DefaultTopK)
	assert.Equal(t, 8, cfg.BatchParallelism)
}

func TestLoadFromEnv_InvalidNumber(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "not-a-port")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_EmbeddingEndpoint(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("EMBEDDING_ENDPOINT_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("EMBEDDING_ENDPOINT_MODEL", "nomic-embed-text")
	t.Setenv("EMBEDDING_ENDPOINT_API_KEY", "secret")
	t.Setenv("EMBEDDING_ENDPOINT_TIMEOUT", "30")
	t.Setenv("EMBEDDING_ENDPOINT_MAX_RETRIES", "3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.EmbeddingEndpoint.IsConfigured())
	endpoint := cfg.EmbeddingEndpoint.ToEndpoint()
	assert.Equal(t, "http://localhost:11434/v1", endpoint.BaseURL())
	assert.Equal(t, "nomic-embed-text", endpoint.Model())
	assert.Equal(t, "secret", endpoint.APIKey())
	assert.Equal(t, 30*time.Second, endpoint.Timeout())
	assert.Equal(t, 3, endpoint.MaxRetries())
}

func TestEnvConfig_ToAppConfig(t *testing.T) {
	env := EnvConfig{
		Host:               "0.0.0.0",
		Port:               9999,
		DataDir:            "/data",
		LogLevel:           "WARN",
		LogFormat:          "json",
		EmbeddingProvider:  "OpenAI",
		EmbeddingEndpoint:  EndpointEnv{Model: "text-embedding-3-small", Timeout: 10},
		HashDimension:      64,
		CategoriesFile:     "/etc/categories.yaml",
		DefaultTopK:        4,
		BatchTopK:          2,
		BatchParallelism:   16,
		HTTPCacheDir:       "/tmp/cache",
		CORSAllowedOrigins: "https://a.example, https://b.example",
	}

	cfg, err := env.ToAppConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Addr())
	assert.Equal(t, "/data", cfg.DataDir())
	assert.Equal(t, filepath.Join("/data", "models"), cfg.ModelDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, ProviderOpenAI, cfg.Provider())
	require.NotNil(t, cfg.EmbeddingEndpoint())
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingEndpoint().Model())
	assert.Equal(t, 10*time.Second, cfg.EmbeddingEndpoint().Timeout())
	assert.Equal(t, 64, cfg.HashDimension())
	assert.Equal(t, "/etc/categories.yaml", cfg.CategoriesFile())
	assert.Equal(t, 4, cfg.DefaultTopK())
	assert.Equal(t, 2, cfg.BatchTopK())
	assert.Equal(t, 16, cfg.BatchParallelism())
	assert.Equal(t, "/tmp/cache", cfg.HTTPCacheDir())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins())
}

func TestEnvConfig_ToAppConfig_UnknownProvider(t *testing.T) {
	_, err := EnvConfig{EmbeddingProvider: "word2vec"}.ToAppConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word2vec")
}

func TestEnvConfig_ToAppConfig_NoEndpoint(t *testing.T) {
	cfg, err := EnvConfig{}.ToAppConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.EmbeddingEndpoint())
	assert.Equal(t, ProviderAuto, cfg.Provider())
}

func TestEndpointEnv_ToEndpoint(t *testing.T) {
	env := EndpointEnv{
		BaseURL:       "https://api.example.com/v1",
		Model:         "embed-large",
		APIKey:        "key",
		Timeout:       1.5,
		MaxRetries:    2,
		InitialDelay:  0.5,
		BackoffFactor: 3,
	}

	endpoint := env.ToEndpoint()
	assert.Equal(t, "https://api.example.com/v1", endpoint.BaseURL())
	assert.Equal(t, "embed-large", endpoint.Model())
	assert.Equal(t, "key", endpoint.APIKey())
	assert.Equal(t, 1500*time.Millisecond, endpoint.Timeout())
	assert.Equal(t, 2, endpoint.MaxRetries())
	assert.Equal(t, 500*time.Millisecond, endpoint.InitialDelay())
	assert.Equal(t, 3.0, endpoint.BackoffFactor())
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input string
		want  LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"pretty", LogFormatPretty},
		{"", LogFormatPretty},
		{"unknown", LogFormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogFormat(tt.input))
		})
	}
}

func writeEnvFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, EnvFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDotEnv_ExplicitFile(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATA_DIR", t.TempDir())

	envFile := writeEnvFile(t, t.TempDir(), `LOG_LEVEL=DEBUG
CATEGORIES_FILE=/from/dotenv/categories.yaml
`)

	files, err := LoadDotEnv(envFile)
	require.NoError(t, err)

	assert.Equal(t, []string{envFile}, files)
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "/from/dotenv/categories.yaml", os.Getenv("CATEGORIES_FILE"))
}

func TestLoadDotEnv_ExplicitFileMustExist(t *testing.T) {
	clearEnvVars(t)

	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATA_DIR", t.TempDir())
	t.Chdir(t.TempDir())

	files, err := LoadDotEnv("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoadDotEnv_DataDirFileFillsGaps(t *testing.T) {
	clearEnvVars(t)

	dataDir := t.TempDir()
	installFile := writeEnvFile(t, dataDir, `EMBEDDING_ENDPOINT_API_KEY=sk-install
EMBEDDING_ENDPOINT_MODEL=install-model
`)

	workDir := t.TempDir()
	writeEnvFile(t, workDir, "DATA_DIR="+dataDir+"\nEMBEDDING_ENDPOINT_MODEL=project-model\n")
	t.Chdir(workDir)

	files, err := LoadDotEnv("")
	require.NoError(t, err)

	assert.Equal(t, []string{EnvFileName, installFile}, files)
	assert.Equal(t, "project-model", os.Getenv("EMBEDDING_ENDPOINT_MODEL"), "the project file wins")
	assert.Equal(t, "sk-install", os.Getenv("EMBEDDING_ENDPOINT_API_KEY"))
}

func TestLoadDotEnv_DataDirFileLoadedOnce(t *testing.T) {
	clearEnvVars(t)

	dataDir := t.TempDir()
	envFile := writeEnvFile(t, dataDir, "PORT=7001\n")
	t.Setenv("DATA_DIR", dataDir)

	files, err := LoadDotEnv(envFile)
	require.NoError(t, err)
	assert.Equal(t, []string{envFile}, files)
}

func TestLoadConfig(t *testing.T) {
	clearEnvVars(t)

	dataDir := t.TempDir()
	envFile := writeEnvFile(t, t.TempDir(), "DATA_DIR="+dataDir+`
LOG_LEVEL=WARN
EMBEDDING_PROVIDER=openai
EMBEDDING_ENDPOINT_BASE_URL=http://localhost:11434/v1
EMBEDDING_ENDPOINT_MODEL=test-embedding
EMBEDDING_ENDPOINT_MAX_RETRIES=2
`)

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, ProviderOpenAI, cfg.Provider())
	require.NotNil(t, cfg.EmbeddingEndpoint())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingEndpoint().BaseURL())
	assert.Equal(t, "test-embedding", cfg.EmbeddingEndpoint().Model())
	assert.Equal(t, 2, cfg.EmbeddingEndpoint().MaxRetries())
	assert.Equal(t, []string{envFile}, cfg.EnvFiles())
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "7100")

	envFile := writeEnvFile(t, t.TempDir(), "PORT=7000\n")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port())
}

func TestLoadConfig_InvalidProvider(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATA_DIR", t.TempDir())

	envFile := writeEnvFile(t, t.TempDir(), "EMBEDDING_PROVIDER=word2vec\n")

	_, err := LoadConfig(envFile)
	require.Error(t, err)
}

// clearEnvVars unsets every config-related environment variable for the
// duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"DATA_DIR",
		"MODEL_DIR",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"EMBEDDING_PROVIDER",
		"EMBEDDING_ENDPOINT_BASE_URL",
		"EMBEDDING_ENDPOINT_MODEL",
		"EMBEDDING_ENDPOINT_API_KEY",
		"EMBEDDING_ENDPOINT_TIMEOUT",
		"EMBEDDING_ENDPOINT_MAX_RETRIES",
		"EMBEDDING_ENDPOINT_INITIAL_DELAY",
		"EMBEDDING_ENDPOINT_BACKOFF_FACTOR",
		"HASH_DIMENSION",
		"CATEGORIES_FILE",
		"DEFAULT_TOP_K",
		"BATCH_TOP_K",
		"BATCH_PARALLELISM",
		"HTTP_CACHE_DIR",
		"CORS_ALLOWED_ORIGINS",
	}

	for _, v := range vars {
		t.Setenv(v, "")
		_ = os.Unsetenv(v)
	}
}
