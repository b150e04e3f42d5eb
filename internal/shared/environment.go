package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FEAT_"

// LoadEnvironment merges the variables of an optional .env file with the process environment.
//
// Process variables win over the file. A missing file is not an error.
func LoadEnvironment(path string) (map[string]string, error) {
	environment := make(map[string]string)

	if path != "" {
		fileEnvironment, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to load environment file (%s): %w", path, err)
		}
		for key, value := range fileEnvironment {
			environment[key] = value
		}
	}

	for _, specification := range os.Environ() {
		key, value, ok := strings.Cut(specification, "=")
		if !ok {
			continue
		}
		environment[key] = value
	}

	return environment, nil
}

// ApplyEnvironment overrides config values from FEAT_* variables, then validates the result.
//
//	FEAT_LOG_LEVEL, FEAT_DATABASE_PATH, FEAT_SERVER_HOST, FEAT_SERVER_PORT,
//	FEAT_UPLOAD_DIR, FEAT_UPLOAD_MAX_BYTES, FEAT_TOOL_COMMAND (space separated), FEAT_TOOL_TIMEOUT_SECONDS
func (c *Config) ApplyEnvironment(environment map[string]string) error {
	get := func(name string) (string, bool) {
		v, ok := environment[EnvPrefix+name]
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("DATABASE_PATH"); ok {
		c.Database.Path = v
	}
	if v, ok := get("SERVER_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := get("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sSERVER_PORT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v, ok := get("UPLOAD_DIR"); ok {
		c.Upload.Dir = v
	}
	if v, ok := get("UPLOAD_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sUPLOAD_MAX_BYTES: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Upload.MaxBytes = n
	}
	if v, ok := get("TOOL_COMMAND"); ok {
		c.Tool.Command = strings.Fields(v)
	}
	if v, ok := get("TOOL_TIMEOUT_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sTOOL_TIMEOUT_SECONDS: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Tool.TimeoutSeconds = n
	}

	return c.Validate()
}
