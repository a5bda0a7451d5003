package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vango-dev/kvstore/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. KVSTORE_SERVER_PORT.
const EnvPrefix = "KVSTORE"

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given, into the process environment without overriding ones already
// set. Missing files are ignored; a file that cannot be parsed is K021.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.New("K021").
				WithDetail("Failed to load " + p + ": " + err.Error()).
				WithSuggestion("Check that the file uses KEY=value lines").
				Wrap(err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from KVSTORE_* environment variables:
//
//	KVSTORE_SERVER_HOST, KVSTORE_SERVER_PORT
//	KVSTORE_LOG_LEVEL, KVSTORE_LOG_FORMAT
//	KVSTORE_METRICS_ENABLED, KVSTORE_METRICS_NAMESPACE, KVSTORE_METRICS_PATH
//	KVSTORE_TRACING_ENABLED, KVSTORE_TRACING_TRACERNAME
func (c *Config) ApplyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setString(v, "server.host", &c.Server.Host)
	if v.IsSet("server.port") {
		raw := v.GetString("server.port")
		port, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("K022").
				WithDetail(EnvPrefix + "_SERVER_PORT is not a number: " + strconv.Quote(raw))
		}
		c.Server.Port = port
	}

	setString(v, "log.level", &c.Log.Level)
	setString(v, "log.format", &c.Log.Format)

	setBool(v, "metrics.enabled", &c.Metrics.Enabled)
	setString(v, "metrics.namespace", &c.Metrics.Namespace)
	setString(v, "metrics.path", &c.Metrics.Path)

	setBool(v, "tracing.enabled", &c.Tracing.Enabled)
	setString(v, "tracing.tracername", &c.Tracing.TracerName)

	c.applyDefaults()
	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}
