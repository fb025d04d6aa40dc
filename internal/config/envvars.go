package config

import (
	"sort"

	"github.com/spf13/viper"
)

// EnvVarMapping defines the mapping between environment variables and config keys.
// ASANA_TOKEN and ASANA_PROJECT keep the names the dashboard has always used;
// everything else lives under the TASKDASH_ prefix.
var EnvVarMapping = map[string]string{
	"ASANA_TOKEN":             "asana.token",
	"ASANA_PROJECT":           "asana.project",
	"TASKDASH_ASANA_TOKEN":    "asana.token",
	"TASKDASH_ASANA_PROJECT":  "asana.project",
	"TASKDASH_ASANA_BASE_URL": "asana.base_url",
	"TASKDASH_ASANA_TIMEOUT":  "asana.timeout",
	"TASKDASH_ASANA_RETRIES":  "asana.max_retries",
	"TASKDASH_ASANA_PAGE":     "asana.page_size",
	// Cache
	"TASKDASH_CACHE_TTL":        "cache.ttl",
	"TASKDASH_CACHE_DRIVER":     "cache.driver",
	"TASKDASH_REDIS_ADDR":       "cache.redis.addr",
	"TASKDASH_REDIS_PASSWORD":   "cache.redis.password",
	"TASKDASH_REDIS_DB":         "cache.redis.db",
	"TASKDASH_REDIS_KEY_PREFIX": "cache.redis.key_prefix",
	// Server
	"TASKDASH_HOST": "server.host",
	"TASKDASH_PORT": "server.port",
	// Dashboard
	"TASKDASH_TITLE":             "dashboard.title",
	"TASKDASH_CHART_HEIGHT":      "dashboard.chart_height",
	"TASKDASH_SHOW_UNCLASSIFIED": "dashboard.show_unclassified",
	// Logging
	"TASKDASH_LOG_LEVEL":  "logging.level",
	"TASKDASH_LOG_FORMAT": "logging.format",
}

// bindEnvVars registers every mapped environment variable with v.
// When two variables map to the same key the unprefixed one wins, matching
// the names documented for the Asana credentials.
func bindEnvVars(v *viper.Viper) {
	byKey := make(map[string][]string)
	for envVar, key := range EnvVarMapping {
		byKey[key] = append(byKey[key], envVar)
	}
	for key, envVars := range byKey {
		// Shorter names (ASANA_TOKEN) sort before prefixed ones.
		sort.Slice(envVars, func(i, j int) bool {
			if len(envVars[i]) != len(envVars[j]) {
				return len(envVars[i]) < len(envVars[j])
			}
			return envVars[i] < envVars[j]
		})
		_ = v.BindEnv(append([]string{key}, envVars...)...)
	}
}
