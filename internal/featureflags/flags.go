package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether a flag is on. Flags are read from the
// environment as PROJECTFLOW_FLAG_<NAME>=true/1/yes (case-insensitive),
// so operators can toggle behavior without a config rollout.
func Enabled(name string) bool {
	v := os.Getenv("PROJECTFLOW_FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Maintenance gates the authenticated surface while the upstream API is
// being migrated; the public tracker keeps serving from cache.
const Maintenance = "maintenance"
