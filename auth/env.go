package auth

import (
	"log/slog"
	"os"
	"strconv"
)

// envCollector gathers environment lookups so the FromEnv constructors can
// report every missing variable at once instead of failing on the first.
type envCollector struct {
	missing []string
}

func (e *envCollector) get(name string) string {
	v := os.Getenv(name)
	if v == "" {
		e.missing = append(e.missing, name)
	}
	return v
}

func (e *envCollector) err(providerName string) error {
	if len(e.missing) == 0 {
		return nil
	}
	return &MissingConfigError{Provider: providerName, Missing: e.missing}
}

// envBool reads an optional boolean variable, warning and falling back to the
// default when the value does not parse.
func envBool(name string, def bool, logger *slog.Logger) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid boolean environment value, using default",
			"var", name, "value", v, "default", def)
		return def
	}
	return b
}
