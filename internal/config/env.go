package config

import (
	"context"
	"strings"

	"github.com/spf13/viper"
)

// EnvSource reads keys through viper with AutomaticEnv enabled, so the
// environment is consulted at lookup time and wins over any config file
// loaded into the same instance.
type EnvSource struct {
	v *viper.Viper
}

// NewEnvSource wraps v. A nil v gets a fresh instance. AutomaticEnv is always
// enabled.
func NewEnvSource(v *viper.Viper) *EnvSource {
	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()
	return &EnvSource{v: v}
}

func (s *EnvSource) Lookup(_ context.Context, key string) (string, bool, error) {
	val := strings.TrimSpace(s.v.GetString(key))
	return val, val != "", nil
}
