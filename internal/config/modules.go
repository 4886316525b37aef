package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ModulesConfig is the versioned list of platform modules every new
// organisation must initialize. The coordinator derives the expected
// set of module rows from this list, never from which handlers happen
// to be subscribed.
type ModulesConfig struct {
	Modules []string `mapstructure:"modules"`
}

func DefaultModulesConfig() ModulesConfig {
	return ModulesConfig{
		Modules: []string{"Catalog", "Shop"},
	}
}

type ModulesConfigHolder struct {
	current atomic.Value // holds ModulesConfig
}

func NewModulesConfigHolder() (*ModulesConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("platform")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/bizhub/config")
	v.AddConfigPath("/etc/bizhub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BIZHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultModulesConfig()
		v.SetDefault("platform.modules", defaults.Modules)
	}

	var cfg ModulesConfig
	if err := v.UnmarshalKey("platform", &cfg); err != nil {
		return nil, err
	}
	if err := validateModulesConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ModulesConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ModulesConfig
		if err := v.UnmarshalKey("platform", &updated); err != nil {
			log.Printf("[platform-config] reload failed: %v", err)
			return
		}
		if err := validateModulesConfig(updated); err != nil {
			log.Printf("[platform-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[platform-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticModulesConfigHolder builds a holder pinned to the given module
// names, bypassing file discovery. Used by tests and embedded setups.
func NewStaticModulesConfigHolder(modules ...string) *ModulesConfigHolder {
	holder := &ModulesConfigHolder{}
	holder.current.Store(ModulesConfig{Modules: modules})
	return holder
}

func (h *ModulesConfigHolder) Get() ModulesConfig {
	return h.current.Load().(ModulesConfig)
}

func validateModulesConfig(cfg ModulesConfig) error {
	if len(cfg.Modules) == 0 {
		return errors.New("platform.modules cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Modules))
	for _, name := range cfg.Modules {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("platform.modules cannot contain empty names")
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return errors.New("platform.modules cannot contain duplicates")
		}
		seen[key] = struct{}{}
	}
	return nil
}
