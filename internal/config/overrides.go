package config

import (
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigurationPreference decides whether editor-supplied settings or a
// discovered `.trivet.toml` / `trivet.toml` win when both are present.
// Editor integrations pass it through from their own configuration.
type ConfigurationPreference string

const (
	ConfigurationPreferenceEditorFirst     ConfigurationPreference = "editorFirst"
	ConfigurationPreferenceFilesystemFirst ConfigurationPreference = "filesystemFirst"
	ConfigurationPreferenceEditorOnly      ConfigurationPreference = "editorOnly"
)

func normalizeConfigurationPreference(p ConfigurationPreference) ConfigurationPreference {
	switch p {
	case ConfigurationPreferenceEditorFirst, ConfigurationPreferenceFilesystemFirst, ConfigurationPreferenceEditorOnly:
		return p
	default:
		return ConfigurationPreferenceEditorFirst
	}
}

// LoadWithOverrides resolves the config for targetPath, layering an
// optional overrides map per preference. The map uses the nested shape of
// the TOML file:
//
//	overrides := map[string]any{
//	  "output": map[string]any{"format": "json"},
//	  "rules": map[string]any{"include": []any{"trivet/*"}},
//	}
//
// Layering on top of the defaults:
//
//   - editorFirst: filesystem config, env, overrides
//   - filesystemFirst: overrides, filesystem config, env
//   - editorOnly: env, overrides (no filesystem discovery)
func LoadWithOverrides(targetPath string, overrides map[string]any, preference ConfigurationPreference) (*Config, error) {
	preference = normalizeConfigurationPreference(preference)

	configPath := ""
	if preference != ConfigurationPreferenceEditorOnly {
		configPath = Discover(targetPath)
	}
	return loadLayered(configPath, overrides, preference)
}

// LoadFromFileWithOverrides loads the named config file (no discovery) and
// layers an overrides map over file and environment values.
func LoadFromFileWithOverrides(configPath string, overrides map[string]any) (*Config, error) {
	return loadLayered(configPath, overrides, ConfigurationPreferenceEditorFirst)
}

// configLayer is one merge step applied to the koanf instance. Later
// layers win over earlier ones.
type configLayer func(*koanf.Koanf) error

func loadLayered(configPath string, overrides map[string]any, preference ConfigurationPreference) (*Config, error) {
	fromFile := func(k *koanf.Koanf) error { return loadConfigFile(k, configPath) }
	fromEnv := loadEnv
	fromOverrides := func(k *koanf.Koanf) error { return loadOverrides(k, overrides) }

	var layers []configLayer
	switch normalizeConfigurationPreference(preference) {
	case ConfigurationPreferenceEditorOnly:
		layers = []configLayer{fromEnv, fromOverrides}
	case ConfigurationPreferenceFilesystemFirst:
		layers = []configLayer{fromOverrides, fromFile, fromEnv}
	default:
		layers = []configLayer{fromFile, fromEnv, fromOverrides}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}
	for _, layer := range layers {
		if err := layer(k); err != nil {
			return nil, err
		}
	}

	cfg, err := decodeConfig(k.Raw())
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

func loadOverrides(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, ""), nil)
}
