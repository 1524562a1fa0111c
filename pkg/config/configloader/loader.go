package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

// Options tune where Load looks for configuration.
type Options struct {
	// Defaults are loaded first and have the lowest priority. Keys are dotted koanf paths.
	Defaults map[string]any
	// Aliases maps unprefixed environment variables (e.g. PORT) to koanf paths.
	// They override the file and .env values but not the prefixed variables.
	Aliases map[string]string
	// ConfigFile defaults to "config.yaml".
	ConfigFile string
	// EnvFile defaults to ".env".
	EnvFile string
}

// Load builds T from, in increasing priority: defaults, the yaml config file, the .env file,
// aliased plain environment variables and <SERVICE_NAME>_ prefixed environment variables.
func Load[T Validator](serviceName string, opts Options) (T, error) {
	var cfg T
	// Create a new Koanf instance
	k := koanf.New(".")

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = "config.yaml"
	}
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(serviceName))

	// 0. Defaults, the lowest priority
	if len(opts.Defaults) > 0 {
		if err := k.Load(confmap.Provider(opts.Defaults, "."), nil); err != nil {
			return cfg, fmt.Errorf("error loading defaults: %w", err)
		}
	}

	// 1. Load configuration from yaml file
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
		}
	}

	// 2. Load environment variables from .env file
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	if envFileMap, err := godotenv.Read(envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if path, ok := opts.Aliases[key]; ok {
				envMap[path] = value
				continue
			}
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		// Load the envMap into Koanf
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. Plain environment variables kept for compatibility with older deployments
	if aliased := aliasedEnv(opts.Aliases); len(aliased) > 0 {
		if err := k.Load(confmap.Provider(aliased, "."), nil); err != nil {
			log.Printf("WARN: error loading aliased env vars: %v", err)
		}
	}

	// 4. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	// 5. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 6. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func aliasedEnv(aliases map[string]string) map[string]any {
	out := make(map[string]any)
	for name, path := range aliases {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			out[path] = value
		}
	}
	return out
}
