package config

import (
	"strings"

	"github.com/abgdnv/produce/pkg/config"
	"github.com/abgdnv/produce/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// ServiceName prefixes the service's environment variables (PRODUCT_SERVER_PORT, ...).
const ServiceName = "product"

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Database   config.DatabaseConfig   `koanf:"database"`
	API        config.APIConfig        `koanf:"api"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// LoaderOptions returns the defaults and legacy environment aliases of the product service.
func LoaderOptions() configloader.Options {
	return configloader.Options{
		Defaults: map[string]any{
			"server.port":               config.DefaultHTTPPort,
			"server.maxHeaderBytes":     1 << 20,
			"server.timeout.read":       "10s",
			"server.timeout.write":      "10s",
			"server.timeout.idle":       "60s",
			"server.timeout.readHeader": "5s",
			"database.driver":           config.DriverMongo,
			"database.url":              "mongodb://localhost:27017",
			"database.name":             "farm",
			"database.timeout":          "10s",
			"api.patchmode":             config.PatchModeStrict,
			"log.level":                 "info",
			"pprof.enabled":             false,
			"pprof.addr":                ":6060",
			"grpc.port":                 "3009",
			"grpc.reflection":           false,
			"shutdown.timeout":          "30s",
			"nats.enabled":              false,
			"nats.timeout":              "5s",
			"telemetry.enabled":         false,
		},
		Aliases: map[string]string{
			"PORT":        "server.port",
			"MONGODB_URI": "database.url",
		},
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.API.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Database,
		&c.API,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
		&c.GRPC,
		&c.NATS,
		&c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
