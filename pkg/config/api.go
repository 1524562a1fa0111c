package config

import (
	"fmt"
	"strings"
)

// Supported values for APIConfig.PatchMode.
const (
	// PatchModeStrict lets PATCH change the price only and requires it in the body.
	PatchModeStrict = "strict"
	// PatchModeLoose applies any subset of product fields sent in the body.
	PatchModeLoose = "loose"
)

type APIConfig struct {
	PatchMode string `koanf:"patchmode"`
}

// String returns a string representation of the API behavior configuration.
func (c *APIConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- API ---\n")
	b.WriteString(fmt.Sprintf("  patchmode: %s\n", c.PatchMode))
	return b.String()
}

func (c *APIConfig) Validate() error {
	switch c.PatchMode {
	case PatchModeStrict, PatchModeLoose:
		return nil
	default:
		return fmt.Errorf("unsupported api patch mode: %q", c.PatchMode)
	}
}
