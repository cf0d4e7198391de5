package dynastream

import (
	"github.com/zpiroux/dynastream/entity"
	"github.com/zpiroux/dynastream/internal/service"
)

// Config needs to be created with NewConfig() or NewConfigFromJSON() and filled in with config
// as applicable, and provided in the call to dynastream.New().
// All config fields are optional. The default config decodes records without computing any
// diff, with set attributes flattened into slices.
type Config struct {

	// DiffMode selects which diff between OldImage and NewImage to add to the transformed
	// records, as Diff in the payload. Use entity.ParseDiffMode() to map from names such as
	// "added", "deleted", "updated", "detailed" and "true".
	DiffMode entity.DiffMode

	// Decode holds the options used when decoding Keys, NewImage and OldImage.
	Decode entity.DecodeOptions

	initialized bool
}

// NewConfig returns an initialized Config struct, required for dynastream.New().
func NewConfig() *Config {
	return &Config{
		DiffMode:    entity.DiffNone,
		initialized: true,
	}
}

// NewConfigFromJSON creates a Config from a JSON spec, such as
//
//	{"diffMode": "updated", "options": {"wrapSets": true}}
//
// The spec is validated against the spec JSON schema, see entity.NewSpec().
func NewConfigFromJSON(specData []byte) (*Config, error) {
	spec, err := entity.NewSpec(specData)
	if err != nil {
		return nil, errWithDetails(ErrInvalidSpec, err)
	}
	c := NewConfig()
	c.DiffMode = spec.DiffMode
	c.Decode = spec.Options
	return c, nil
}

// Spec returns the JSON spec form of the config.
func (c *Config) Spec() *entity.Spec {
	return &entity.Spec{
		DiffMode: c.DiffMode,
		Options:  c.Decode,
	}
}

func preProcessConfig(config *Config) service.Config {
	var c service.Config
	c.Spec.DiffMode = config.DiffMode
	c.Spec.Options = config.Decode
	return c
}
