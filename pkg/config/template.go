package config

import (
	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/dedup/pkg/errors"
)

const templateHeader = `# dedup configuration.
# Command-line flags override anything set here.
# Environment variables of the form DEDUP_MIN_SIZE override both.

`

// Template renders the default configuration in the requested format
// ("toml" or "yaml"), for the genconfig command.
func Template(format string) ([]byte, error) {
	cfg := DefaultFileConfig()
	var (
		body []byte
		err  error
	)
	switch format {
	case "toml":
		body, err = gotoml.Marshal(cfg)
	case "yaml":
		body, err = yaml.Marshal(cfg)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown config format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render config template")
	}
	return append([]byte(templateHeader), body...), nil
}
