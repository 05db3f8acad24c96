package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

var errNoBytes = errors.New("confloader: overrides are read as a map")

// overrides feeds flat dotted keys ("server.urls") into koanf. Keys are
// unflattened on read so they merge with the nested file and env trees.
type overrides struct {
	values map[string]any
	delim  string
}

func (o overrides) ReadBytes() ([]byte, error) {
	return nil, errNoBytes
}

func (o overrides) Read() (map[string]any, error) {
	flat := make(map[string]any, len(o.values))
	for k, v := range o.values {
		flat[k] = v
	}
	return maps.Unflatten(flat, o.delim), nil
}
