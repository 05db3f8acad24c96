package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "BINDPLAN_"

// EnvLevelSeparator separates nesting levels in environment variable
// names. A single underscore stays part of the key.
const EnvLevelSeparator = "__"

const keyDelim = "."

// Loader layers a YAML file, the environment and flag overrides, in
// increasing precedence.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file read by Load. Empty means none.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{k: koanf.New(keyDelim), envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configured file path, or "".
func (l *Loader) FilePath() string {
	return l.filePath
}

// Load reads the file and the environment, then unmarshals into target.
// Fields absent from both keep their value, so target should hold the
// defaults. Flag overrides go through LoadMap and a second Unmarshal.
func (l *Loader) Load(target any) error {
	if err := l.LoadFile(l.filePath); err != nil {
		return err
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv merges prefixed environment variables.
// BINDPLAN_SERVER__PREFER_HOSTING_URLS=true sets server.prefer_hosting_urls.
// Variable names are case-insensitive, so each key segment takes the
// casing of a key already loaded: BINDPLAN_SERVER__ENDPOINTS__PRIMARY__URL
// overrides the url of a file endpoint named Primary.
func (l *Loader) LoadEnv() error {
	tree := l.k.Raw()
	key := func(s string) string { return canonicalKey(tree, l.envKey(s)) }
	if err := l.k.Load(env.Provider(l.envPrefix, keyDelim, key), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	return strings.ReplaceAll(s, EnvLevelSeparator, keyDelim)
}

// LoadMap merges flat dotted keys, e.g. from command-line flags.
func (l *Loader) LoadMap(values map[string]any) error {
	tree := l.k.Raw()
	folded := make(map[string]any, len(values))
	for k, v := range values {
		folded[canonicalKey(tree, k)] = v
	}
	if err := l.k.Load(overrides{values: folded, delim: keyDelim}, nil); err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	return nil
}

// canonicalKey rewrites each segment of a dotted key to the casing of an
// existing key in tree that matches it case-insensitively. Segments with
// no match are kept as given. When several keys match, the exact one wins,
// then the lexically smallest.
func canonicalKey(tree map[string]any, key string) string {
	parts := strings.Split(key, keyDelim)
	node := tree
	for i, part := range parts {
		if node == nil {
			break
		}
		if _, ok := node[part]; !ok {
			var match string
			for k := range node {
				if strings.EqualFold(k, part) && (match == "" || k < match) {
					match = k
				}
			}
			if match != "" {
				parts[i] = match
			}
		}
		node, _ = node[parts[i]].(map[string]any)
	}
	return strings.Join(parts, keyDelim)
}

// Unmarshal decodes everything merged so far into target using koanf
// struct tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}
