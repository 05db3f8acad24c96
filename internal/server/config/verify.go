package config

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// Verify validates the configuration.
//
// Endpoint URLs, protocols and certificate sources are checked by the
// plan builder, which names the endpoint in its errors.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStatus(&cfg.Status); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := uniqueFold("server.endpoints", keysOf(cfg.Endpoints)); err != nil {
		return err
	}
	if err := uniqueFold("server.certificates", keysOf(cfg.Certificates)); err != nil {
		return err
	}
	for name, ep := range cfg.Endpoints {
		if strings.TrimSpace(ep.URL) == "" {
			return domain.ErrInvalidAddress.WithDetailsf("endpoint %q: url is required", name)
		}
	}
	return nil
}

func keysOf[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// uniqueFold rejects names that are equal ignoring case. Endpoint and
// certificate names are matched case-insensitively everywhere else.
func uniqueFold(section string, names []string) error {
	seen := make(map[string]string, len(names))
	for _, name := range names {
		folded := strings.ToLower(name)
		if prev, ok := seen[folded]; ok {
			return domain.ErrDuplicateName.WithDetailsf("%s: %q and %q", section, prev, name)
		}
		seen[folded] = name
	}
	return nil
}

func verifyStatus(cfg *StatusSection) error {
	if cfg.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("status.addr: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
