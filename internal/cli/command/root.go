package command

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bindplan/internal/cli/output"
	"github.com/yndnr/bindplan/internal/infra/buildinfo"
	"github.com/yndnr/bindplan/internal/infra/confloader"
	"github.com/yndnr/bindplan/internal/server/config"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "bindplan-server",
		Usage:   "Plan, bind and serve server endpoints",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			PlanCommand(),
			CertCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"BINDPLAN_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "urls",
			Usage: "Hosting addresses, separated by ';' (overrides server.urls)",
		},
		&cli.BoolFlag{
			Name:  "prefer-hosting-urls",
			Usage: "Let hosting addresses replace configured endpoints",
		},
		&cli.StringFlag{
			Name:  "content-root",
			Usage: "Base directory for relative certificate paths",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// flagKeys maps global flags to configuration keys.
var flagKeys = map[string]string{
	"urls":                "server.urls",
	"prefer-hosting-urls": "server.prefer_hosting_urls",
	"content-root":        "server.content_root",
	"log-level":           "log.level",
	"log-format":          "log.format",
}

// loadConfig loads configuration from the file, the environment and the
// flags set on c, and verifies it.
func loadConfig(c *cli.Context) (*config.ServerConfig, *confloader.Loader, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "prefer-hosting-urls" {
			overrides[key] = c.Bool(flag)
		} else {
			overrides[key] = c.String(flag)
		}
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// initLogger creates the process logger. Logs go to the app's error
// writer so command output stays machine readable.
func initLogger(c *cli.Context, cfg *config.ServerConfig) (logger.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errWriter(c),
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(l)
	return l, nil
}

// printResult writes data in the format selected by --output.
func printResult(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, data)
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return cli.ErrWriter
}
