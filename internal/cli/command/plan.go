package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bindplan/internal/cli/output"
	"github.com/yndnr/bindplan/internal/server/bootstrap"
	"github.com/yndnr/bindplan/internal/server/listen"
)

// PlanCommand runs the bind pipeline against a recording transport.
func PlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Resolve endpoints and certificates without opening sockets",
		Description: "Runs the same strategy selection and certificate resolution as serve\n" +
			"and prints the endpoints that would be bound.",
		Action: runPlan,
	}
}

type planResult struct {
	Strategy  string                `json:"strategy" yaml:"strategy"`
	Endpoints []listen.EndpointInfo `json:"endpoints" yaml:"endpoints"`
}

type endpointRow struct {
	Name        string
	Address     string
	Protocols   string
	Certificate string
	Issuer      string    `table:",wide"`
	NotAfter    time.Time `table:",wide"`
}

func runPlan(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	l, err := initLogger(c, cfg)
	if err != nil {
		return err
	}

	p, err := bootstrap.New(cfg, bootstrap.WithLogger(l), bootstrap.WithoutCertificateWatch())
	if err != nil {
		return err
	}
	res, err := p.Bind(c.Context, &listen.RecordingTransport{})
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	result := planResult{Strategy: res.Strategy().String(), Endpoints: res.Infos()}
	if format, _ := output.ParseFormat(c.String("output")); format != output.FormatTable {
		return printResult(c, result)
	}

	fmt.Fprintf(c.App.Writer, "strategy: %s\n\n", result.Strategy)
	rows := make([]endpointRow, 0, len(result.Endpoints))
	for _, e := range result.Endpoints {
		r := endpointRow{Name: e.Name, Address: e.Address, Protocols: e.Protocols}
		if e.Certificate != nil {
			r.Certificate = e.Certificate.Subject
			r.Issuer = e.Certificate.Issuer
			r.NotAfter = e.Certificate.NotAfter
		}
		rows = append(rows, r)
	}
	return printResult(c, rows)
}
