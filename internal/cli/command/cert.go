package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bindplan/internal/server/bootstrap"
	"github.com/yndnr/bindplan/internal/server/certificate"
	"github.com/yndnr/bindplan/internal/server/listen"
)

// CertCommand returns the cert subcommand group.
func CertCommand() *cli.Command {
	return &cli.Command{
		Name:  "cert",
		Usage: "Certificate commands",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Resolve the certificate of an endpoint",
				ArgsUsage: "[endpoint]",
				Description: "Resolves the certificate the named endpoint would be served with.\n" +
					"Without an argument the Default certificate chain is checked.",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "expires-within",
						Usage: "Fail when the certificate expires within this duration",
					},
				},
				Action: certCheck,
			},
		},
	}
}

type certReport struct {
	Endpoint  string    `json:"endpoint" yaml:"endpoint"`
	Subject   string    `json:"subject" yaml:"subject"`
	Issuer    string    `json:"issuer" yaml:"issuer"`
	DNSNames  []string  `json:"dns_names,omitempty" yaml:"dns_names,omitempty" table:"dns_names"`
	NotBefore time.Time `json:"not_before" yaml:"not_before"`
	NotAfter  time.Time `json:"not_after" yaml:"not_after"`
	Valid     bool      `json:"valid" yaml:"valid"`
}

var errCertificateExpiring = errors.New("certificate is expired or expiring")

func certCheck(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		name = certificate.DefaultName
	}

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

	cert, err := p.Certificate(name)
	if err != nil {
		return err
	}
	info := listen.CertificateInfoOf(cert)
	if info == nil {
		return fmt.Errorf("certificate of %q has no readable leaf", name)
	}

	now := time.Now()
	report := certReport{
		Endpoint:  name,
		Subject:   info.Subject,
		Issuer:    info.Issuer,
		DNSNames:  info.DNSNames,
		NotBefore: info.NotBefore,
		NotAfter:  info.NotAfter,
		Valid:     !now.Before(info.NotBefore) && now.Before(info.NotAfter),
	}
	if err := printResult(c, report); err != nil {
		return err
	}

	if !report.Valid || now.Add(c.Duration("expires-within")).After(info.NotAfter) {
		return fmt.Errorf("%w: %s not after %s", errCertificateExpiring, name, info.NotAfter.UTC().Format(time.RFC3339))
	}
	return nil
}
