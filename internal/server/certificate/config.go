package certificate

import (
	"fmt"
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// DefaultName is the certificate entry name that sets the process-wide
// default certificate. Matched case-insensitively.
const DefaultName = "Default"

// DefaultStoreName is used when a store lookup omits the store name.
const DefaultStoreName = "My"

// Config declares where a certificate comes from.
//
// The file variant uses Path, KeyPath and Password. The store variant uses
// Subject, Store, Location and AllowInvalid. At most one variant may be set.
type Config struct {
	Path     string `koanf:"path"`
	KeyPath  string `koanf:"key_path"`
	Password string `koanf:"password"`

	Subject      string `koanf:"subject"`
	Store        string `koanf:"store"`
	Location     string `koanf:"location"`
	AllowInvalid bool   `koanf:"allow_invalid"`
}

// IsFileCert reports whether the file variant is populated.
func (c Config) IsFileCert() bool {
	return c.Path != ""
}

// IsStoreCert reports whether the store variant is populated.
func (c Config) IsStoreCert() bool {
	return c.Subject != ""
}

// IsEmpty reports whether no source is declared.
func (c Config) IsEmpty() bool {
	return !c.IsFileCert() && !c.IsStoreCert()
}

// StoreLocation identifies a certificate store scope.
type StoreLocation int

const (
	// CurrentUser is the store scoped to the user running the server.
	CurrentUser StoreLocation = iota + 1
	// LocalMachine is the machine-wide store.
	LocalMachine
)

// String returns the canonical location name.
func (l StoreLocation) String() string {
	switch l {
	case CurrentUser:
		return "CurrentUser"
	case LocalMachine:
		return "LocalMachine"
	default:
		return fmt.Sprintf("StoreLocation(%d)", int(l))
	}
}

// ParseStoreLocation parses a location name case-insensitively.
// An empty name selects CurrentUser.
func ParseStoreLocation(s string) (StoreLocation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "currentuser":
		return CurrentUser, nil
	case "localmachine":
		return LocalMachine, nil
	default:
		return 0, domain.ErrInvalidStoreLocation.WithDetailsf("%q is not one of CurrentUser, LocalMachine", s)
	}
}

// IsDefaultName reports whether name selects the default certificate.
func IsDefaultName(name string) bool {
	return strings.EqualFold(name, DefaultName)
}
