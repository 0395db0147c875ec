package memcas

import (
	"flag"

	"xdao.co/canonval/storage"
	"xdao.co/canonval/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "mem",
		Description: "In-memory CAS (non-persistent)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			// No configuration.
		},
		Open: func() (storage.CAS, func() error, error) {
			return New(), nil, nil
		},
	})
}
