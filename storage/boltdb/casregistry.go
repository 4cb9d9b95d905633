package boltdb

import (
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "bolt",
		Description: "single bbolt file (objects.bolt) in a directory",
		Open: func(opts casregistry.Options) (storage.CAS, func() error, error) {
			cas, err := Open(opts.Dir)
			if err != nil {
				return nil, nil, err
			}
			return cas, cas.Close, nil
		},
	})
}
