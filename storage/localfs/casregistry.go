package localfs

import (
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "one read-only file per object under a directory",
		Open: func(opts casregistry.Options) (storage.CAS, func() error, error) {
			cas, err := New(opts.Dir)
			if err != nil {
				return nil, nil, err
			}
			return cas, nil, nil
		},
	})
}
