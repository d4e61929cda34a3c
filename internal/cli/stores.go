package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/royaltodo/internal/auth"
	"github.com/idilsaglam/royaltodo/internal/config"
	"github.com/idilsaglam/royaltodo/internal/store"
	"github.com/idilsaglam/royaltodo/internal/store/httpstore"
	"github.com/idilsaglam/royaltodo/internal/store/jsonstore"
	"github.com/idilsaglam/royaltodo/internal/store/pgstore"
	"github.com/idilsaglam/royaltodo/internal/store/sqlitestore"
)

// openStore builds the item store for backend. The returned close func is
// never nil.
func openStore(ctx context.Context, backend config.Backend, cfg *config.Config, logger *log.Logger) (store.ItemStore, func(), error) {
	noop := func() {}
	switch backend {
	case config.BackendHTTP:
		token := func() string {
			if cfg.Token != "" {
				return cfg.Token
			}
			return auth.Token()
		}
		c, err := httpstore.New(cfg.APIURL,
			httpstore.WithTimeout(cfg.RequestTimeout()),
			httpstore.WithToken(token),
		)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("using http store", "url", cfg.APIURL)
		return c, noop, nil

	case config.BackendJSON:
		logger.Debug("using json store", "path", cfg.DataFile)
		return jsonstore.New(cfg.DataFile), noop, nil

	case config.BackendSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLiteFile)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("using sqlite store", "path", cfg.SQLiteFile)
		return s, func() { _ = s.Close() }, nil

	case config.BackendPostgres:
		s, err := pgstore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, noop, err
		}
		logger.Debug("using postgres store")
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown backend %q", backend)
}
