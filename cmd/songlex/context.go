package main

import (
	"context"
	"strings"
	"sync"

	"github.com/cognicore/songlex/pkg/songlex"
	"github.com/cognicore/songlex/pkg/songlex/config"
	"github.com/cognicore/songlex/pkg/songlex/store"
	"github.com/cognicore/songlex/pkg/songlex/store/sqlite"
)

type commandContext struct {
	configFlag *string
	guidesFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, guidesFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		guidesFlag: guidesFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg := config.Default()
		if path := c.configPath(); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				c.configErr = err
				return
			}
			cfg = loaded
		}
		if c.guidesFlag != nil {
			if g := strings.TrimSpace(*c.guidesFlag); g != "" {
				cfg.Guides = g
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// openStore opens the SQLite database named by the flag, or by the
// analysis file when the flag is empty. It returns nil without either.
func (c *commandContext) openStore(ctx context.Context, dbFlag string) (store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(dbFlag)
	if path == "" {
		path = cfg.Store
	}
	if path == "" {
		return nil, nil
	}
	return sqlite.OpenSQLite(ctx, path)
}

// analysis builds a pipeline for the loaded config. st may be nil.
func (c *commandContext) analysis(st store.Store) (*songlex.Analysis, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return songlex.New(songlex.Options{
		Config:     cfg,
		ConfigPath: c.configPath(),
		Store:      st,
	})
}

// withResult runs the full pipeline without persisting it.
func (c *commandContext) withResult(ctx context.Context, fn func(*songlex.Result) error) error {
	a, err := c.analysis(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Run(ctx)
	if err != nil {
		return err
	}
	return fn(res)
}
