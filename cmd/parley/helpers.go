package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/yamlspec"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/spf13/cobra"
)

type app struct {
	model     *yamlspec.Model
	framework *parley.Framework
	logger    *slog.Logger
	// seeds maps seed identifiers to their bookmarks.
	seeds map[string]domain.Bookmark
}

// loadApp reads the model file and seeds the object manager with the
// objects it declares. Interaction events are logged, then passed to extra.
func loadApp(cmd *cobra.Command, extra ...domain.LifecycleHooks) (*app, error) {
	logger, err := loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("model")

	loader, err := yamlspec.NewLoader(yamlspec.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	model, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	objects := memory.NewObjectManager(model.Registry)
	hooks := observability.Combine(append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, extra...)...)
	fw, err := parley.New(model.Registry,
		parley.WithObjectManager(objects),
		parley.WithValueTypes(model.Types.All()...),
		parley.WithLifecycleHooks(hooks),
		parley.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a := &app{model: model, framework: fw, logger: logger, seeds: make(map[string]domain.Bookmark)}
	for _, seed := range model.Seeds {
		_, b, err := objects.Put(seed)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", seed.Identifier(), err)
		}
		a.seeds[seed.Identifier()] = b
		logger.Debug("seeded object", "bookmark", b.String())
	}
	return a, nil
}
