package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"FinkBridge/internal/config"
	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

// Bootstrap finds or creates the group, stream, filter and taxonomy the
// pipeline writes under, and returns the resulting platform context.
type Bootstrap struct {
	admin    ports.PlatformAdmin
	cfg      config.SkyPortalConfig
	taxonomy domain.TaxonomyDocument
	logger   *slog.Logger
}

// NewBootstrap prepares a bootstrap run.
func NewBootstrap(admin ports.PlatformAdmin, cfg config.SkyPortalConfig, doc domain.TaxonomyDocument, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{admin: admin, cfg: cfg, taxonomy: doc, logger: logger}
}

// Run resolves every identifier. A taxonomy that cannot be posted leaves
// TaxonomyID at zero so that classification is skipped downstream.
func (b *Bootstrap) Run(ctx context.Context) (domain.PlatformContext, error) {
	pc := domain.PlatformContext{
		BaseURL:     b.cfg.URL,
		Token:       b.cfg.Token,
		Whitelisted: b.cfg.Whitelisted,
	}

	var err error
	pc.GroupID, err = findOrCreate(ctx, b.cfg.Group, b.admin.ListGroups, b.admin.CreateGroup)
	if err != nil {
		return pc, fmt.Errorf("group %q: %w", b.cfg.Group, err)
	}

	pc.StreamID, err = findOrCreate(ctx, b.cfg.Stream, b.admin.ListStreams, b.admin.CreateStream)
	if err != nil {
		return pc, fmt.Errorf("stream %q: %w", b.cfg.Stream, err)
	}

	createFilter := func(ctx context.Context, name string) (int, error) {
		return b.admin.CreateFilter(ctx, name, pc.StreamID, pc.GroupID)
	}
	pc.FilterID, err = findOrCreate(ctx, b.cfg.Filter, b.admin.ListFilters, createFilter)
	if err != nil {
		return pc, fmt.Errorf("filter %q: %w", b.cfg.Filter, err)
	}

	pc.TaxonomyID, err = b.ensureTaxonomy(ctx, pc.GroupID)
	if err != nil {
		if _, ok := domain.StatusCode(err); !ok {
			return pc, err
		}
		b.logger.Warn("taxonomy unavailable, classifications disabled", "error", err)
		pc.TaxonomyID = 0
	}

	b.logger.Info("platform ready",
		"group", pc.GroupID,
		"stream", pc.StreamID,
		"filter", pc.FilterID,
		"taxonomy", pc.TaxonomyID)
	return pc, nil
}

// ensureTaxonomy reuses a stored taxonomy with the same name and version,
// otherwise posts the bundled one.
func (b *Bootstrap) ensureTaxonomy(ctx context.Context, groupID int) (int, error) {
	if b.taxonomy.Name == "" {
		return 0, nil
	}

	stored, err := b.admin.ListTaxonomies(ctx)
	if err != nil {
		return 0, fmt.Errorf("list taxonomies: %w", err)
	}
	for _, tax := range stored {
		if tax.Name == b.taxonomy.Name && tax.Version == b.taxonomy.Version {
			return tax.ID, nil
		}
	}

	id, err := b.admin.CreateTaxonomy(ctx, b.taxonomy, idList(groupID))
	if err != nil {
		return 0, fmt.Errorf("post taxonomy %s %s: %w", b.taxonomy.Name, b.taxonomy.Version, err)
	}
	b.logger.Info("taxonomy posted", "name", b.taxonomy.Name, "version", b.taxonomy.Version, "id", id)
	return id, nil
}

func findOrCreate(
	ctx context.Context,
	name string,
	list func(context.Context) ([]domain.NamedEntity, error),
	create func(context.Context, string) (int, error),
) (int, error) {
	entities, err := list(ctx)
	if err != nil {
		return 0, fmt.Errorf("list: %w", err)
	}
	for _, e := range entities {
		if e.Name == name {
			return e.ID, nil
		}
	}

	id, err := create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	return id, nil
}
