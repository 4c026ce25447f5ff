// ABOUTME: Resolves a label name to the remote CRM option id for person labels
// ABOUTME: Falls back to the first option when the wanted label is missing
package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harperreed/leadsync/crm"
)

type LabelResolver struct {
	client crm.Client
	cache  Cache
	logger *log.Logger
}

// NewLabelResolver builds a resolver. cache may be nil, in which case every
// call reaches the remote.
func NewLabelResolver(client crm.Client, cache Cache, logger *log.Logger) *LabelResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &LabelResolver{client: client, cache: cache, logger: logger}
}

// ResolveLabelID returns the option id matching name case-insensitively. When
// no option matches, the first option is returned and a warning is logged.
func (r *LabelResolver) ResolveLabelID(ctx context.Context, name string) (int64, error) {
	key := LabelCacheKey(name)
	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("label cache read failed", "label", name, "err", err)
		} else if ok {
			return id, nil
		}
	}

	fields, err := r.client.GetPersonFields(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch person fields: %w", err)
	}

	field := findLabelField(fields)
	if field == nil {
		return 0, ErrNoLabelField
	}
	if len(field.Options) == 0 {
		return 0, fmt.Errorf("%w: field %q", ErrNoLabelOptions, field.Name)
	}

	for _, opt := range field.Options {
		if strings.EqualFold(strings.TrimSpace(opt.Label), strings.TrimSpace(name)) {
			if r.cache != nil {
				if err := r.cache.Set(ctx, key, opt.ID); err != nil {
					r.logger.Warn("label cache write failed", "label", name, "err", err)
				}
			}
			return opt.ID, nil
		}
	}

	// Not cached, so creating the label remotely takes effect on the next call.
	first := field.Options[0]
	r.logger.Warn("label not found, using first option", "wanted", name, "option", first.Label, "id", first.ID)
	return first.ID, nil
}

// Invalidate drops any cached id for name.
func (r *LabelResolver) Invalidate(ctx context.Context, name string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, LabelCacheKey(name))
}

func findLabelField(fields []crm.Field) *crm.Field {
	for i := range fields {
		f := &fields[i]
		if !f.HasOptions() {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name), "label") || strings.Contains(strings.ToLower(f.Key), "label") {
			return f
		}
	}
	return nil
}
