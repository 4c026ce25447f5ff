// ABOUTME: Best-effort lookup of a local user's remote CRM owner id
// ABOUTME: Cache, then stored id, then a remote search by normalized email
package sync

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/leadsync/crm"
)

type OwnerResolver struct {
	store  Store
	client crm.Client
	cache  Cache
	logger *log.Logger
}

func NewOwnerResolver(store Store, client crm.Client, cache Cache, logger *log.Logger) *OwnerResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &OwnerResolver{store: store, client: client, cache: cache, logger: logger}
}

// Resolve never fails: a miss or a lookup error yields ok=false so callers
// proceed without an owner. A remote match is returned even when storing it fails.
func (r *OwnerResolver) Resolve(ctx context.Context, userID uuid.UUID) (int64, bool) {
	key := OwnerCacheKey(userID)
	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("owner cache read failed", "user", userID, "err", err)
		} else if ok {
			return id, true
		}
	}

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		r.logger.Warn("failed to load user for owner lookup", "user", userID, "err", err)
		return 0, false
	}
	if user == nil {
		r.logger.Warn("owner lookup for unknown user", "user", userID)
		return 0, false
	}

	if user.RemoteOwnerID != nil {
		r.remember(ctx, key, *user.RemoteOwnerID)
		return *user.RemoteOwnerID, true
	}

	email := normalizeEmail(user.Email)
	if email == "" {
		r.logger.Debug("user has no email, skipping owner lookup", "user", userID)
		return 0, false
	}

	remote, err := r.client.FindUserByEmail(ctx, email)
	if err != nil {
		r.logger.Warn("remote owner lookup failed", "user", userID, "err", err)
		return 0, false
	}
	if remote == nil {
		r.logger.Info("no remote owner for user", "user", userID, "email", email)
		return 0, false
	}

	if err := r.store.SetUserRemoteOwnerID(ctx, userID, remote.ID); err != nil {
		r.logger.Warn("failed to store remote owner id", "user", userID, "owner", remote.ID, "err", err)
	}

	r.remember(ctx, key, remote.ID)
	return remote.ID, true
}

// Invalidate drops the cached id for userID.
func (r *OwnerResolver) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, OwnerCacheKey(userID))
}

func (r *OwnerResolver) remember(ctx context.Context, key string, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, id); err != nil {
		r.logger.Warn("owner cache write failed", "key", key, "err", err)
	}
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
