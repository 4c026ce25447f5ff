// ABOUTME: Caller-driven bulk promotion and replication retries
// ABOUTME: Fans out across distinct contacts with a bounded errgroup
package sync

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/leadsync/models"
)

const (
	// MaxSweepAttempts caps total recorded attempts before an activity is
	// left for manual attention.
	MaxSweepAttempts = 6

	DefaultConcurrency = 4
	DefaultSweepLimit  = 100
)

type SweepSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (s SweepSummary) add(o SweepSummary) SweepSummary {
	return SweepSummary{
		Attempted: s.Attempted + o.Attempted,
		Succeeded: s.Succeeded + o.Succeeded,
		Failed:    s.Failed + o.Failed,
	}
}

type Sweeper struct {
	store       Store
	promoter    *Promoter
	replicator  *Replicator
	concurrency int
	logger      *log.Logger
}

// PromoteEligible promotes every unlinked contact at or above the threshold.
func (s *Sweeper) PromoteEligible(ctx context.Context, contacts []models.Contact) SweepSummary {
	var summary SweepSummary
	s.track(ctx, func() error {
		summary = s.promoteEligible(ctx, contacts)
		return summary.err()
	})
	return summary
}

// RetryPending replicates activities of linked contacts that are not yet
// mirrored and have attempts left.
func (s *Sweeper) RetryPending(ctx context.Context, limit int) (SweepSummary, error) {
	var summary SweepSummary
	var listErr error
	_ = s.track(ctx, func() error {
		summary, listErr = s.retryPending(ctx, limit)
		if listErr != nil {
			return listErr
		}
		return summary.err()
	})
	return summary, listErr
}

// Run promotes eligible contacts, then retries pending activities, so newly
// linked contacts get their backlog in the same sweep.
func (s *Sweeper) Run(ctx context.Context, contacts []models.Contact, limit int) (SweepSummary, error) {
	var summary SweepSummary
	var listErr error
	_ = s.track(ctx, func() error {
		summary = s.promoteEligible(ctx, contacts)
		replicated, err := s.retryPending(ctx, limit)
		if err != nil {
			listErr = err
			return err
		}
		summary = summary.add(replicated)
		return summary.err()
	})
	return summary, listErr
}

func (s SweepSummary) err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d sync tasks failed", s.Failed, s.Attempted)
}

func (s *Sweeper) promoteEligible(ctx context.Context, contacts []models.Contact) SweepSummary {
	var ids []uuid.UUID
	scores := make(map[uuid.UUID]int)
	for _, c := range contacts {
		if c.RemotePersonID != nil || c.WarmnessScore < PromotionThreshold {
			continue
		}
		if _, seen := scores[c.ID]; seen {
			continue
		}
		ids = append(ids, c.ID)
		scores[c.ID] = c.WarmnessScore
	}

	return s.fanOut(ctx, len(ids), func(ctx context.Context, i int) bool {
		return s.promoter.Promote(ctx, ids[i], scores[ids[i]]).Promoted
	})
}

func (s *Sweeper) retryPending(ctx context.Context, limit int) (SweepSummary, error) {
	if limit <= 0 {
		limit = DefaultSweepLimit
	}

	activities, err := s.store.ListUnreplicatedActivities(ctx, MaxSweepAttempts, limit)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("failed to list pending activities: %w", err)
	}

	// Activities of one contact stay sequential; distinct contacts run in parallel.
	var order []uuid.UUID
	byContact := make(map[uuid.UUID][]models.Activity)
	for _, a := range activities {
		if _, ok := byContact[a.ContactID]; !ok {
			order = append(order, a.ContactID)
		}
		byContact[a.ContactID] = append(byContact[a.ContactID], a)
	}

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, contactID := range order {
		batch := byContact[contactID]
		g.Go(func() error {
			for _, a := range batch {
				if gctx.Err() != nil {
					failed.Add(1)
					continue
				}
				if s.replicator.Replicate(gctx, a.ID, a.ContactID, a.OwnerID).Replicated {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return SweepSummary{
		Attempted: len(activities),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

func (s *Sweeper) fanOut(ctx context.Context, n int, task func(ctx context.Context, i int) bool) SweepSummary {
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if task(gctx, i) {
				succeeded.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return SweepSummary{
		Attempted: n,
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
}

// track brackets work with syncing and idle/error sync_state transitions.
func (s *Sweeper) track(ctx context.Context, work func() error) error {
	if err := s.store.UpdateSyncStatus(ctx, models.SyncStatusSyncing, nil); err != nil {
		s.logger.Warn("failed to mark sync as running", "err", err)
	}

	err := work()

	if err != nil {
		msg := err.Error()
		if serr := s.store.UpdateSyncStatus(ctx, models.SyncStatusError, &msg); serr != nil {
			s.logger.Warn("failed to record sync error", "err", serr)
		}
		s.logger.Warn("sweep finished with failures", "err", err)
		return err
	}

	if serr := s.store.UpdateSyncStatus(ctx, models.SyncStatusIdle, nil); serr != nil {
		s.logger.Warn("failed to mark sync as idle", "err", serr)
	}
	return nil
}
