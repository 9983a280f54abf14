package resolver

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// withFailover runs fn until it succeeds or fails with a non-backend error.
//
// A backend error advances that family's mirror. When the family's mirrors
// are exhausted its list is refreshed from the directory once and another
// full cycle is allowed. A second exhaustion, or a failed refresh, is fatal.
func (r *Resolver) withFailover(ctx context.Context, op string, fn func() error) error {
	refreshed := make(map[Family]bool)
	for {
		err := fn()
		if err == nil {
			return nil
		}

		var be *BackendError
		if !errors.As(err, &be) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "%s canceled", op)
		}

		fam := r.family(be.Family)
		zlog.Warn().Msgf("backend request failed, trying next mirror: op=%s family=%s domain=%s error=%v",
			op, be.Family, be.Domain, be.Err)
		r.metrics.FailoverAdvanced(string(be.Family))

		advErr := fam.domains.Advance()
		if advErr == nil {
			continue
		}

		if refreshed[be.Family] {
			return errors.Mark(errors.Wrapf(advErr, "%s: mirrors exhausted after refresh", op), ErrBackendUnavailable)
		}
		refreshed[be.Family] = true
		if err := r.refresh(ctx, fam); err != nil {
			return errors.Mark(errors.Wrapf(err, "%s: mirror refresh failed", op), ErrBackendUnavailable)
		}
	}
}

// refresh replaces a family's mirror list from its instance directory.
func (r *Resolver) refresh(ctx context.Context, fam *family) error {
	zlog.Warn().Msgf("all mirrors down, refreshing domain list: family=%s", fam.name)
	if fam.directory == nil {
		r.metrics.DomainsRefreshed(string(fam.name), false)
		return errors.Newf("no instance directory for family %s", fam.name)
	}

	domains, err := fam.directory.Instances(ctx)
	if err != nil {
		r.metrics.DomainsRefreshed(string(fam.name), false)
		return errors.Wrapf(err, "failed to refresh %s domains", fam.name)
	}

	if r.ranker != nil {
		ranked, err := r.ranker.Rank(ctx, domains, fam.checkPath)
		if err != nil {
			zlog.Warn().Msgf("mirror ranking failed, keeping directory order: family=%s error=%v", fam.name, err)
		} else {
			domains = ranked
		}
	}

	if err := fam.domains.Replace(domains); err != nil {
		r.metrics.DomainsRefreshed(string(fam.name), false)
		return err
	}
	r.metrics.DomainsRefreshed(string(fam.name), true)
	return nil
}

func (r *Resolver) family(name Family) *family {
	if name == FamilyMetadata {
		return r.meta
	}
	return r.stream
}
