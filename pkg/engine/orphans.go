package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/ghostmerge/pkg/audit"
	"github.com/agentstation/ghostmerge/pkg/decision"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/logging"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

// reconcileOrphans re-offers the pools until the decision source is done.
// Each pass rematches the pools at the orphan threshold and then takes
// manual pairings until the source has none left.
func (r *run) reconcileOrphans(ctx context.Context) error {
	for {
		if len(r.left) == 0 || len(r.right) == 0 {
			return nil
		}
		pools := r.pools(r.pass + 1)
		more, err := r.source.DecideOrphanContinue(ctx, pools)
		if err != nil {
			return errors.NewDecisionError("orphan-continue", "", err)
		}
		if !more {
			r.logger.Debug().Int("passes", r.pass).Msg("Orphan reconciliation finished")
			return nil
		}

		r.pass++
		r.stats.Passes++
		r.log.Record(audit.Entry{
			Kind:    audit.KindOrphanPass,
			Pass:    r.pass,
			Message: fmt.Sprintf("%d left, %d right", len(r.left), len(r.right)),
		})
		r.observer.OrphanPass(r.pass, pools)
		passCtx := logging.WithPass(ctx, r.pass)

		res, err := matcher.Pair(passCtx, r.left, r.right, r.scorer, r.cfg.OrphanPassThreshold,
			matcher.WithPass(r.pass),
			matcher.WithConcurrency(r.cfg.Concurrency))
		if err != nil {
			return err
		}
		logging.FromContext(passCtx).Info().
			Int("matches", len(res.Matches)).
			Int("left", len(r.left)).
			Int("right", len(r.right)).
			Msg("Orphan pass matched")
		r.left, r.right = res.UnmatchedLeft, res.UnmatchedRight
		if err := r.resolveAll(passCtx, res.Matches); err != nil {
			return err
		}

		if err := r.manualPairings(passCtx); err != nil {
			return err
		}
	}
}

// manualPairings forces operator-chosen pairs into pending matches. A
// pairing naming a finding that is not in the pools is refused and asked
// again.
func (r *run) manualPairings(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	refused := 0
	for len(r.left) > 0 && len(r.right) > 0 {
		p, err := r.source.DecidePairing(ctx, r.pools(r.pass))
		if err != nil {
			return errors.NewDecisionError("pairing", "", err)
		}
		if p == nil {
			return nil
		}

		li := slices.IndexFunc(r.left, func(f findings.Finding) bool { return f.ID == p.LeftID })
		ri := slices.IndexFunc(r.right, func(f findings.Finding) bool { return f.ID == p.RightID })
		if li < 0 || ri < 0 {
			refused++
			problem := unknownPairing(p, li < 0, ri < 0)
			logger.Warn().
				Str("left", p.LeftID.String()).
				Str("right", p.RightID.String()).
				Str("problem", problem).
				Msg("Pairing refused")
			r.log.Record(audit.Entry{
				Kind:    audit.KindContractViolation,
				Pass:    r.pass,
				LeftID:  p.LeftID,
				RightID: p.RightID,
				Field:   "pairing",
				Source:  "pair",
				Message: problem,
			})
			if refused >= r.cfg.MaxDecisionAttempts {
				ce := errors.NewContractError("pairing", "pair", problem)
				ce.Attempts = refused
				return ce
			}
			continue
		}
		refused = 0

		left, right := r.left[li], r.right[ri]
		r.left = slices.Delete(r.left, li, li+1)
		r.right = slices.Delete(r.right, ri, ri+1)

		m := matcher.NewManual(left, right, r.scorer.Score(left, right), r.pass)
		r.stats.Pairings++
		r.log.Record(audit.Entry{
			Kind:    audit.KindPairing,
			Pass:    r.pass,
			LeftID:  left.ID,
			RightID: right.ID,
			Score:   m.Score,
			Manual:  true,
		})
		logger.Debug().Str("match", m.Ref()).Float64("score", m.Score).Msg("Manual pairing")
		if err := r.resolveAll(ctx, []*matcher.Match{m}); err != nil {
			return err
		}
	}
	return nil
}

// pools snapshots the unmatched findings for the decision source.
func (r *run) pools(pass int) decision.Pools {
	return decision.Pools{
		Left:  slices.Clone(r.left),
		Right: slices.Clone(r.right),
		Pass:  pass,
	}
}

func unknownPairing(p *decision.Pairing, left, right bool) string {
	switch {
	case left && right:
		return fmt.Sprintf("neither left %s nor right %s is unmatched", p.LeftID, p.RightID)
	case left:
		return fmt.Sprintf("left %s is not unmatched", p.LeftID)
	default:
		return fmt.Sprintf("right %s is not unmatched", p.RightID)
	}
}
