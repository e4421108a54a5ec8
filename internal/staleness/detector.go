// Package staleness decides when a cached remote listing can be trusted.
//
// Every remote repository publishes a cheap change token per group
// namespace. The detector keeps a watermark (last token, last check time)
// per repository group and only re-fetches a listing when the token moved.
// How often the token is consulted depends on the repository policy:
// always, never, or once per interval.
package staleness

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/metrics"
)

const (
	outcomeUnchanged = "unchanged"
	outcomeChanged   = "changed"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// Detector wraps remote probes with change-token validation.
type Detector struct {
	state   repositories.StateRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewDetector creates a detector persisting its state in the given store.
func NewDetector(state repositories.StateRepository, m *metrics.Metrics) *Detector {
	return &Detector{state: state, metrics: m, now: time.Now}
}

// Wrap decorates the probe when it exposes change tokens; other probes are
// returned untouched.
func (it *Detector) Wrap(
	probe repositories.ProbeRepository, settings entities.StalenessSettings,
) repositories.ProbeRepository {
	tokens, ok := probe.(repositories.ChangeTokenRepository)
	if !ok {
		return probe
	}
	return &ravenhurstProbe{ProbeRepository: probe, tokens: tokens, settings: settings, detector: it}
}

// ravenhurstProbe serves listings from the state store while the change
// token of their group is unchanged.
type ravenhurstProbe struct {
	repositories.ProbeRepository
	tokens   repositories.ChangeTokenRepository
	settings entities.StalenessSettings
	detector *Detector
}

func (it *ravenhurstProbe) Probe(ctx context.Context, id entities.ArtifactIdentity) (*entities.Listing, error) {
	return it.detector.probe(ctx, it, id)
}

func (it *Detector) probe(
	ctx context.Context, p *ravenhurstProbe, id entities.ArtifactIdentity,
) (*entities.Listing, error) {
	name := p.Name()

	cached, found, err := it.state.LoadListing(name, id)
	if err != nil {
		logger.Warnf("[ravenhurst] %s: ignoring unreadable cached listing of %s: %v", name, id, err)
		found = false
	}
	if !found {
		return it.refresh(ctx, p, id, "")
	}

	if p.settings.Policy == entities.StalenessNever {
		it.count(name, outcomeSkipped)
		return cached, nil
	}

	watermark, hasWatermark, err := it.state.LoadWatermark(name, id.GroupID)
	if err != nil {
		logger.Warnf("[ravenhurst] %s: ignoring unreadable watermark of %s: %v", name, id.GroupID, err)
		hasWatermark = false
	}
	if hasWatermark && !watermark.Due(p.settings, it.now()) {
		if watermark.Token == cached.Token {
			it.count(name, outcomeSkipped)
			return cached, nil
		}
		// another artifact of the group already saw the token move
		return it.refresh(ctx, p, id, watermark.Token)
	}

	token, err := p.tokens.ChangeToken(ctx, id.GroupID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		it.count(name, outcomeFailed)
		logger.Warnf("[ravenhurst] %s: change token check for %s failed, serving cached listing: %v",
			name, id.GroupID, err)
		return cached, nil
	}

	if token != "" && token == cached.Token {
		it.count(name, outcomeUnchanged)
		it.saveWatermark(name, id.GroupID, token)
		return cached, nil
	}

	it.count(name, outcomeChanged)
	logger.Debugf("[ravenhurst] %s: %s moved from %q to %q", name, id.GroupID, cached.Token, token)
	return it.refresh(ctx, p, id, token)
}

// refresh fetches the full listing and advances the watermark. When token
// is empty the current token is asked first.
func (it *Detector) refresh(
	ctx context.Context, p *ravenhurstProbe, id entities.ArtifactIdentity, token string,
) (*entities.Listing, error) {
	name := p.Name()
	if token == "" {
		current, err := p.tokens.ChangeToken(ctx, id.GroupID)
		switch {
		case err == nil:
			token = current
		case errors.Is(err, entities.ErrNotFound):
			logger.Debugf("[ravenhurst] %s publishes no change token for %s", name, id.GroupID)
		default:
			logger.Warnf("[ravenhurst] %s: change token check for %s failed: %v", name, id.GroupID, err)
		}
	}

	listing, err := p.ProbeRepository.Probe(ctx, id)
	if err != nil {
		return nil, err
	}
	listing.Token = token

	if saveErr := it.state.SaveListing(listing); saveErr != nil {
		logger.Warnf("[ravenhurst] %s: failed to cache listing of %s: %v", name, id, saveErr)
	}
	if token != "" {
		it.saveWatermark(name, id.GroupID, token)
	}
	return listing, nil
}

func (it *Detector) saveWatermark(repository, group, token string) {
	watermark := entities.Watermark{Repository: repository, Group: group, Token: token, CheckedAt: it.now()}
	if err := it.state.SaveWatermark(watermark); err != nil {
		logger.Warnf("[ravenhurst] %s: failed to save watermark of %s: %v", repository, group, err)
	}
}

func (it *Detector) count(repository, outcome string) {
	it.metrics.TokenChecksTotal.WithLabelValues(repository, outcome).Inc()
}
