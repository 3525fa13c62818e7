package identity

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/behavior"
	"github.com/gosight/gosight/optimizer/internal/events"
)

// DefaultRemoteTimeout caps a single remote classification
const DefaultRemoteTimeout = 3 * time.Second

// Service tries the remote strategy first and falls back to the rule cascade
// on any error. It never returns an error itself.
type Service struct {
	remote   Classifier
	fallback Classifier
	cache    *Cache
	timeout  time.Duration
}

// NewService wires the strategies. remote and cache may be nil.
func NewService(remote Classifier, cache *Cache, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Service{
		remote:   remote,
		fallback: RuleClassifier{},
		cache:    cache,
		timeout:  timeout,
	}
}

// SignalsFor derives the classifier input from an event window
func SignalsFor(evs []events.Event, now time.Time) Signals {
	return Signals{
		Vector:      behavior.Extract(evs, now),
		Frustration: behavior.Frustration(evs, now),
	}
}

// Classify extracts signals from evs and classifies them
func (s *Service) Classify(ctx context.Context, evs []events.Event, now time.Time) Identity {
	return s.ClassifySignals(ctx, SignalsFor(evs, now))
}

// ClassifySignals classifies sig. Only remote answers are cached; with no
// remote strategy every call runs the rule cascade.
func (s *Service) ClassifySignals(ctx context.Context, sig Signals) Identity {
	useCache := s.cache != nil && s.remote != nil

	var key string
	if useCache {
		key = Key(sig)
		if id, ok := s.cache.Get(key); ok {
			id.Cached = true
			return id
		}
	}

	id := s.classify(ctx, sig)
	if useCache && id.Source == SourceRemote {
		s.cache.Set(key, id)
	}
	return id
}

func (s *Service) classify(ctx context.Context, sig Signals) Identity {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		id, err := s.remote.Classify(rctx, sig)
		cancel()
		if err == nil {
			return id
		}
		log.Warn().
			Err(err).
			Str("classifier", s.remote.Name()).
			Msg("Remote classification failed, using rule cascade")
	}

	// The rule strategy cannot fail
	id, _ := s.fallback.Classify(ctx, sig)
	return id
}
