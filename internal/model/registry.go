package model

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoModelsAvailable is returned when no complete bundle can satisfy a
// resolution request. At load time it is a hard startup failure.
var ErrNoModelsAvailable = errors.New("no complete model bundles available")

// Artifact file suffixes produced by the offline training pipeline.
const (
	temperatureSuffix = "_temperature_model.json"
	rainSuffix        = "_rain_model.json"
	scalerSuffix      = "_scaler.json"
)

// Match describes how a resolution request was satisfied.
type Match string

const (
	// MatchExact means the requested key itself was registered.
	MatchExact Match = "exact"
	// MatchPartial means a registered key matched by substring containment.
	MatchPartial Match = "partial"
	// MatchDefault means the reserved default bundle was used.
	MatchDefault Match = "default"
	// MatchAny means an arbitrary complete bundle was used as a last resort.
	MatchAny Match = "any"
)

// Resolution reports which bundle actually served a request, so callers can
// surface model substitution to clients and operators.
type Resolution struct {
	CityKey string
	Match   Match
}

// Substituted reports whether the served bundle differs from the one the
// caller asked for.
func (r Resolution) Substituted() bool {
	return r.Match != MatchExact
}

// Registry indexes model bundles by canonical city key. It is built once at
// startup and read-only afterwards, so concurrent Resolve calls need no
// locking.
type Registry struct {
	keys    []string // registration order; fixed for the process lifetime
	bundles map[string]*Bundle
}

// NewRegistry builds a registry from pre-constructed bundles, registering
// them in argument order. Used by tests and by callers that load artifacts
// through other means.
func NewRegistry(bundles ...*Bundle) *Registry {
	r := &Registry{bundles: make(map[string]*Bundle)}
	for _, b := range bundles {
		if b == nil || b.CityKey == "" {
			continue
		}
		if _, ok := r.bundles[b.CityKey]; ok {
			continue
		}
		r.keys = append(r.keys, b.CityKey)
		r.bundles[b.CityKey] = b
	}
	return r
}

// Load scans dir for per-city artifact files, assembles complete bundles and
// registers them in sorted key order (which fixes first-registered-wins
// tie-breaking for the process lifetime). Bundles missing any of the three
// artifacts are logged and excluded. Load fails only if zero complete
// bundles could be assembled.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read models dir %s: %w", dir, err)
	}

	type partial struct {
		temperature Regressor
		rain        Classifier
		scaler      Scaler
	}
	partials := make(map[string]*partial)

	get := func(key string) *partial {
		p, ok := partials[key]
		if !ok {
			p = &partial{}
			partials[key] = p
		}
		return p
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		switch {
		case strings.HasSuffix(name, temperatureSuffix):
			key := strings.TrimSuffix(name, temperatureSuffix)
			reg, err := loadRegressor(path)
			if err != nil {
				log.Printf("registry: skipping %s: %v", name, err)
				continue
			}
			get(key).temperature = reg
		case strings.HasSuffix(name, rainSuffix):
			key := strings.TrimSuffix(name, rainSuffix)
			clf, err := loadClassifier(path)
			if err != nil {
				log.Printf("registry: skipping %s: %v", name, err)
				continue
			}
			get(key).rain = clf
		case strings.HasSuffix(name, scalerSuffix):
			key := strings.TrimSuffix(name, scalerSuffix)
			sc, err := loadScaler(path)
			if err != nil {
				log.Printf("registry: skipping %s: %v", name, err)
				continue
			}
			get(key).scaler = sc
		}
	}

	keys := make([]string, 0, len(partials))
	for key := range partials {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	r := &Registry{bundles: make(map[string]*Bundle)}
	for _, key := range keys {
		p := partials[key]
		b := &Bundle{
			CityKey:     key,
			Temperature: p.temperature,
			Rain:        p.rain,
			Scaler:      p.scaler,
		}
		if !b.Complete() {
			log.Printf("registry: bundle for %q is incomplete, not registering", key)
			continue
		}
		r.keys = append(r.keys, key)
		r.bundles[key] = b
		log.Printf("registry: models loaded for %q", key)
	}

	if len(r.keys) == 0 {
		return nil, ErrNoModelsAvailable
	}

	log.Printf("registry: %d cities with complete models", len(r.keys))
	return r, nil
}

// Keys returns the registered city keys in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Resolve maps a normalized city key to the best available complete bundle,
// stopping at the first success: exact match, substring match (either
// direction, first-registered-wins), the reserved default bundle, then any
// complete bundle. Incomplete bundles are never returned.
func (r *Registry) Resolve(requestedKey string) (*Bundle, Resolution, error) {
	if b, ok := r.bundles[requestedKey]; ok && b.Complete() {
		return b, Resolution{CityKey: requestedKey, Match: MatchExact}, nil
	}

	for _, key := range r.keys {
		if key == DefaultKey {
			continue
		}
		if !strings.Contains(key, requestedKey) && !strings.Contains(requestedKey, key) {
			continue
		}
		if b := r.bundles[key]; b.Complete() {
			return b, Resolution{CityKey: key, Match: MatchPartial}, nil
		}
	}

	if b, ok := r.bundles[DefaultKey]; ok && b.Complete() {
		return b, Resolution{CityKey: DefaultKey, Match: MatchDefault}, nil
	}

	for _, key := range r.keys {
		if b := r.bundles[key]; b.Complete() {
			return b, Resolution{CityKey: key, Match: MatchAny}, nil
		}
	}

	return nil, Resolution{}, ErrNoModelsAvailable
}
