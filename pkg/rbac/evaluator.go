package rbac

import (
	"sync"
	"time"

	"github.com/gatehouse-dev/gatehouse/pkg/cache"
	"github.com/gatehouse-dev/gatehouse/pkg/observability"
)

// Config holds evaluator construction options.
type Config struct {
	// CacheCapacity bounds the number of memoized check results.
	CacheCapacity int
	// CacheTTL bounds how long a memoized result may be served. Keep it
	// short relative to expected grant-expiration granularity: a grant that
	// expires mid-TTL is only corrected on the next recompute.
	CacheTTL time.Duration
	// SweepInterval is how often the cache's background sweep reclaims
	// expired entries. Zero or negative disables the sweep; expired entries
	// are then reclaimed lazily on read only.
	SweepInterval time.Duration

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CacheCapacity: 1024,
		CacheTTL:      30 * time.Second,
		SweepInterval: time.Minute,
	}
}

// Evaluator answers permission questions for one principal snapshot, memoizing
// results in a bounded TTL cache. One evaluator instance is owned per
// session; the cache is never shared across principals except through fully
// qualified keys.
type Evaluator struct {
	mu        sync.RWMutex
	principal *Principal
	signature string

	cache   *cache.Cache
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewEvaluator creates an evaluator for the given principal snapshot. Close
// must be called on teardown to stop the cache sweep.
func NewEvaluator(principal *Principal, cfg Config) *Evaluator {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultConfig().CacheCapacity
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Evaluator{
		principal: principal,
		signature: principal.Signature(),
		cache: cache.New(cache.Config{
			Capacity:      cfg.CacheCapacity,
			DefaultTTL:    cfg.CacheTTL,
			SweepInterval: cfg.SweepInterval,
			Clock:         cfg.Clock,
		}),
		logger:  logger,
		metrics: cfg.Metrics,
		now:     now,
	}
}

// Principal returns the current principal snapshot.
func (e *Evaluator) Principal() *Principal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.principal
}

// SystemAdmin reports whether the current principal bypasses all checks.
func (e *Evaluator) SystemAdmin() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.principal != nil && e.principal.IsSystemAdmin
}

// SetPrincipal installs a new principal snapshot. Cache entries for the old
// principal are invalidated before the swap so that no check can observe the
// new snapshot against stale results.
func (e *Evaluator) SetPrincipal(p *Principal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.principal != nil {
		e.cache.InvalidatePrefix(e.principal.ID + "|")
	}
	e.principal = p
	e.signature = p.Signature()
	if p != nil {
		e.logger.WithField("principal_id", p.ID).Debug("principal snapshot installed")
	}
}

// HasPermission reports whether the principal holds the permission for the
// target tenant. Results are memoized per (principal, tenant, role signature,
// permission).
func (e *Evaluator) HasPermission(perm Permission, tenantID string) bool {
	e.mu.RLock()
	p, sig := e.principal, e.signature
	e.mu.RUnlock()

	if p == nil || !perm.Valid() {
		e.observe(false, false)
		return false
	}

	key := cacheKey(p.ID, tenantID, sig, string(perm))
	if allowed, ok := e.cache.Get(key); ok {
		e.observe(allowed, true)
		return allowed
	}

	allowed := Evaluate(p, perm, tenantID, e.now())
	e.cache.Set(key, allowed, 0)
	e.observe(allowed, false)
	return allowed
}

// HasAny reports whether the principal holds at least one of the permissions.
// An empty slice is never satisfied; this is intentionally asymmetric with
// HasAll.
func (e *Evaluator) HasAny(perms []Permission, tenantID string) bool {
	if len(perms) == 0 {
		return false
	}
	if e.HasPermission(Wildcard, tenantID) {
		return true
	}
	for _, perm := range perms {
		if e.HasPermission(perm, tenantID) {
			return true
		}
	}
	return false
}

// HasAll reports whether the principal holds every one of the permissions.
// An empty slice is vacuously satisfied.
func (e *Evaluator) HasAll(perms []Permission, tenantID string) bool {
	if len(perms) == 0 {
		return true
	}
	if e.HasPermission(Wildcard, tenantID) {
		return true
	}
	for _, perm := range perms {
		if !e.HasPermission(perm, tenantID) {
			return false
		}
	}
	return true
}

// HasLevel reports whether the principal reaches the access tier on the
// resource: a permission at the requested tier or any stronger tier
// satisfies it. Unknown levels and empty resources fail closed.
func (e *Evaluator) HasLevel(level Level, resource string, tenantID string) bool {
	actions := level.actions()
	if resource == "" || len(actions) == 0 {
		return false
	}
	perms := make([]Permission, len(actions))
	for i, action := range actions {
		perms[i] = Permission(resource + ":" + action)
	}
	return e.HasAny(perms, tenantID)
}

// EffectivePermissions returns the current principal's de-duplicated active
// permission union for the tenant. Always recomputed from the snapshot.
func (e *Evaluator) EffectivePermissions(tenantID string) []Permission {
	e.mu.RLock()
	p := e.principal
	e.mu.RUnlock()
	return EffectivePermissions(p, tenantID, e.now())
}

// Invalidate removes memoized results for the principal, optionally narrowed
// to one tenant. Either argument may be empty: an empty principal id scopes
// to the evaluator's own principal, and with both arguments empty the whole
// cache is cleared.
func (e *Evaluator) Invalidate(principalID, tenantID string) {
	if principalID == "" && tenantID != "" {
		// The evaluator owns exactly one principal; a tenant-only call
		// targets its entries.
		e.mu.RLock()
		if e.principal != nil {
			principalID = e.principal.ID
		}
		e.mu.RUnlock()
	}
	switch {
	case principalID == "":
		e.cache.Purge()
	case tenantID == "":
		e.cache.InvalidatePrefix(principalID + "|")
	default:
		e.cache.InvalidatePrefix(principalID + "|" + tenantID + "|")
	}
	e.logger.WithField("principal_id", principalID).WithField("tenant_id", tenantID).Debug("permission cache invalidated")
}

// Stats reports cache behavior since construction.
func (e *Evaluator) Stats() Stats {
	cs := e.cache.Stats()
	return Stats{
		Size:      cs.Size,
		Requests:  cs.Requests,
		Hits:      cs.Hits,
		Evictions: cs.Evictions,
		HitRate:   cs.HitRate,
	}
}

// Close stops the background sweep and drops all memoized results. Safe to
// call more than once.
func (e *Evaluator) Close() {
	e.cache.Close()
}

func (e *Evaluator) observe(allowed, hit bool) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveCheck(allowed, hit)
}

// cacheKey fully qualifies a memoized result. The layout makes prefix
// invalidation by principal or principal+tenant possible, and embedding the
// role signature orphans entries from superseded snapshots.
func cacheKey(principalID, tenantID, signature, perm string) string {
	return principalID + "|" + tenantID + "|" + signature + "|perm:" + perm
}
