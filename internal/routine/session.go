package routine

import "time"

// SessionPolicy declares how a routine's session identifier is read and
// persisted. The zero value is stateless: a fresh agent session every
// invocation, nothing stored. Construct policies with Stateless or
// Persistent and refine with ForkFrom; the accessors make the harness's
// read-key selection and write-back tables exhaustive without nullable
// string sentinels.
type SessionPolicy struct {
	key      string
	ttl      time.Duration
	fork     bool
	forkFrom string
}

// Stateless returns the policy for routines that start fresh each run.
func Stateless() SessionPolicy { return SessionPolicy{} }

// Persistent returns a policy that persists the session identifier under key
// with the given expiry. The ttl must be positive; it governs how long the
// identifier survives between runs before being treated as absent.
func Persistent(key string, ttl time.Duration) SessionPolicy {
	return SessionPolicy{key: key, ttl: ttl}
}

// ForkFrom marks the policy as forking: the run branches a new conversational
// lineage from the session stored at readKey instead of resuming it, and the
// source key is never written. An empty readKey forks from the policy's own
// session key.
func (p SessionPolicy) ForkFrom(readKey string) SessionPolicy {
	p.fork = true
	p.forkFrom = readKey
	return p
}

// Key returns the key the session identifier is persisted under, if any.
func (p SessionPolicy) Key() (string, bool) {
	return p.key, p.key != ""
}

// TTL returns the session expiry. Meaningful only when Key is set.
func (p SessionPolicy) TTL() (time.Duration, bool) {
	return p.ttl, p.key != "" && p.ttl > 0
}

// Forks reports whether runs branch from the source session rather than
// resuming it in place.
func (p SessionPolicy) Forks() bool { return p.fork }

// ReadKey returns the key the harness reads the session identifier from:
// the fork source when one is set, the session key otherwise.
func (p SessionPolicy) ReadKey() (string, bool) {
	if p.forkFrom != "" {
		return p.forkFrom, true
	}
	return p.key, p.key != ""
}
