package diag

import (
	"strings"
	"sync"
)

type dedupKey struct {
	code Code
	sev  Severity
	cell string
	msg  string
}

// DedupReporter wraps another Reporter and suppresses repeats of the same
// code, severity, cell and message.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, where Where, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	key := dedupKey{code: code, sev: sev, cell: where.Method + "|" + strings.Join(where.Key, ","), msg: msg}
	r.mu.Lock()
	_, dup := r.seen[key]
	if !dup {
		r.seen[key] = struct{}{}
	}
	r.mu.Unlock()
	if dup {
		return
	}
	r.next.Report(code, sev, where, msg, notes)
}
