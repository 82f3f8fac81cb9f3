package pipeline

import "bookpipe/internal"

// Dedup keeps one membership set per entity kind for the lifetime of a
// single run. Cross-run duplicates are the loader's problem (upsert).
type Dedup struct {
	seen map[internal.SourceKind]map[string]struct{}
}

func NewDedup() *Dedup {
	return &Dedup{seen: map[internal.SourceKind]map[string]struct{}{}}
}

// Admit reports whether the identity is new this run, registering it when it
// is. Duplicates are dropped silently by the caller, in arrival order.
func (d *Dedup) Admit(kind internal.SourceKind, id string) bool {
	set, ok := d.seen[kind]
	if !ok {
		set = map[string]struct{}{}
		d.seen[kind] = set
	}
	if _, dup := set[id]; dup {
		return false
	}
	set[id] = struct{}{}
	return true
}
