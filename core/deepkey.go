package core

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// deepKeyRE matches one deep-link hop: a local field, the linked type
// (leading capital), and the remainder to resolve on the target.
var deepKeyRE = regexp.MustCompile(`^(\w+)\.([A-Z]\w+)\.(.+)$`)

type pathHop struct {
	field      string
	entityType string
}

// fieldPath is the parsed form of a dotted field name: zero or more link
// hops followed by the leaf field read on the final target.
type fieldPath struct {
	hops []pathHop
	leaf string
}

// pathCache bounds re-parsing of hot deep keys; field access is on every
// caller's fast path.
var pathCache, _ = lru.New[string, fieldPath](1024)

// parsePath splits a dotted deep key into its hops and leaf. Plain names
// come back with no hops.
func parsePath(name string) fieldPath {
	if p, ok := pathCache.Get(name); ok {
		return p
	}
	var p fieldPath
	rest := name
	for {
		m := deepKeyRE.FindStringSubmatch(rest)
		if m == nil {
			break
		}
		p.hops = append(p.hops, pathHop{field: m[1], entityType: m[2]})
		rest = m[3]
	}
	p.leaf = rest
	pathCache.Add(name, p)
	return p
}

// splitDeepKey reports the first hop of a deep key, for the merge engine's
// key expansion. ok is false for plain field names.
func splitDeepKey(key string) (field, entityType, rest string, ok bool) {
	m := deepKeyRE.FindStringSubmatch(key)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}
