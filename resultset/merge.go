package resultset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/labeldb/labeldb/record"
)

// mergeUnion and mergeIntersect implement the unpacked/unpacked fallback
// path for Union/Intersect.
//
// The original store this module is grounded on merges two already-sorted
// streams with a single two-pointer pass, advancing on equal timestamps
// only when the records themselves are also equal — which stalls (and, on
// the intersect side, under-counts) whenever two distinct records share a
// timestamp. A signature-keyed merge sidesteps that: every record gets a
// key from its identity key, timestamp and variable values, entirely
// independent of how many other records happen to share its timestamp.

func recordKey(r record.Record) string {
	var b strings.Builder
	b.WriteString(record.IdentityKey(r))
	b.WriteByte('@')
	b.WriteString(strconv.FormatInt(r.Timestamp.UnixNano(), 10))

	names := make([]string, 0, len(r.Variables))
	for name := range r.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(r.Variables[name], 'g', -1, 64))
	}

	return b.String()
}

func byTimestamp(recs []record.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
}

// mergeUnion returns the set-union of a and b as a multiset of unique
// records (deduplicated by signature), timestamp-ascending.
func mergeUnion(a, b []record.Record) []record.Record {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]record.Record, 0, len(a)+len(b))

	for _, r := range append(append([]record.Record{}, a...), b...) {
		k := recordKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}

	byTimestamp(out)

	return out
}

// mergeIntersect returns the records present in both a and b, matched by
// signature, timestamp-ascending.
func mergeIntersect(a, b []record.Record) []record.Record {
	inB := make(map[string]struct{}, len(b))
	for _, r := range b {
		inB[recordKey(r)] = struct{}{}
	}

	seen := make(map[string]struct{})
	out := make([]record.Record, 0)

	for _, r := range a {
		k := recordKey(r)
		if _, ok := inB[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}

	byTimestamp(out)

	return out
}
