package normalize

import (
	"regexp"
	"sort"
)

// dictionary performs exact-phrase substitution. Entries are applied longest
// key first so short keys cannot clobber the inside of a longer phrase or an
// already substituted replacement.
type dictionary struct {
	entries []dictEntry
}

type dictEntry struct {
	pattern *regexp.Regexp
	out     string
}

func newDictionary(pairs map[string]string) *dictionary {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	d := &dictionary{entries: make([]dictEntry, 0, len(keys))}
	for _, k := range keys {
		d.entries = append(d.entries, dictEntry{
			pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(k)),
			out:     pairs[k],
		})
	}
	return d
}

// Apply substitutes every dictionary phrase in s. Applying the result again
// is a no-op as long as no replacement contains another key.
func (d *dictionary) Apply(s string) string {
	if d == nil || len(d.entries) == 0 || s == "" {
		return s
	}
	for _, e := range d.entries {
		s = e.pattern.ReplaceAllString(s, e.out)
	}
	return s
}
