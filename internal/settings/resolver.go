// Package settings expands $name placeholders inside section settings.
package settings

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Wildcard is the limit token meaning "unlimited".
const Wildcard = "*"

var placeholderPattern = regexp.MustCompile(`\$([a-zA-Z][a-zA-Z0-9_\-]*)`)

// Settings is a flat, case-sensitive key to raw value mapping for one section.
type Settings map[string]string

// UnresolvedReferenceError is returned when a key, or a placeholder inside a
// value, names a setting that does not exist.
type UnresolvedReferenceError struct {
	Key       string // setting whose value holds the placeholder, empty for a direct lookup
	Reference string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("unable to lookup value for $%s", e.Reference)
	}
	return fmt.Sprintf("unable to lookup value for $%s referenced by %s", e.Reference, e.Key)
}

// CyclicReferenceError is returned when resolving a key requires resolving
// itself. Chain lists the keys in expansion order, ending with the repeat.
type CyclicReferenceError struct {
	Chain []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic setting reference: %s", strings.Join(e.Chain, " -> "))
}

// Resolver resolves settings against an immutable copy of a mapping.
type Resolver struct {
	settings Settings
}

// New creates a resolver over a copy of s.
func New(s Settings) *Resolver {
	cp := make(Settings, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return &Resolver{settings: cp}
}

// With returns a new resolver that also knows key=value. Used for values
// computed per run, such as the backup file name.
func (r *Resolver) With(key, value string) *Resolver {
	next := New(r.settings)
	next.settings[key] = value
	return next
}

// Has reports whether key is defined.
func (r *Resolver) Has(key string) bool {
	_, ok := r.settings[key]
	return ok
}

// Keys returns all defined keys in sorted order.
func (r *Resolver) Keys() []string {
	keys := make([]string, 0, len(r.settings))
	for k := range r.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve fully expands the value of key.
func (r *Resolver) Resolve(key string) (string, error) {
	if _, ok := r.settings[key]; !ok {
		return "", &UnresolvedReferenceError{Reference: key}
	}
	p := newPass(r.settings)
	return p.resolve(key)
}

// ResolveOr expands key, or def when key is not defined. def may itself
// contain placeholders.
func (r *Resolver) ResolveOr(key, def string) (string, error) {
	if _, ok := r.settings[key]; ok {
		return r.Resolve(key)
	}
	return r.Expand(def)
}

// Expand substitutes placeholders in an arbitrary template.
func (r *Resolver) Expand(template string) (string, error) {
	p := newPass(r.settings)
	return p.substitute("", template)
}

// ResolveNumeric expands key and parses it as an integer. A missing key or a
// non-numeric value yields def. Reference errors are still returned.
func (r *Resolver) ResolveNumeric(key string, def int) (int, error) {
	if !r.Has(key) {
		return def, nil
	}
	v, err := r.Resolve(key)
	if err != nil {
		return def, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(v))
	if convErr != nil {
		return def, nil
	}
	return n, nil
}

// ResolveWildcardNumeric expands key and returns it when it is an integer or
// the Wildcard token; otherwise it returns def.
func (r *Resolver) ResolveWildcardNumeric(key, def string) (string, error) {
	if !r.Has(key) {
		return def, nil
	}
	v, err := r.Resolve(key)
	if err != nil {
		return def, err
	}
	v = strings.TrimSpace(v)
	if v == Wildcard {
		return v, nil
	}
	if _, convErr := strconv.Atoi(v); convErr != nil {
		return def, nil
	}
	return v, nil
}

// ResolveAll expands every key. Keys that fail to resolve are reported in
// the error map and left out of the values.
func (r *Resolver) ResolveAll() (map[string]string, map[string]error) {
	values := make(map[string]string, len(r.settings))
	var errs map[string]error
	p := newPass(r.settings)
	for _, key := range r.Keys() {
		v, err := p.resolve(key)
		if err != nil {
			if errs == nil {
				errs = make(map[string]error)
			}
			errs[key] = err
			continue
		}
		values[key] = v
	}
	return values, errs
}

// pass memoizes results within one resolution and tracks keys that are
// currently being expanded.
type pass struct {
	settings Settings
	done     map[string]string
	active   map[string]bool
	stack    []string
}

func newPass(s Settings) *pass {
	return &pass{
		settings: s,
		done:     make(map[string]string),
		active:   make(map[string]bool),
	}
}

func (p *pass) resolve(key string) (string, error) {
	if v, ok := p.done[key]; ok {
		return v, nil
	}
	if p.active[key] {
		chain := append(append([]string{}, p.stack...), key)
		return "", &CyclicReferenceError{Chain: chain}
	}

	raw := p.settings[key]
	p.active[key] = true
	p.stack = append(p.stack, key)
	v, err := p.substitute(key, raw)
	p.stack = p.stack[:len(p.stack)-1]
	delete(p.active, key)
	if err != nil {
		return "", err
	}

	p.done[key] = v
	return v, nil
}

// substitute replaces every placeholder token in value. Only whole tokens are
// replaced, so $host never rewrites the prefix of $hostname.
func (p *pass) substitute(owner, value string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatch(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	resolved := make(map[string]string, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, seen := resolved[name]; seen {
			continue
		}
		if _, ok := p.settings[name]; !ok {
			return "", &UnresolvedReferenceError{Key: owner, Reference: name}
		}
		v, err := p.resolve(name)
		if err != nil {
			return "", err
		}
		resolved[name] = v
	}

	return placeholderPattern.ReplaceAllStringFunc(value, func(token string) string {
		return resolved[token[1:]]
	}), nil
}
