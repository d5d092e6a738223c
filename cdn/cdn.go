// Package cdn matches domains against a YAML pattern document that
// maps domain patterns to CDN providers.
//
// Three pattern classes are supported: plain domains match exactly and
// via their base domain, patterns containing wildcard characters are
// compiled to anchored regexes, and patterns containing regex
// metacharacters are compiled as-is. Invalid patterns are dropped with
// a warning instead of failing the load.
package cdn

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"regexp"
	"strings"

	"github.com/tevino/abool"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"

	"github.com/whereip/whereip/geo"
)

// entry is one provider entry of the pattern document.
type entry struct {
	Name string `yaml:"name"`
	Link string `yaml:"link"`
}

type regexPattern struct {
	re    *regexp.Regexp
	entry entry
}

// Matcher is a CDN provider lookup handle.
type Matcher struct {
	name   string
	loaded *abool.AtomicBool

	exact    map[string]entry
	patterns []regexPattern
}

// New returns a new unloaded matcher.
func New() *Matcher {
	return &Matcher{
		name:   "cdn",
		loaded: abool.New(),
		exact:  make(map[string]entry),
	}
}

// Name returns the logical name of the database.
func (m *Matcher) Name() string { return m.name }

// Kind returns the on-disk format kind.
func (m *Matcher) Kind() geo.Kind { return geo.KindCDN }

// SupportsIPv4 reports whether LookupIP accepts IPv4 addresses.
func (m *Matcher) SupportsIPv4() bool { return false }

// SupportsIPv6 reports whether LookupIP accepts IPv6 addresses.
func (m *Matcher) SupportsIPv6() bool { return false }

// SupportsCDN reports whether LookupCDN is implemented.
func (m *Matcher) SupportsCDN() bool { return true }

// IsLoaded reports whether the handle has been loaded.
func (m *Matcher) IsLoaded() bool { return m.loaded.IsSet() }

// LoadFromFile loads the pattern document at path.
func (m *Matcher) LoadFromFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pattern document: %w", err)
	}
	if err := m.parse(content); err != nil {
		return err
	}
	m.loaded.Set()

	slog.Info(
		"cdn patterns loaded",
		"path", path,
		"exact", len(m.exact),
		"regex", len(m.patterns),
	)
	return nil
}

// parse decodes the top-level YAML mapping. Decoding through the node
// tree keeps document order, so regex patterns match
// first-registered-wins deterministically.
func (m *Matcher) parse(content []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%w: %w", geo.ErrParse, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: pattern document is not a mapping", geo.ErrParse)
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		pattern := mapping.Content[i].Value
		var e entry
		if err := mapping.Content[i+1].Decode(&e); err != nil {
			slog.Warn("skipping malformed cdn entry", "pattern", pattern, "err", err)
			continue
		}
		m.add(pattern, e)
	}
	return nil
}

func (m *Matcher) add(pattern string, e entry) {
	switch {
	case strings.ContainsAny(pattern, "*?"):
		re, err := regexp.Compile(wildcardToRegex(pattern))
		if err != nil {
			slog.Warn("invalid cdn wildcard pattern", "pattern", pattern, "err", err)
			return
		}
		m.patterns = append(m.patterns, regexPattern{re: re, entry: e})

	case strings.ContainsAny(pattern, "[+({"):
		re, err := regexp.Compile(pattern)
		if err != nil {
			slog.Warn("invalid cdn regex pattern", "pattern", pattern, "err", err)
			return
		}
		m.patterns = append(m.patterns, regexPattern{re: re, entry: e})

	default:
		m.exact[strings.ToLower(pattern)] = e
	}
}

// LookupIP is not supported by this format.
func (m *Matcher) LookupIP(ip netip.Addr) (*geo.Record, error) {
	return nil, nil
}

// LookupCDN returns the provider record for the given domain, checking
// exact matches, then the base domain, then the regex patterns in
// document order.
func (m *Matcher) LookupCDN(domain string) (*geo.CDNRecord, error) {
	if !m.loaded.IsSet() {
		return nil, geo.ErrNotLoaded
	}

	lower := strings.ToLower(domain)
	if ascii, err := idna.Lookup.ToASCII(lower); err == nil {
		lower = ascii
	}

	if e, ok := m.exact[lower]; ok {
		return makeRecord(domain, e), nil
	}
	for _, candidate := range baseDomains(lower) {
		if e, ok := m.exact[candidate]; ok {
			return makeRecord(domain, e), nil
		}
	}
	for _, p := range m.patterns {
		if p.re.MatchString(lower) {
			return makeRecord(domain, p.entry), nil
		}
	}
	return nil, nil
}

func makeRecord(domain string, e entry) *geo.CDNRecord {
	return &geo.CDNRecord{
		Domain:      domain,
		Provider:    e.Name,
		Description: e.Link,
	}
}

// baseDomains returns the lookup candidates of a domain: the domain
// itself and its last two labels.
func baseDomains(domain string) []string {
	candidates := []string{domain}
	parts := strings.Split(domain, ".")
	if len(parts) >= 2 {
		candidates = append(candidates, strings.Join(parts[len(parts)-2:], "."))
	}
	return candidates
}

// wildcardToRegex converts a wildcard pattern to an anchored regex,
// eg. "*.example.com" to `^.*\.example\.com$`.
func wildcardToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '.', '\\', '+', '^', '$', '(', ')', '[', ']', '{', '}', '|':
			b.WriteByte('\\')
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('$')
	return b.String()
}
