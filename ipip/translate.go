package ipip

import (
	"strings"
	"unicode/utf8"
)

// unknownName is returned for IDs with no translation entry.
const unknownName = "Unknown"

// tables map the numeric IDs of fixed records to display names.
type tables struct {
	countries []string
	regions   []string
	cities    []string
	isps      []string
}

// parseTables reads the NUL-separated text section after the index and
// sorts the names into per-field tables by keyword. Strings matching
// no keyword are dropped.
func parseTables(data []byte, h header) *tables {
	t := &tables{}

	textStart := int64(h.indexEnd) + int64(h.indexCount())*recordLen
	if textStart < 0 || textStart >= int64(len(data)) {
		return t
	}

	text := strings.ToValidUTF8(string(data[textStart:]), string(utf8.RuneError))
	for _, name := range strings.Split(text, "\x00") {
		if name == "" {
			continue
		}
		switch {
		case containsAny(name, "国家", "China", "United States"):
			t.countries = append(t.countries, name)
		case containsAny(name, "省", "州", "Province"):
			t.regions = append(t.regions, name)
		case containsAny(name, "市", "City"):
			t.cities = append(t.cities, name)
		case containsAny(name, "电信", "运营商", "ISP"):
			t.isps = append(t.isps, name)
		}
	}
	return t
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lookupName(table []string, id uint16) string {
	if int(id) < len(table) {
		return table[id]
	}
	return unknownName
}

func (t *tables) country(id uint16) string { return lookupName(t.countries, id) }
func (t *tables) region(id uint16) string  { return lookupName(t.regions, id) }
func (t *tables) city(id uint16) string    { return lookupName(t.cities, id) }
func (t *tables) isp(id uint16) string     { return lookupName(t.isps, id) }
