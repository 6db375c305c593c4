package geocode

import "strings"

// Common street-suffix and direction abbreviations expanded during
// normalization so "100 Queen St W" and "100 queen street west" share one
// cache entry.
var abbreviations = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"blvd": "boulevard",
	"dr":   "drive",
	"crt":  "court",
	"ct":   "court",
	"cres": "crescent",
	"pl":   "place",
	"sq":   "square",
	"hwy":  "highway",
	"pkwy": "parkway",
	"ln":   "lane",
	"terr": "terrace",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
}

// Normalize produces the canonical cache key for an address: lowercased,
// whitespace collapsed, abbreviations expanded, and the region qualifier
// appended when the address does not already name the region.
func Normalize(address, regionQualifier string) string {
	fields := strings.Fields(strings.ToLower(address))
	if len(fields) == 0 {
		return ""
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		trailing := ""
		if strings.HasSuffix(f, ",") {
			trailing = ","
			f = strings.TrimSuffix(f, ",")
		}
		f = strings.TrimSuffix(f, ".")
		if full, ok := abbreviations[f]; ok {
			f = full
		}
		out = append(out, f+trailing)
	}

	norm := strings.Join(out, " ")

	if regionQualifier != "" && !containsRegion(norm, regionQualifier) {
		norm = norm + ", " + strings.ToLower(regionQualifier)
	}

	return norm
}

// containsRegion checks whether the address already names the region (the
// first comma-separated token of the qualifier, e.g. "toronto").
func containsRegion(norm, qualifier string) bool {
	region := strings.ToLower(strings.TrimSpace(strings.Split(qualifier, ",")[0]))
	return region != "" && strings.Contains(norm, region)
}
