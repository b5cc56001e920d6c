package ics

// aliasZones maps Windows-style TZID labels, as emitted by Outlook/Exchange
// feeds, to IANA zone names. Matching is exact and case-sensitive.
// The map is never written after initialization.
var aliasZones = map[string]string{
	"Central America Standard Time": "America/Guatemala",
	"Central Europe Standard Time":  "Europe/Berlin",
	"Central Standard Time":         "America/Chicago",
	"Eastern Standard Time":         "America/New_York",
	"GMT Standard Time":             "Europe/London",
	"Greenwich Standard Time":       "Etc/GMT",
	"Mountain Standard Time":        "America/Denver",
	"Pacific Standard Time":         "America/Los_Angeles",
	"Romance Standard Time":         "Europe/Paris",
	"SA Pacific Standard Time":      "America/Bogota",
	"US Mountain Standard Time":     "America/Phoenix",
	"UTC":                           "UTC",
	"W. Europe Standard Time":       "Europe/Berlin",
}

// LookupAlias returns the canonical zone for a TZID alias.
func LookupAlias(alias string) (string, bool) {
	zone, ok := aliasZones[alias]
	return zone, ok
}

// ResolveTimeZone resolves the first TZID value in params. It returns ""
// when there is no TZID or the alias is unknown; no default zone is assumed.
func ResolveTimeZone(params []Param) string {
	for _, p := range params {
		if p.Name != "TZID" {
			continue
		}
		if len(p.Values) == 0 {
			return ""
		}
		zone, _ := LookupAlias(p.Values[0])
		return zone
	}
	return ""
}
