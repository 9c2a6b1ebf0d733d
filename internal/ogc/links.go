package ogc

import "strings"

// Capability families detectable from landing page link relations.
const (
	CapabilityFeatures  = "features"
	CapabilityRecords   = "records"
	CapabilityProcesses = "processes"
	CapabilityJobs      = "jobs"
	CapabilityTiles     = "tiles"
	CapabilityEDR       = "edr"
)

// capabilityRels maps capability families to the link relations that signal
// them. Both short rel names and full OGC URI relations are matched; different
// server implementations use different formats.
var capabilityRels = map[string][]string{
	CapabilityFeatures:  {"data", "collections"},
	CapabilityProcesses: {"processes", "http://www.opengis.net/def/rel/ogc/1.0/processes"},
	CapabilityJobs:      {"job-list", "http://www.opengis.net/def/rel/ogc/1.0/job-list"},
	CapabilityTiles:     {"tiling-schemes", "http://www.opengis.net/def/rel/ogc/1.0/tiling-schemes"},
}

// Conformance class fragments used to detect families the landing page links
// alone cannot reveal.
const (
	conformanceRecords = "ogcapi-records"
	conformanceEDR     = "ogcapi-edr"
)

// FindLinkHref returns the href of the first link matching rel. Matches both
// exact short relations ("data", "self") and full OGC URI relations by suffix
// (".../ogc/1.0/processes" matches "processes").
func FindLinkHref(links []Link, rel string) (string, bool) {
	for _, link := range links {
		if link.Rel == rel || strings.HasSuffix(link.Rel, "/"+rel) {
			return link.Href, true
		}
	}
	return "", false
}

// DetectCapabilities inspects landing page links and conformance classes and
// returns the supported capability families in a fixed order.
func DetectCapabilities(links []Link, conformsTo []string) []string {
	rels := make(map[string]struct{}, len(links))
	for _, link := range links {
		rels[link.Rel] = struct{}{}
	}

	matches := func(candidates []string) bool {
		for _, want := range candidates {
			if _, ok := rels[want]; ok {
				return true
			}
			for rel := range rels {
				if strings.HasSuffix(rel, "/"+want) {
					return true
				}
			}
		}
		return false
	}

	var caps []string
	for _, family := range []string{CapabilityFeatures, CapabilityProcesses, CapabilityJobs, CapabilityTiles} {
		if matches(capabilityRels[family]) {
			caps = append(caps, family)
		}
	}

	for _, class := range conformsTo {
		lc := strings.ToLower(class)
		if strings.Contains(lc, conformanceRecords) {
			caps = appendUnique(caps, CapabilityRecords)
		}
		if strings.Contains(lc, conformanceEDR) {
			caps = appendUnique(caps, CapabilityEDR)
		}
	}

	return caps
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
