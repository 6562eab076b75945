package redis

const (
	// KeyPrefixSite is the prefix for per-site binding keys
	KeyPrefixSite = "sitefleet:site:"
	// KeyPlanSnapshot holds the last plan built by the server
	KeyPlanSnapshot = "sitefleet:plan:snapshot"
	// KeyAllSites is the key for the set of all stored site names
	KeyAllSites = "sitefleet:sites:all"
)

// SiteKey returns the Redis key for a site binding
func SiteKey(name string) string {
	return KeyPrefixSite + name
}

// PlanKey returns the key of the plan snapshot
func PlanKey() string {
	return KeyPlanSnapshot
}

// AllSitesKey returns the key for the set of all site names
func AllSitesKey() string {
	return KeyAllSites
}
