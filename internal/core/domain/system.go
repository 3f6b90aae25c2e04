package domain

// HiveSystemID is the self-system under which Hive's own API permissions
// (api-check-permissions, api-list-tagged, ...) live.
const HiveSystemID = "hive"

// System is an external service that defers authorization decisions to Hive.
type System struct {
	ID          string
	Description string
}
