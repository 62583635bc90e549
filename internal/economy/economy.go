// Package economy holds the pure derived-economy math. The constants
// mirror the backend's and must stay numerically identical to it; the
// backend does not expose them, so there is no runtime check.
package economy

const (
	BuildingAssetMultiplier = 10000
	GPSAssetMultiplier      = 1000
	UpgradeCostPerLevel     = 1000

	LootRatio           = 0.3
	MaxUncollectedHours = 24

	EmployeeGPSBonus         = 0.1
	MaxEmployeeGPSMultiplier = 2.0
)

// Assets is the leaderboard-visible total for one snapshot.
func Assets(gold, buildingLevel int64, gps float64) int64 {
	return gold + buildingLevel*BuildingAssetMultiplier + int64(gps*GPSAssetMultiplier)
}

// UpgradeCost is the gold price of moving off the current level.
func UpgradeCost(currentLevel int64) int64 {
	return currentLevel * UpgradeCostPerLevel
}
