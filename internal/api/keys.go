package api

import (
	"fmt"
	"time"
)

// Idempotency keys are advisory dedup tokens for the backend. Three
// shapes: time-bucketed (one intended call per bucket), target-keyed
// (one per domain identifier), and none for reads. Buckets use UTC so
// two clients on different machines agree on the bucket.

const (
	hourBucketLayout = "2006-01-02T15"
	dayBucketLayout  = "2006-01-02"
)

func collectKey(identity string, now time.Time) string {
	return fmt.Sprintf("collect:%s:%s", identity, now.UTC().Format(hourBucketLayout))
}

func upgradeKey(identity string, now time.Time) string {
	return fmt.Sprintf("upgrade:%s:%s", identity, now.UTC().Format(hourBucketLayout))
}

func changeTypeKey(identity, buildingType string) string {
	return fmt.Sprintf("change_type:%s:%s", identity, buildingType)
}

func raidKey(identity, defender, nonce string) string {
	return fmt.Sprintf("raid:%s:%s:%s", identity, defender, nonce)
}

func inviteKey(identity string, now time.Time) string {
	return fmt.Sprintf("emp_invite:%s:%s", identity, now.UTC().Format(dayBucketLayout))
}

func acceptKey(identity, inviteID string) string {
	return fmt.Sprintf("emp_accept:%s:%s", identity, inviteID)
}

func viralContactsKey(identity string, now time.Time) string {
	return fmt.Sprintf("viral_contacts:%s:%s", identity, now.UTC().Format(dayBucketLayout))
}

func blockKey(identity, target string) string {
	return fmt.Sprintf("block:%s:%s", identity, target)
}

func shareRewardKey(identity, raidID string) string {
	return fmt.Sprintf("share_reward:%s:%s", identity, raidID)
}

func grantKey(identity, orderID string) string {
	return fmt.Sprintf("iap_grant:%s:%s", identity, orderID)
}

func completeKey(identity, orderID string) string {
	return fmt.Sprintf("iap_complete:%s:%s", identity, orderID)
}

func adRewardKey(identity, adEventID string) string {
	return fmt.Sprintf("ad_reward:%s:%s", identity, adEventID)
}
