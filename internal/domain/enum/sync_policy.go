package enum

import "strings"

// SyncPolicy controls what a store does when a remote sync fails
type SyncPolicy int

const (
	// SyncPolicyRollback restores the pre-mutation state
	SyncPolicyRollback SyncPolicy = 0
	// SyncPolicyOptimistic keeps the local change and waits for the next hydrate
	SyncPolicyOptimistic SyncPolicy = 1
)

func (p SyncPolicy) String() string {
	if p == SyncPolicyOptimistic {
		return "optimistic"
	}
	return "rollback"
}

// ParseSyncPolicy falls back to rollback for unknown values
func ParseSyncPolicy(s string) SyncPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "optimistic") {
		return SyncPolicyOptimistic
	}
	return SyncPolicyRollback
}
