package model

import "time"

// MemberStatus is the lifecycle state of a society membership. A profile is
// created with no status; it is set on the first role update.
type MemberStatus string

const (
	MemberStatusActive     MemberStatus = "Active"
	MemberStatusSuspended  MemberStatus = "Suspended"
	MemberStatusTerminated MemberStatus = "Terminated"
)

// MemberRole is a capability tag held by a society member.
type MemberRole string

const (
	RoleCommunityHead   MemberRole = "communityHead"
	RoleCommunityLeader MemberRole = "communityLeader"
	RoleAssetOwner      MemberRole = "assetOwner"
	RoleAssetKeeper     MemberRole = "assetKeeper"
	RoleInsurer         MemberRole = "insurer"
	RoleHealthOfficer   MemberRole = "healthOfficer"
)

// InfoField is a bounded name/value attribute used for member profiles,
// asset profiles and workflow case notes.
type InfoField struct {
	Name  string `json:"infoName"`  // e.g. "breed", "country", "illness"
	Value string `json:"infoValue"` // e.g. "redsindhi", "UK", "not feeding"
}

// MemberProfile stores a registered society member.
// An account maps to at most one membership id and vice versa; profiles are
// never deleted (suspension is a status change).
type MemberProfile struct {
	ObjectType   string       `json:"objectType"`
	Account      string       `json:"account"`      // caller identity the membership is bound to
	MembershipID string       `json:"membershipId"` // externally issued society membership id
	ProfileInfo  []InfoField  `json:"profileInfo"`
	JoinedDate   time.Time    `json:"joinedDate"`
	Status       MemberStatus `json:"status,omitempty"`
	Roles        []MemberRole `json:"roles,omitempty"`
	Karma        uint32       `json:"karma"` // reputation counter
	Deposit      uint64       `json:"deposit"`
}

// HasRole reports whether the profile's role set contains role.
func (m *MemberProfile) HasRole(role MemberRole) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BalanceRecord is a simple value-ledger account kept in world state. The
// society treasury is one of these accounts.
type BalanceRecord struct {
	ObjectType string `json:"objectType"`
	Account    string `json:"account"`
	Amount     uint64 `json:"amount"`
}
