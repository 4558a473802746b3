package model

import "time"

// AssetStatus is the lifecycle state of a registered livestock asset.
type AssetStatus string

const (
	AssetStatusNewRegistration AssetStatus = "NewRegistration"
	AssetStatusInFarm          AssetStatus = "InFarm"
	AssetStatusForSale         AssetStatus = "ForSale"
	AssetStatusInTransfer      AssetStatus = "InTransfer"
	AssetStatusExpired         AssetStatus = "Expired"
)

// InsuranceStatus tracks the underwriting state machine embedded in an asset.
type InsuranceStatus string

const (
	InsuranceStatusNewApplication    InsuranceStatus = "NewApplication"
	InsuranceStatusPremiumQuoted     InsuranceStatus = "PremiumQuoted"
	InsuranceStatusPremiumPaid       InsuranceStatus = "PremiumPaid"
	InsuranceStatusActive            InsuranceStatus = "Active"
	InsuranceStatusReclaimInProgress InsuranceStatus = "ReclaimInProgress"
	InsuranceStatusReclaimDone       InsuranceStatus = "ReclaimDone"
	InsuranceStatusExpired           InsuranceStatus = "Expired"
)

// ReclaimStatus tracks an insurance reclaim through its two approvals.
type ReclaimStatus string

const (
	ReclaimStatusNew                  ReclaimStatus = "NewReclaim"
	ReclaimStatusCommunityApproved    ReclaimStatus = "CommunityApproved"
	ReclaimStatusCommunityDisapproved ReclaimStatus = "CommunityDisapproved"
	ReclaimStatusInsurerApproved      ReclaimStatus = "InsurerApproved"
	ReclaimStatusInsurerDisapproved   ReclaimStatus = "InsurerDisapproved"
	ReclaimStatusCoveragePaid         ReclaimStatus = "CoveragePaid"
)

// HealthCheckStatus tracks a treatment record from owner request to
// community sign-off.
type HealthCheckStatus string

const (
	HealthCheckStatusNewRequest          HealthCheckStatus = "NewRequest"
	HealthCheckStatusTreatmentInProgress HealthCheckStatus = "TreatmentInProgress"
	HealthCheckStatusTreatmentDone       HealthCheckStatus = "TreatmentDone"
	HealthCheckStatusCommunityApproved   HealthCheckStatus = "CommunityApproved"
)

// AssetProfile is the canonical record of a livestock asset. A freshly
// requested registration lives in the staging queue under the same id until
// a community leader approves it; an id is never present in both places.
type AssetProfile struct {
	ObjectType string          `json:"objectType"`
	ID         string          `json:"assetId"`
	Info       []InfoField     `json:"assetInfo,omitempty"`
	JoinedDate time.Time       `json:"joinedDate"`
	Status     AssetStatus     `json:"assetStatus"`
	Owners     []string        `json:"assetOwners"`
	Keepers    []string        `json:"assetKeepers"`
	Insurance  *AssetInsurance `json:"assetInsurance,omitempty"`
}

// DesignatedOwner returns the single account authorized to act as the
// asset's owner: the most recently appended entry of the owners list.
func (a *AssetProfile) DesignatedOwner() (string, bool) {
	if len(a.Owners) == 0 {
		return "", false
	}
	return a.Owners[len(a.Owners)-1], true
}

// AssetInsurance is embedded in the canonical asset profile once the owner
// applies for cover. At most one per asset.
type AssetInsurance struct {
	AssetID         string          `json:"assetId"`
	Status          InsuranceStatus `json:"status"`
	StartDate       time.Time       `json:"startDate"`
	ExpiryDate      time.Time       `json:"expiryDate"`
	QuotedPremium   uint64          `json:"quotedPremium"`
	PremiumPaidDate time.Time       `json:"premiumPaidDate"`
	Coverage        uint64          `json:"coverage"`
}

// InsuranceReclaim is a staged claim keyed by asset id, at most one in
// flight per asset.
type InsuranceReclaim struct {
	ObjectType    string        `json:"objectType"`
	AssetID       string        `json:"assetId"`
	AppliedDate   time.Time     `json:"appliedDate"`
	ClosedDate    time.Time     `json:"closedDate"`
	Status        ReclaimStatus `json:"status"`
	OwnerNote     []InfoField   `json:"ownerNote,omitempty"`
	CommunityNote []InfoField   `json:"communityNote,omitempty"`
	InsurerNote   []InfoField   `json:"insurerNote,omitempty"`
}

// PaginatedAssetResponse is the page returned by asset listing queries.
type PaginatedAssetResponse struct {
	Assets       []*AssetProfile `json:"assets"`
	NextBookmark string          `json:"nextBookmark"`
	FetchedCount int32           `json:"fetchedCount"`
}

// HealthCheckRecord is a staged treatment case keyed by asset id, at most
// one in flight per asset. Officer and community notes accumulate across
// repeated remarks.
type HealthCheckRecord struct {
	ObjectType    string            `json:"objectType"`
	AssetID       string            `json:"assetId"`
	RequestDate   time.Time         `json:"requestDate"`
	ClosedDate    time.Time         `json:"closedDate"`
	Status        HealthCheckStatus `json:"status"`
	OwnerNote     []InfoField       `json:"ownerNote,omitempty"`
	OfficerNote   []InfoField       `json:"healthOfficerNote,omitempty"`
	CommunityNote []InfoField       `json:"communityNote,omitempty"`
}
