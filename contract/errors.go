package contract

import "errors"

// Sentinel errors for the member registry. Callers match with errors.Is;
// operations wrap them with call-site context.
var (
	ErrMembershipIDEmpty    = errors.New("membership id cannot be empty")
	ErrMembershipIDTooLong  = errors.New("membership id exceeds maximum length")
	ErrMemberIDExists       = errors.New("membership id already registered")
	ErrMemberAccountExists  = errors.New("member account already registered")
	ErrUnknownMemberAccount = errors.New("unknown member account")
	ErrUnknownMemberProfile = errors.New("unknown member profile")
	ErrMemberRoleInvalid    = errors.New("member does not hold the required role")
	ErrProfileInfoEmpty     = errors.New("profile info cannot be empty")
	ErrDepositValueInvalid  = errors.New("deposit value below the membership minimum")
	ErrAccountBalanceLow    = errors.New("account balance below the membership minimum")
)

// Bounded info-list validation failures, shared by member profiles, asset
// profiles and workflow case notes.
var (
	ErrTooManyInfoEntries = errors.New("too many info entries")
	ErrInfoNameTooLong    = errors.New("info name exceeds maximum length")
	ErrInfoValueTooLong   = errors.New("info value exceeds maximum length")
)

// Asset registry and workflow errors.
var (
	ErrAssetIDEmpty                = errors.New("asset id cannot be empty")
	ErrAssetIDTooLong              = errors.New("asset id exceeds maximum length")
	ErrAssetExists                 = errors.New("asset id already exists")
	ErrAssetNotFound               = errors.New("asset id invalid")
	ErrAssetStatusUnexpected       = errors.New("asset status unexpected")
	ErrAssetOwnerUnassigned        = errors.New("asset has no owner assigned")
	ErrAssetOwnerInvalid           = errors.New("caller is not the designated asset owner")
	ErrInsuranceNotNew             = errors.New("asset already carries an insurance request")
	ErrInsuranceNone               = errors.New("asset carries no insurance request")
	ErrInsuranceStatusUnexpected   = errors.New("insurance status unexpected")
	ErrReclaimExists               = errors.New("insurance reclaim already in flight for asset")
	ErrReclaimNotFound             = errors.New("no insurance reclaim in flight for asset")
	ErrReclaimStatusUnexpected     = errors.New("insurance reclaim status unexpected")
	ErrHealthCheckExists           = errors.New("health-check request already in flight for asset")
	ErrHealthCheckNotFound         = errors.New("no health-check record in flight for asset")
	ErrHealthCheckStatusUnexpected = errors.New("health-check status unexpected")
)

// Value-ledger errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferFailed    = errors.New("treasury transfer failed")
)
