package contract

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("coopstock.coopcontract")

// Object types for composite keys, also usable as 'docType' in CouchDB.
const (
	memberObjectType        = "MemberProfile"          // profile keyed by membership id
	memberAccountObjectType = "MemberAccount"          // account -> membership id mapping
	adminFlagObjectType     = "AdminFlag"              // create-role capability flag per account
	balanceObjectType       = "Balance"                // value-ledger account
	assetObjectType         = "AssetProfile"           // canonical (approved) assets
	assetQueueObjectType    = "AssetRegistrationQueue" // staged registration requests
	reclaimQueueObjectType  = "InsuranceReclaimQueue"  // staged insurance reclaims
	healthQueueObjectType   = "HealthCheckQueue"       // staged health-check records
)

// Bounds on identifiers and info lists. These mirror the society's
// registration paperwork limits and are checked before any mutation.
const (
	membershipIDMaxLength    = 36
	memberInfoMaxEntries     = 5
	memberInfoNameMaxLength  = 10
	memberInfoValueMaxLength = 20

	assetIDMaxLength        = 36
	assetInfoMaxEntries     = 10
	assetInfoNameMaxLength  = 20
	assetInfoValueMaxLength = 40

	reclaimInfoMaxEntries     = 10
	healthCheckInfoMaxEntries = 10
)

// Society parameters.
const (
	coopSocietyIndex     = 1
	memberDepositMinimum = uint64(1)
)

// CoopSmartContract manages the cooperative livestock society: membership,
// asset registration and the insurance, reclaim and health-check workflows.
type CoopSmartContract struct {
	contractapi.Contract
}

// actorInfo holds commonly needed details about the transaction invoker.
type actorInfo struct {
	account string
	mspID   string
}

// Instantiate is called during chaincode instantiation.
func (s *CoopSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("CoopSmartContract instantiated/upgraded")
}

// --- Member Registry Wrappers (delegating to MemberManager) ---

// MakeCoopAdmin grants the create-role capability to an account. The first
// grant bootstraps the society; afterwards only admins may grant it.
func (s *CoopSmartContract) MakeCoopAdmin(ctx contractapi.TransactionContextInterface, account string) error {
	logger.Infof("Chaincode Call: MakeCoopAdmin for '%s'", account)
	return NewMemberManager(ctx).MakeAdmin(account)
}

// FundAccount credits amount to an account's ledger balance. Admin only;
// stands in for genesis balances of the external value ledger.
func (s *CoopSmartContract) FundAccount(ctx contractapi.TransactionContextInterface, account string, amount uint64) error {
	logger.Infof("Chaincode Call: FundAccount '%s' with %d", account, amount)
	mm := NewMemberManager(ctx)
	if err := mm.requireCreateRoleCapability(); err != nil {
		return err
	}
	return creditAccount(ctx, account, amount)
}

// RegisterMember admits a new society member. profileInfoJSON is an
// optional JSON array of {infoName, infoValue} pairs.
func (s *CoopSmartContract) RegisterMember(ctx contractapi.TransactionContextInterface,
	memberAccount, membershipID, profileInfoJSON string, depositValue uint64) error {
	logger.Infof("Chaincode Call: RegisterMember '%s' (membership '%s')", memberAccount, membershipID)
	info, err := parseInfoFieldsJSON(profileInfoJSON, "profileInfo")
	if err != nil {
		return err
	}
	return NewMemberManager(ctx).RegisterMember(memberAccount, membershipID, info, depositValue)
}

// UpdateMemberProfileInfo replaces a member's profile attributes wholesale.
func (s *CoopSmartContract) UpdateMemberProfileInfo(ctx contractapi.TransactionContextInterface,
	memberAccount, profileInfoJSON string) error {
	logger.Infof("Chaincode Call: UpdateMemberProfileInfo for '%s'", memberAccount)
	info, err := parseInfoFieldsJSON(profileInfoJSON, "profileInfo")
	if err != nil {
		return err
	}
	return NewMemberManager(ctx).UpdateProfileInfo(memberAccount, info)
}

// UpdateMemberRole replaces a member's role set wholesale. rolesJSON is a
// JSON array of role names; empty or null suspends the member.
func (s *CoopSmartContract) UpdateMemberRole(ctx contractapi.TransactionContextInterface,
	memberAccount, rolesJSON string) error {
	logger.Infof("Chaincode Call: UpdateMemberRole for '%s'", memberAccount)
	roles, err := parseRolesJSON(rolesJSON)
	if err != nil {
		return fmt.Errorf("UpdateMemberRole: %w", err)
	}
	return NewMemberManager(ctx).UpdateRoles(memberAccount, roles)
}
