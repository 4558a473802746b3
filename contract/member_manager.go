package contract

import (
	"encoding/json"
	"fmt"
	"time"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var memberLogger = flogging.MustGetLogger("coopstock.membermanager")

// validRoles is the closed set of role tags a member may hold.
var validRoles = map[model.MemberRole]bool{
	model.RoleCommunityHead:   true,
	model.RoleCommunityLeader: true,
	model.RoleAssetOwner:      true,
	model.RoleAssetKeeper:     true,
	model.RoleInsurer:         true,
	model.RoleHealthOfficer:   true,
}

// MemberManager handles member admission, profile and role management, and
// the create-role capability (admin flag) that gates all of it.
type MemberManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewMemberManager creates a new instance of MemberManager.
func NewMemberManager(ctx contractapi.TransactionContextInterface) *MemberManager {
	return &MemberManager{Ctx: ctx}
}

// --- Key creation helpers ---

func (mm *MemberManager) createMemberKey(membershipID string) (string, error) {
	return mm.Ctx.GetStub().CreateCompositeKey(memberObjectType, []string{membershipID})
}

func (mm *MemberManager) createAccountKey(account string) (string, error) {
	return mm.Ctx.GetStub().CreateCompositeKey(memberAccountObjectType, []string{account})
}

func (mm *MemberManager) createAdminFlagKey(account string) (string, error) {
	return mm.Ctx.GetStub().CreateCompositeKey(adminFlagObjectType, []string{account})
}

// --- Create-role capability (admin flag) ---

// IsAdmin checks whether an account holds the create-role capability.
func (mm *MemberManager) IsAdmin(account string) (bool, error) {
	key, err := mm.createAdminFlagKey(account)
	if err != nil {
		return false, fmt.Errorf("failed to create admin flag key for '%s': %w", account, err)
	}
	flag, err := mm.Ctx.GetStub().GetState(key)
	if err != nil {
		return false, fmt.Errorf("ledger error checking admin flag for '%s': %w", account, err)
	}
	return flag != nil && string(flag) == "true", nil
}

// AnyAdminExists checks if any admin flag is set on the ledger.
func (mm *MemberManager) AnyAdminExists() (bool, error) {
	iterator, err := mm.Ctx.GetStub().GetStateByPartialCompositeKey(adminFlagObjectType, []string{})
	if err != nil {
		return false, fmt.Errorf("failed to query admin flags: %w", err)
	}
	defer iterator.Close()
	return iterator.HasNext(), nil
}

// MakeAdmin grants the create-role capability. When no admin exists yet
// this is the bootstrap path and any caller may perform it; afterwards the
// caller must already be an admin.
func (mm *MemberManager) MakeAdmin(account string) error {
	anyAdminExists, err := mm.AnyAdminExists()
	if err != nil {
		return fmt.Errorf("failed to check if any admin exists for MakeAdmin: %w", err)
	}
	caller, err := mm.currentCallerAccount()
	if err != nil {
		return fmt.Errorf("failed to get caller for MakeAdmin: %w", err)
	}
	if anyAdminExists {
		isCallerAdmin, err := mm.IsAdmin(caller)
		if err != nil {
			return fmt.Errorf("failed to verify caller '%s' admin status for MakeAdmin: %w", caller, err)
		}
		if !isCallerAdmin {
			return fmt.Errorf("caller '%s' is not authorized to grant admin", caller)
		}
	} else {
		memberLogger.Infof("No admins exist. Bootstrap: caller '%s' grants admin to '%s'.", caller, account)
	}

	key, err := mm.createAdminFlagKey(account)
	if err != nil {
		return fmt.Errorf("failed to create admin flag key for '%s': %w", account, err)
	}
	return mm.Ctx.GetStub().PutState(key, []byte("true"))
}

// requireCreateRoleCapability gates member registry mutations: the caller
// must hold the admin flag.
func (mm *MemberManager) requireCreateRoleCapability() error {
	caller, err := mm.currentCallerAccount()
	if err != nil {
		return fmt.Errorf("failed to resolve caller: %w", err)
	}
	isAdmin, err := mm.IsAdmin(caller)
	if err != nil {
		return fmt.Errorf("failed to check admin status for '%s': %w", caller, err)
	}
	if !isAdmin {
		return fmt.Errorf("caller '%s' lacks the create-role capability", caller)
	}
	return nil
}

func (mm *MemberManager) currentCallerAccount() (string, error) {
	clientIdentity := mm.Ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", fmt.Errorf("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("client identity ID from context is empty")
	}
	return id, nil
}

// --- Member admission and mutation ---

// RegisterMember admits a new member: validates the membership id and
// profile info, enforces uniqueness of both the id and the account, takes
// the membership deposit into the treasury and stores the profile.
func (mm *MemberManager) RegisterMember(memberAccount, membershipID string, info []model.InfoField, depositValue uint64) error {
	if err := mm.requireCreateRoleCapability(); err != nil {
		return err
	}
	caller, err := mm.currentCallerAccount()
	if err != nil {
		return fmt.Errorf("RegisterMember: %w", err)
	}

	if err := validateMembershipID(membershipID); err != nil {
		return err
	}
	if err := validateInfoFields(info, "profileInfo",
		memberInfoMaxEntries, memberInfoNameMaxLength, memberInfoValueMaxLength); err != nil {
		return err
	}

	memberKey, err := mm.createMemberKey(membershipID)
	if err != nil {
		return fmt.Errorf("failed to create member key for '%s': %w", membershipID, err)
	}
	existing, err := mm.Ctx.GetStub().GetState(memberKey)
	if err != nil {
		return fmt.Errorf("failed to check membership id '%s': %w", membershipID, err)
	}
	if existing != nil {
		return fmt.Errorf("membership id '%s': %w", membershipID, ErrMemberIDExists)
	}

	accountKey, err := mm.createAccountKey(memberAccount)
	if err != nil {
		return fmt.Errorf("failed to create account key for '%s': %w", memberAccount, err)
	}
	existing, err = mm.Ctx.GetStub().GetState(accountKey)
	if err != nil {
		return fmt.Errorf("failed to check member account '%s': %w", memberAccount, err)
	}
	if existing != nil {
		return fmt.Errorf("account '%s': %w", memberAccount, ErrMemberAccountExists)
	}

	if depositValue < memberDepositMinimum {
		return fmt.Errorf("deposit %d below minimum %d: %w", depositValue, memberDepositMinimum, ErrDepositValueInvalid)
	}
	balance, err := getBalance(mm.Ctx, memberAccount)
	if err != nil {
		return err
	}
	if balance < memberDepositMinimum {
		return fmt.Errorf("account '%s' balance %d below minimum %d: %w",
			memberAccount, balance, memberDepositMinimum, ErrAccountBalanceLow)
	}

	now, err := mm.currentTxTime()
	if err != nil {
		return err
	}

	if err := transfer(mm.Ctx, memberAccount, treasuryAccountID(coopSocietyIndex), depositValue); err != nil {
		return fmt.Errorf("membership deposit for '%s': %v: %w", memberAccount, err, ErrTransferFailed)
	}

	profile := model.MemberProfile{
		ObjectType:   memberObjectType,
		Account:      memberAccount,
		MembershipID: membershipID,
		ProfileInfo:  info,
		JoinedDate:   now,
		Karma:        0,
		Deposit:      depositValue,
	}
	profileBytes, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal member profile '%s': %w", membershipID, err)
	}
	if err := mm.Ctx.GetStub().PutState(accountKey, []byte(membershipID)); err != nil {
		return fmt.Errorf("failed to save account mapping for '%s': %w", memberAccount, err)
	}
	if err := mm.Ctx.GetStub().PutState(memberKey, profileBytes); err != nil {
		return fmt.Errorf("failed to save member profile '%s': %w", membershipID, err)
	}

	mm.emitMemberEvent("MemberProfileRegistered", map[string]interface{}{
		"actor":        caller,
		"member":       memberAccount,
		"membershipId": membershipID,
	})
	memberLogger.Infof("Member '%s' registered with membership id '%s' by '%s'", memberAccount, membershipID, caller)
	return nil
}

// UpdateProfileInfo replaces the stored profile attributes wholesale.
// An absent info list is rejected: there is nothing to replace with.
func (mm *MemberManager) UpdateProfileInfo(memberAccount string, info []model.InfoField) error {
	if err := mm.requireCreateRoleCapability(); err != nil {
		return err
	}
	caller, err := mm.currentCallerAccount()
	if err != nil {
		return fmt.Errorf("UpdateProfileInfo: %w", err)
	}
	if info == nil {
		return ErrProfileInfoEmpty
	}
	if err := validateInfoFields(info, "profileInfo",
		memberInfoMaxEntries, memberInfoNameMaxLength, memberInfoValueMaxLength); err != nil {
		return err
	}

	if err := mm.mutateMemberByAccount(memberAccount, func(profile *model.MemberProfile) error {
		profile.ProfileInfo = info
		return nil
	}); err != nil {
		return err
	}

	mm.emitMemberEvent("MemberProfileInfoUpdated", map[string]interface{}{
		"actor":  caller,
		"member": memberAccount,
	})
	return nil
}

// UpdateRoles replaces the member's role set wholesale. A non-empty set
// activates the member, an empty one suspends them.
func (mm *MemberManager) UpdateRoles(memberAccount string, roles []model.MemberRole) error {
	if err := mm.requireCreateRoleCapability(); err != nil {
		return err
	}
	caller, err := mm.currentCallerAccount()
	if err != nil {
		return fmt.Errorf("UpdateRoles: %w", err)
	}

	status := model.MemberStatusSuspended
	if len(roles) > 0 {
		status = model.MemberStatusActive
	}
	if err := mm.mutateMemberByAccount(memberAccount, func(profile *model.MemberProfile) error {
		profile.Status = status
		profile.Roles = roles
		return nil
	}); err != nil {
		return err
	}

	mm.emitMemberEvent("MemberProfileRoleUpdated", map[string]interface{}{
		"actor":  caller,
		"member": memberAccount,
	})
	return nil
}

// --- Lookups and the role gate ---

// GetMemberByAccount resolves account -> membership id -> profile.
func (mm *MemberManager) GetMemberByAccount(account string) (*model.MemberProfile, error) {
	accountKey, err := mm.createAccountKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to create account key for '%s': %w", account, err)
	}
	membershipIDBytes, err := mm.Ctx.GetStub().GetState(accountKey)
	if err != nil {
		return nil, fmt.Errorf("ledger error resolving account '%s': %w", account, err)
	}
	if membershipIDBytes == nil {
		return nil, fmt.Errorf("account '%s': %w", account, ErrUnknownMemberAccount)
	}
	memberKey, err := mm.createMemberKey(string(membershipIDBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create member key for '%s': %w", string(membershipIDBytes), err)
	}
	profileBytes, err := mm.Ctx.GetStub().GetState(memberKey)
	if err != nil {
		return nil, fmt.Errorf("ledger error reading profile '%s': %w", string(membershipIDBytes), err)
	}
	if profileBytes == nil {
		return nil, fmt.Errorf("membership id '%s': %w", string(membershipIDBytes), ErrUnknownMemberProfile)
	}
	var profile model.MemberProfile
	if err := json.Unmarshal(profileBytes, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal member profile '%s': %w", string(membershipIDBytes), err)
	}
	return &profile, nil
}

// RequireRole is the role gate used as the first check of every workflow
// operation: it fails unless the account's profile holds the given role.
func (mm *MemberManager) RequireRole(account string, role model.MemberRole) error {
	profile, err := mm.GetMemberByAccount(account)
	if err != nil {
		return err
	}
	if len(profile.Roles) == 0 || !profile.HasRole(role) {
		return fmt.Errorf("account '%s' lacks role '%s': %w", account, role, ErrMemberRoleInvalid)
	}
	return nil
}

func (mm *MemberManager) mutateMemberByAccount(account string, f func(*model.MemberProfile) error) error {
	profile, err := mm.GetMemberByAccount(account)
	if err != nil {
		return err
	}
	if err := f(profile); err != nil {
		return err
	}
	memberKey, err := mm.createMemberKey(profile.MembershipID)
	if err != nil {
		return fmt.Errorf("failed to create member key for '%s': %w", profile.MembershipID, err)
	}
	profileBytes, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal member profile '%s': %w", profile.MembershipID, err)
	}
	return mm.Ctx.GetStub().PutState(memberKey, profileBytes)
}

func (mm *MemberManager) currentTxTime() (time.Time, error) {
	ts, err := mm.Ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

func (mm *MemberManager) emitMemberEvent(eventName string, payload map[string]interface{}) {
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		memberLogger.Warningf("emitMemberEvent: failed to marshal payload for '%s': %v", eventName, err)
		return
	}
	if err := mm.Ctx.GetStub().SetEvent(eventName, eventBytes); err != nil {
		memberLogger.Warningf("emitMemberEvent: failed to set event '%s': %v", eventName, err)
	}
}
