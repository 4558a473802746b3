package contract

import (
	"fmt"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Insurance reclaim: NewReclaim -> Community{Approved,Disapproved} ->
// Insurer{Approved,Disapproved}. The insurer only rules on claims the
// community approved. Every operation requires the asset InFarm and its
// insurance Active. ---

// requireActiveInsuredAsset loads the asset and checks the shared
// preconditions of all reclaim operations.
func (s *CoopSmartContract) requireActiveInsuredAsset(ctx contractapi.TransactionContextInterface, assetID string) (*model.AssetProfile, error) {
	asset, err := s.getAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if err := requireAssetStatus(asset, model.AssetStatusInFarm); err != nil {
		return nil, err
	}
	if err := requireInsuranceStatus(asset, model.InsuranceStatusActive); err != nil {
		return nil, err
	}
	return asset, nil
}

// RequestInsuranceReclaim stages a claim against an asset's active cover.
// One claim may be in flight per asset; noteJSON carries the owner's case
// notes as a JSON array of {infoName, infoValue} pairs.
func (s *CoopSmartContract) RequestInsuranceReclaim(ctx contractapi.TransactionContextInterface,
	assetID, noteJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("RequestInsuranceReclaim: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleAssetOwner); err != nil {
		return err
	}

	asset, err := s.requireActiveInsuredAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("RequestInsuranceReclaim: %w", err)
	}
	if err := requireAssetOwnership(asset, actor.account); err != nil {
		return err
	}

	note, err := parseInfoFieldsJSON(noteJSON, "reclaimNote")
	if err != nil {
		return err
	}
	if err := validateInfoFields(note, "reclaimNote",
		reclaimInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	queueKey, err := s.createAssetKey(ctx, reclaimQueueObjectType, assetID)
	if err != nil {
		return fmt.Errorf("RequestInsuranceReclaim: %w", err)
	}
	existing, err := ctx.GetStub().GetState(queueKey)
	if err != nil {
		return fmt.Errorf("RequestInsuranceReclaim: failed to check reclaim queue for '%s': %w", assetID, err)
	}
	if existing != nil {
		return fmt.Errorf("asset '%s': %w", assetID, ErrReclaimExists)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("RequestInsuranceReclaim: %w", err)
	}

	reclaim := model.InsuranceReclaim{
		ObjectType:  reclaimQueueObjectType,
		AssetID:     assetID,
		AppliedDate: now,
		Status:      model.ReclaimStatusNew,
		OwnerNote:   note,
	}
	if err := s.putReclaim(ctx, &reclaim); err != nil {
		return fmt.Errorf("RequestInsuranceReclaim: failed to stage reclaim for '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetInsuranceReclaim", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
	})
	logger.Infof("Insurance reclaim staged for asset '%s' by owner '%s'", assetID, actor.account)
	return nil
}

// CommunityApproveReclaim records the community leader's ruling on a fresh
// claim, setting it to CommunityApproved or CommunityDisapproved.
func (s *CoopSmartContract) CommunityApproveReclaim(ctx contractapi.TransactionContextInterface,
	assetID string, approve bool, noteJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("CommunityApproveReclaim: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleCommunityLeader); err != nil {
		return err
	}

	if _, err := s.requireActiveInsuredAsset(ctx, assetID); err != nil {
		return fmt.Errorf("CommunityApproveReclaim: %w", err)
	}

	note, err := parseInfoFieldsJSON(noteJSON, "communityNote")
	if err != nil {
		return err
	}
	if err := validateInfoFields(note, "communityNote",
		reclaimInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	reclaim, err := s.getReclaimByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("CommunityApproveReclaim: %w", err)
	}
	if reclaim.Status != model.ReclaimStatusNew {
		return fmt.Errorf("reclaim for asset '%s' has status '%s': %w",
			assetID, reclaim.Status, ErrReclaimStatusUnexpected)
	}

	reclaim.CommunityNote = note
	if approve {
		reclaim.Status = model.ReclaimStatusCommunityApproved
	} else {
		reclaim.Status = model.ReclaimStatusCommunityDisapproved
	}
	if err := s.putReclaim(ctx, reclaim); err != nil {
		return fmt.Errorf("CommunityApproveReclaim: failed to save reclaim for '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetInsuranceReclaimCommunityApproved", map[string]interface{}{
		"actor":    actor.account,
		"assetId":  assetID,
		"approved": approve,
	})
	return nil
}

// InsurerApproveReclaim records the insurer's ruling. Only claims the
// community approved can proceed; a disapproved claim is final.
func (s *CoopSmartContract) InsurerApproveReclaim(ctx contractapi.TransactionContextInterface,
	assetID string, approve bool, noteJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("InsurerApproveReclaim: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleInsurer); err != nil {
		return err
	}

	if _, err := s.requireActiveInsuredAsset(ctx, assetID); err != nil {
		return fmt.Errorf("InsurerApproveReclaim: %w", err)
	}

	note, err := parseInfoFieldsJSON(noteJSON, "insurerNote")
	if err != nil {
		return err
	}
	if err := validateInfoFields(note, "insurerNote",
		reclaimInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	reclaim, err := s.getReclaimByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("InsurerApproveReclaim: %w", err)
	}
	if reclaim.Status != model.ReclaimStatusCommunityApproved {
		return fmt.Errorf("reclaim for asset '%s' has status '%s': %w",
			assetID, reclaim.Status, ErrReclaimStatusUnexpected)
	}

	reclaim.InsurerNote = note
	if approve {
		reclaim.Status = model.ReclaimStatusInsurerApproved
	} else {
		reclaim.Status = model.ReclaimStatusInsurerDisapproved
	}
	if err := s.putReclaim(ctx, reclaim); err != nil {
		return fmt.Errorf("InsurerApproveReclaim: failed to save reclaim for '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetInsuranceReclaimInsurerApproved", map[string]interface{}{
		"actor":    actor.account,
		"assetId":  assetID,
		"approved": approve,
	})
	return nil
}
