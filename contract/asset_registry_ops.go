package contract

import (
	"fmt"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Asset registration: two-phase admission ---

// RegisterAsset files a registration request for a new livestock asset.
// The record is staged under the asset id until a community leader decides
// on it; the id must be unused in both the staging queue and the canonical
// store. profileInfoJSON is an optional JSON array of {infoName, infoValue}
// pairs.
func (s *CoopSmartContract) RegisterAsset(ctx contractapi.TransactionContextInterface,
	assetID, profileInfoJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("RegisterAsset: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleAssetOwner); err != nil {
		return err
	}

	logger.Infof("Asset owner '%s' requesting registration of asset '%s'", actor.account, assetID)

	if err := validateAssetID(assetID); err != nil {
		return err
	}
	info, err := parseInfoFieldsJSON(profileInfoJSON, "assetInfo")
	if err != nil {
		return err
	}
	if err := validateInfoFields(info, "assetInfo",
		assetInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	// The id must be new to both stores: an asset id never lives in the
	// staging queue and the canonical store at the same time.
	for _, objectType := range []string{assetQueueObjectType, assetObjectType} {
		exists, err := s.assetExistsIn(ctx, objectType, assetID)
		if err != nil {
			return fmt.Errorf("RegisterAsset: %w", err)
		}
		if exists {
			return fmt.Errorf("asset id '%s': %w", assetID, ErrAssetExists)
		}
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("RegisterAsset: %w", err)
	}

	asset := model.AssetProfile{
		ObjectType: assetQueueObjectType,
		ID:         assetID,
		Info:       info,
		JoinedDate: now,
		Status:     model.AssetStatusNewRegistration,
		Owners:     []string{actor.account},
		Keepers:    []string{actor.account},
	}
	if err := s.putAssetTo(ctx, assetQueueObjectType, &asset); err != nil {
		return fmt.Errorf("RegisterAsset: failed to stage asset '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "RequestAssetRegistration", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
	})
	return nil
}

// ProcessAssetRegistration decides on a staged registration request. The
// staging entry is consumed either way; approval asserts the staged status
// and moves the record into the canonical store as InFarm, rejection simply
// discards it.
func (s *CoopSmartContract) ProcessAssetRegistration(ctx contractapi.TransactionContextInterface,
	assetID string, approve bool) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("ProcessAssetRegistration: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleCommunityLeader); err != nil {
		return err
	}

	logger.Infof("Community leader '%s' processing registration of asset '%s' (approve=%v)", actor.account, assetID, approve)

	asset, err := s.getPendingAssetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("ProcessAssetRegistration: %w", err)
	}

	if approve {
		if err := requireAssetStatus(asset, model.AssetStatusNewRegistration); err != nil {
			return fmt.Errorf("ProcessAssetRegistration: %w", err)
		}
		asset.Status = model.AssetStatusInFarm
		asset.ObjectType = assetObjectType
		if err := s.putAssetTo(ctx, assetObjectType, asset); err != nil {
			return fmt.Errorf("ProcessAssetRegistration: failed to save asset '%s': %w", assetID, err)
		}
	}

	queueKey, err := s.createAssetKey(ctx, assetQueueObjectType, assetID)
	if err != nil {
		return fmt.Errorf("ProcessAssetRegistration: %w", err)
	}
	if err := ctx.GetStub().DelState(queueKey); err != nil {
		return fmt.Errorf("ProcessAssetRegistration: failed to remove staged asset '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "ProcessRequestAssetRegistration", map[string]interface{}{
		"actor":    actor.account,
		"assetId":  assetID,
		"approved": approve,
	})
	return nil
}
