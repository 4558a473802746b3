package contract

import (
	"fmt"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Health check: NewRequest -> TreatmentInProgress (repeatable) ->
// TreatmentDone -> CommunityApproved. Same shared preconditions as the
// reclaim workflow: asset InFarm, insurance Active. ---

// RequestHealthCheck stages a treatment request for an asset. One record
// may be in flight per asset.
func (s *CoopSmartContract) RequestHealthCheck(ctx contractapi.TransactionContextInterface,
	assetID, noteJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("RequestHealthCheck: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleAssetOwner); err != nil {
		return err
	}

	asset, err := s.requireActiveInsuredAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("RequestHealthCheck: %w", err)
	}
	if err := requireAssetOwnership(asset, actor.account); err != nil {
		return err
	}

	note, err := parseInfoFieldsJSON(noteJSON, "healthCheckNote")
	if err != nil {
		return err
	}
	if err := validateInfoFields(note, "healthCheckNote",
		healthCheckInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	queueKey, err := s.createAssetKey(ctx, healthQueueObjectType, assetID)
	if err != nil {
		return fmt.Errorf("RequestHealthCheck: %w", err)
	}
	existing, err := ctx.GetStub().GetState(queueKey)
	if err != nil {
		return fmt.Errorf("RequestHealthCheck: failed to check health-check queue for '%s': %w", assetID, err)
	}
	if existing != nil {
		return fmt.Errorf("asset '%s': %w", assetID, ErrHealthCheckExists)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("RequestHealthCheck: %w", err)
	}

	rec := model.HealthCheckRecord{
		ObjectType:  healthQueueObjectType,
		AssetID:     assetID,
		RequestDate: now,
		Status:      model.HealthCheckStatusNewRequest,
		OwnerNote:   note,
	}
	if err := s.putHealthCheck(ctx, &rec); err != nil {
		return fmt.Errorf("RequestHealthCheck: failed to stage record for '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetHealthCheckRequest", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
	})
	logger.Infof("Health check requested for asset '%s' by owner '%s'", assetID, actor.account)
	return nil
}

// HealthOfficerRemark appends the officer's notes to an open record. The
// officer may be called repeatedly while treatment continues; treatmentDone
// closes the treatment phase and hands the record to the community.
func (s *CoopSmartContract) HealthOfficerRemark(ctx contractapi.TransactionContextInterface,
	assetID string, treatmentDone bool, noteJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("HealthOfficerRemark: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleHealthOfficer); err != nil {
		return err
	}

	if _, err := s.requireActiveInsuredAsset(ctx, assetID); err != nil {
		return fmt.Errorf("HealthOfficerRemark: %w", err)
	}

	note, err := parseInfoFieldsJSON(noteJSON, "healthOfficerNote")
	if err != nil {
		return err
	}
	if err := validateInfoFields(note, "healthOfficerNote",
		healthCheckInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	rec, err := s.getHealthCheckByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("HealthOfficerRemark: %w", err)
	}
	if rec.Status != model.HealthCheckStatusNewRequest &&
		rec.Status != model.HealthCheckStatusTreatmentInProgress {
		return fmt.Errorf("health-check record for asset '%s' has status '%s': %w",
			assetID, rec.Status, ErrHealthCheckStatusUnexpected)
	}

	rec.OfficerNote = append(rec.OfficerNote, note...)
	if treatmentDone {
		rec.Status = model.HealthCheckStatusTreatmentDone
	} else {
		rec.Status = model.HealthCheckStatusTreatmentInProgress
	}
	if err := s.putHealthCheck(ctx, rec); err != nil {
		return fmt.Errorf("HealthOfficerRemark: failed to save record for '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetHealthCheckHealthOfficerUpdate", map[string]interface{}{
		"actor":         actor.account,
		"assetId":       assetID,
		"treatmentDone": treatmentDone,
	})
	return nil
}

// CommunityHealthRemark is the community's sign-off on a finished
// treatment. Approval closes the record as CommunityApproved; otherwise the
// record stays at TreatmentDone with the community's notes appended, so the
// officer and community can keep iterating.
func (s *CoopSmartContract) CommunityHealthRemark(ctx contractapi.TransactionContextInterface,
	assetID string, approved bool, noteJSON string) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("CommunityHealthRemark: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleCommunityLeader); err != nil {
		return err
	}

	if _, err := s.requireActiveInsuredAsset(ctx, assetID); err != nil {
		return fmt.Errorf("CommunityHealthRemark: %w", err)
	}

	note, err := parseInfoFieldsJSON(noteJSON, "communityNote")
	if err != nil {
		return err
	}
	if err := validateInfoFields(note, "communityNote",
		healthCheckInfoMaxEntries, assetInfoNameMaxLength, assetInfoValueMaxLength); err != nil {
		return err
	}

	rec, err := s.getHealthCheckByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("CommunityHealthRemark: %w", err)
	}
	if rec.Status != model.HealthCheckStatusTreatmentDone {
		return fmt.Errorf("health-check record for asset '%s' has status '%s': %w",
			assetID, rec.Status, ErrHealthCheckStatusUnexpected)
	}

	rec.CommunityNote = append(rec.CommunityNote, note...)
	if approved {
		rec.Status = model.HealthCheckStatusCommunityApproved
	}
	if err := s.putHealthCheck(ctx, rec); err != nil {
		return fmt.Errorf("CommunityHealthRemark: failed to save record for '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetHealthCheckCommunityUpdate", map[string]interface{}{
		"actor":    actor.account,
		"assetId":  assetID,
		"approved": approved,
	})
	return nil
}
