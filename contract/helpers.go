package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Core helper methods ---

// getCurrentTxTimestamp retrieves the current transaction timestamp from
// the stub. All entities stamped within one transaction share it.
func (s *CoopSmartContract) getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// getCurrentActorInfo resolves the transaction invoker to a stable account.
func (s *CoopSmartContract) getCurrentActorInfo(ctx contractapi.TransactionContextInterface) (*actorInfo, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return nil, errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return nil, fmt.Errorf("failed to get client identity ID: %w", err)
	}
	if id == "" {
		return nil, errors.New("client identity ID from context is empty")
	}
	mspID, err := clientIdentity.GetMSPID()
	if err != nil {
		return nil, fmt.Errorf("failed to get client MSPID: %w", err)
	}
	return &actorInfo{account: id, mspID: mspID}, nil
}

func (s *CoopSmartContract) createAssetKey(ctx contractapi.TransactionContextInterface, objectType, assetID string) (string, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return "", fmt.Errorf("%w", ErrAssetIDEmpty)
	}
	return ctx.GetStub().CreateCompositeKey(objectType, []string{assetID})
}

// --- Validation helpers ---

// validateInfoFields enforces the bounds on a name/value info list. A nil
// list is valid; each violated bound maps to its own sentinel. Pure, called
// before any mutation.
func validateInfoFields(fields []model.InfoField, field string, maxEntries, maxNameLen, maxValueLen int) error {
	if fields == nil {
		return nil
	}
	if len(fields) > maxEntries {
		return fmt.Errorf("%s has %d entries, maximum is %d: %w", field, len(fields), maxEntries, ErrTooManyInfoEntries)
	}
	for i, f := range fields {
		if len(f.Name) > maxNameLen {
			return fmt.Errorf("%s[%d].infoName exceeds %d bytes: %w", field, i, maxNameLen, ErrInfoNameTooLong)
		}
		if len(f.Value) > maxValueLen {
			return fmt.Errorf("%s[%d].infoValue exceeds %d bytes: %w", field, i, maxValueLen, ErrInfoValueTooLong)
		}
	}
	return nil
}

func validateMembershipID(id string) error {
	if id == "" {
		return ErrMembershipIDEmpty
	}
	if len(id) > membershipIDMaxLength {
		return fmt.Errorf("membership id '%s' exceeds %d bytes: %w", id, membershipIDMaxLength, ErrMembershipIDTooLong)
	}
	return nil
}

func validateAssetID(id string) error {
	if id == "" {
		return ErrAssetIDEmpty
	}
	if len(id) > assetIDMaxLength {
		return fmt.Errorf("asset id '%s' exceeds %d bytes: %w", id, assetIDMaxLength, ErrAssetIDTooLong)
	}
	return nil
}

// parseInfoFieldsJSON decodes an optional JSON array of info pairs. Empty
// string and "null" both mean "absent".
func parseInfoFieldsJSON(raw, field string) ([]model.InfoField, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var fields []model.InfoField
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, fmt.Errorf("invalid %s JSON: %w", field, err)
	}
	return fields, nil
}

// parseRolesJSON decodes an optional JSON array of role names and checks
// each against the closed role set.
func parseRolesJSON(raw string) ([]model.MemberRole, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var roles []model.MemberRole
	if err := json.Unmarshal([]byte(trimmed), &roles); err != nil {
		return nil, fmt.Errorf("invalid roles JSON: %w", err)
	}
	for _, r := range roles {
		if !validRoles[r] {
			return nil, fmt.Errorf("invalid role '%s': %w", r, ErrMemberRoleInvalid)
		}
	}
	return roles, nil
}

// --- Asset loading and precondition helpers ---

// getAssetByID retrieves a canonical (approved) asset profile.
func (s *CoopSmartContract) getAssetByID(ctx contractapi.TransactionContextInterface, assetID string) (*model.AssetProfile, error) {
	return s.getAssetFrom(ctx, assetObjectType, assetID)
}

// getPendingAssetByID retrieves a staged registration request.
func (s *CoopSmartContract) getPendingAssetByID(ctx contractapi.TransactionContextInterface, assetID string) (*model.AssetProfile, error) {
	return s.getAssetFrom(ctx, assetQueueObjectType, assetID)
}

func (s *CoopSmartContract) getAssetFrom(ctx contractapi.TransactionContextInterface, objectType, assetID string) (*model.AssetProfile, error) {
	key, err := s.createAssetKey(ctx, objectType, assetID)
	if err != nil {
		return nil, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset '%s' from ledger: %w", assetID, err)
	}
	if data == nil {
		return nil, fmt.Errorf("asset '%s': %w", assetID, ErrAssetNotFound)
	}
	var asset model.AssetProfile
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset '%s': %w", assetID, err)
	}
	return &asset, nil
}

func (s *CoopSmartContract) assetExistsIn(ctx contractapi.TransactionContextInterface, objectType, assetID string) (bool, error) {
	key, err := s.createAssetKey(ctx, objectType, assetID)
	if err != nil {
		return false, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, fmt.Errorf("failed to check asset '%s': %w", assetID, err)
	}
	return data != nil, nil
}

func (s *CoopSmartContract) putAssetTo(ctx contractapi.TransactionContextInterface, objectType string, asset *model.AssetProfile) error {
	key, err := s.createAssetKey(ctx, objectType, asset.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset '%s': %w", asset.ID, err)
	}
	return ctx.GetStub().PutState(key, data)
}

// requireAssetOwnership checks that account is the designated owner of the
// canonical asset: the last entry of the owners list.
func requireAssetOwnership(asset *model.AssetProfile, account string) error {
	owner, ok := asset.DesignatedOwner()
	if !ok {
		return fmt.Errorf("asset '%s': %w", asset.ID, ErrAssetOwnerUnassigned)
	}
	if owner != account {
		return fmt.Errorf("asset '%s': %w", asset.ID, ErrAssetOwnerInvalid)
	}
	return nil
}

func requireAssetStatus(asset *model.AssetProfile, expected model.AssetStatus) error {
	if asset.Status != expected {
		return fmt.Errorf("asset '%s' status '%s', expected '%s': %w",
			asset.ID, asset.Status, expected, ErrAssetStatusUnexpected)
	}
	return nil
}

func requireInsuranceStatus(asset *model.AssetProfile, expected model.InsuranceStatus) error {
	if asset.Insurance == nil {
		return fmt.Errorf("asset '%s': %w", asset.ID, ErrInsuranceNone)
	}
	if asset.Insurance.Status != expected {
		return fmt.Errorf("asset '%s' insurance status '%s', expected '%s': %w",
			asset.ID, asset.Insurance.Status, expected, ErrInsuranceStatusUnexpected)
	}
	return nil
}

// --- Staged workflow record helpers ---

func (s *CoopSmartContract) getReclaimByID(ctx contractapi.TransactionContextInterface, assetID string) (*model.InsuranceReclaim, error) {
	key, err := s.createAssetKey(ctx, reclaimQueueObjectType, assetID)
	if err != nil {
		return nil, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read reclaim for asset '%s': %w", assetID, err)
	}
	if data == nil {
		return nil, fmt.Errorf("asset '%s': %w", assetID, ErrReclaimNotFound)
	}
	var reclaim model.InsuranceReclaim
	if err := json.Unmarshal(data, &reclaim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reclaim for asset '%s': %w", assetID, err)
	}
	return &reclaim, nil
}

func (s *CoopSmartContract) putReclaim(ctx contractapi.TransactionContextInterface, reclaim *model.InsuranceReclaim) error {
	key, err := s.createAssetKey(ctx, reclaimQueueObjectType, reclaim.AssetID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(reclaim)
	if err != nil {
		return fmt.Errorf("failed to marshal reclaim for asset '%s': %w", reclaim.AssetID, err)
	}
	return ctx.GetStub().PutState(key, data)
}

func (s *CoopSmartContract) getHealthCheckByID(ctx contractapi.TransactionContextInterface, assetID string) (*model.HealthCheckRecord, error) {
	key, err := s.createAssetKey(ctx, healthQueueObjectType, assetID)
	if err != nil {
		return nil, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read health-check record for asset '%s': %w", assetID, err)
	}
	if data == nil {
		return nil, fmt.Errorf("asset '%s': %w", assetID, ErrHealthCheckNotFound)
	}
	var rec model.HealthCheckRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health-check record for asset '%s': %w", assetID, err)
	}
	return &rec, nil
}

func (s *CoopSmartContract) putHealthCheck(ctx contractapi.TransactionContextInterface, rec *model.HealthCheckRecord) error {
	key, err := s.createAssetKey(ctx, healthQueueObjectType, rec.AssetID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal health-check record for asset '%s': %w", rec.AssetID, err)
	}
	return ctx.GetStub().PutState(key, data)
}

// --- Events ---

// emitCoopEvent sends a chaincode event. Event failures are logged, not
// returned: the state change has already been decided.
func (s *CoopSmartContract) emitCoopEvent(ctx contractapi.TransactionContextInterface, eventName string, payload map[string]interface{}) {
	for k, v := range payload {
		if t, ok := v.(time.Time); ok {
			payload[k] = t.Format(time.RFC3339)
		}
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitCoopEvent: failed to marshal payload for event '%s': %v", eventName, err)
		return
	}
	if err := ctx.GetStub().SetEvent(eventName, eventBytes); err != nil {
		logger.Warningf("emitCoopEvent: failed to set event '%s': %v", eventName, err)
	}
}
