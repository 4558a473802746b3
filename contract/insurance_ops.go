package contract

import (
	"fmt"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Insurance underwriting: NewApplication -> PremiumQuoted ->
// PremiumPaid -> Active. Every operation requires the asset to be InFarm
// and fails fast, without mutation, on any status mismatch. ---

// RequestInsurance attaches a fresh insurance application to an asset. The
// caller must be the designated owner and the asset must carry no insurance
// yet; re-application is only possible while none is attached.
func (s *CoopSmartContract) RequestInsurance(ctx contractapi.TransactionContextInterface, assetID string) error {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("RequestInsurance: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleAssetOwner); err != nil {
		return err
	}

	asset, err := s.getAssetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("RequestInsurance: %w", err)
	}
	if err := requireAssetOwnership(asset, actor.account); err != nil {
		return err
	}
	if asset.Insurance != nil {
		return fmt.Errorf("asset '%s': %w", assetID, ErrInsuranceNotNew)
	}
	if err := requireAssetStatus(asset, model.AssetStatusInFarm); err != nil {
		return err
	}

	asset.Insurance = &model.AssetInsurance{
		AssetID: assetID,
		Status:  model.InsuranceStatusNewApplication,
	}
	if err := s.putAssetTo(ctx, assetObjectType, asset); err != nil {
		return fmt.Errorf("RequestInsurance: failed to save asset '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "RequestAssetInsurance", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
	})
	logger.Infof("Insurance requested for asset '%s' by owner '%s'", assetID, actor.account)
	return nil
}

// UpdateInsurancePremium records the insurer's premium quote and advances
// the application to PremiumQuoted.
func (s *CoopSmartContract) UpdateInsurancePremium(ctx contractapi.TransactionContextInterface,
	assetID string, premium uint64) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("UpdateInsurancePremium: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleInsurer); err != nil {
		return err
	}

	asset, err := s.getAssetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("UpdateInsurancePremium: %w", err)
	}
	if err := requireInsuranceStatus(asset, model.InsuranceStatusNewApplication); err != nil {
		return err
	}
	if err := requireAssetStatus(asset, model.AssetStatusInFarm); err != nil {
		return err
	}

	asset.Insurance.QuotedPremium = premium
	asset.Insurance.Status = model.InsuranceStatusPremiumQuoted
	if err := s.putAssetTo(ctx, assetObjectType, asset); err != nil {
		return fmt.Errorf("UpdateInsurancePremium: failed to save asset '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetInsurancePremiumQuoteUpdate", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
		"premium": premium,
	})
	return nil
}

// DepositInsurancePremium moves the owner's premium payment into the
// society treasury and advances the application to PremiumPaid. A failed
// transfer aborts the transition.
func (s *CoopSmartContract) DepositInsurancePremium(ctx contractapi.TransactionContextInterface,
	assetID string, premiumDeposit uint64) error {

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("DepositInsurancePremium: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleAssetOwner); err != nil {
		return err
	}

	asset, err := s.getAssetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("DepositInsurancePremium: %w", err)
	}
	if err := requireAssetOwnership(asset, actor.account); err != nil {
		return err
	}
	if err := requireInsuranceStatus(asset, model.InsuranceStatusPremiumQuoted); err != nil {
		return err
	}
	if err := requireAssetStatus(asset, model.AssetStatusInFarm); err != nil {
		return err
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("DepositInsurancePremium: %w", err)
	}

	if err := transfer(ctx, actor.account, treasuryAccountID(coopSocietyIndex), premiumDeposit); err != nil {
		return fmt.Errorf("premium deposit for asset '%s': %v: %w", assetID, err, ErrTransferFailed)
	}

	asset.Insurance.PremiumPaidDate = now
	asset.Insurance.Status = model.InsuranceStatusPremiumPaid
	if err := s.putAssetTo(ctx, assetObjectType, asset); err != nil {
		return fmt.Errorf("DepositInsurancePremium: failed to save asset '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetInsurancePremiumDepositUpdate", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
		"deposit": premiumDeposit,
	})
	return nil
}

// ApproveInsurance activates a paid-up application and stamps the cover
// dates.
// TODO: derive expiryDate from a policy term instead of stamping it equal
// to startDate once the society settles on coverage periods.
func (s *CoopSmartContract) ApproveInsurance(ctx contractapi.TransactionContextInterface, assetID string) error {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("ApproveInsurance: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if err := mm.RequireRole(actor.account, model.RoleInsurer); err != nil {
		return err
	}

	asset, err := s.getAssetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("ApproveInsurance: %w", err)
	}
	if err := requireInsuranceStatus(asset, model.InsuranceStatusPremiumPaid); err != nil {
		return err
	}
	if err := requireAssetStatus(asset, model.AssetStatusInFarm); err != nil {
		return err
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("ApproveInsurance: %w", err)
	}

	asset.Insurance.StartDate = now
	asset.Insurance.ExpiryDate = now
	asset.Insurance.Status = model.InsuranceStatusActive
	if err := s.putAssetTo(ctx, assetObjectType, asset); err != nil {
		return fmt.Errorf("ApproveInsurance: failed to save asset '%s': %w", assetID, err)
	}

	s.emitCoopEvent(ctx, "AssetInsuranceApproved", map[string]interface{}{
		"actor":   actor.account,
		"assetId": assetID,
	})
	logger.Infof("Insurance on asset '%s' activated by insurer '%s'", assetID, actor.account)
	return nil
}
