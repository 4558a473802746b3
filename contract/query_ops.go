package contract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---

// GetAsset returns the canonical profile of an approved asset.
func (s *CoopSmartContract) GetAsset(ctx contractapi.TransactionContextInterface, assetID string) (*model.AssetProfile, error) {
	logger.Debugf("GetAsset: querying asset '%s'", assetID)
	return s.getAssetByID(ctx, assetID)
}

// GetPendingAssetRegistration returns a staged registration request that has
// not been decided on yet.
func (s *CoopSmartContract) GetPendingAssetRegistration(ctx contractapi.TransactionContextInterface, assetID string) (*model.AssetProfile, error) {
	logger.Debugf("GetPendingAssetRegistration: querying staged asset '%s'", assetID)
	return s.getPendingAssetByID(ctx, assetID)
}

// GetInsuranceReclaim returns the reclaim in flight for an asset.
func (s *CoopSmartContract) GetInsuranceReclaim(ctx contractapi.TransactionContextInterface, assetID string) (*model.InsuranceReclaim, error) {
	return s.getReclaimByID(ctx, assetID)
}

// GetHealthCheckRecord returns the health-check record in flight for an asset.
func (s *CoopSmartContract) GetHealthCheckRecord(ctx contractapi.TransactionContextInterface, assetID string) (*model.HealthCheckRecord, error) {
	return s.getHealthCheckByID(ctx, assetID)
}

// GetMemberProfile returns a member's full profile. Members may view their
// own profile; admins may view anyone's.
func (s *CoopSmartContract) GetMemberProfile(ctx contractapi.TransactionContextInterface, memberAccount string) (*model.MemberProfile, error) {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetMemberProfile: failed to get actor info: %w", err)
	}
	mm := NewMemberManager(ctx)
	if actor.account != memberAccount {
		isAdmin, err := mm.IsAdmin(actor.account)
		if err != nil {
			return nil, fmt.Errorf("GetMemberProfile: failed to check admin status for '%s': %w", actor.account, err)
		}
		if !isAdmin {
			return nil, fmt.Errorf("caller '%s' may only view their own profile", actor.account)
		}
	}
	return mm.GetMemberByAccount(memberAccount)
}

// GetAccountBalance returns an account's value-ledger balance. Same access
// rule as GetMemberProfile: self or admin.
func (s *CoopSmartContract) GetAccountBalance(ctx contractapi.TransactionContextInterface, account string) (uint64, error) {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("GetAccountBalance: failed to get actor info: %w", err)
	}
	if actor.account != account {
		isAdmin, err := NewMemberManager(ctx).IsAdmin(actor.account)
		if err != nil {
			return 0, fmt.Errorf("GetAccountBalance: failed to check admin status for '%s': %w", actor.account, err)
		}
		if !isAdmin {
			return 0, fmt.Errorf("caller '%s' may only view their own balance", actor.account)
		}
	}
	return getBalance(ctx, account)
}

// GetAllAssets pages through every canonical asset profile.
func (s *CoopSmartContract) GetAllAssets(ctx contractapi.TransactionContextInterface, pageSizeStr, bookmark string) (*model.PaginatedAssetResponse, error) {
	pageSize := parsePageSize(pageSizeStr)
	logger.Infof("GetAllAssets: listing assets (pageSize: %d, bookmark: '%s')", pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(
		assetObjectType, []string{}, pageSize, bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetAllAssets: failed to get asset iterator: %w", err)
	}
	defer resultsIterator.Close()

	assets := []*model.AssetProfile{}
	fetchedCount := int32(0)
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetAllAssets: error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var asset model.AssetProfile
		if err := json.Unmarshal(queryResponse.Value, &asset); err != nil {
			logger.Warningf("GetAllAssets: error unmarshalling asset: %v. Skipping.", err)
			continue
		}
		assets = append(assets, &asset)
		fetchedCount++
	}

	return &model.PaginatedAssetResponse{
		Assets:       assets,
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetMyAssets pages through the canonical assets whose designated owner is
// the caller. Filtering happens after the scan, so a page may come back
// shorter than pageSize even when more assets remain.
func (s *CoopSmartContract) GetMyAssets(ctx contractapi.TransactionContextInterface, pageSizeStr, bookmark string) (*model.PaginatedAssetResponse, error) {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetMyAssets: failed to get actor info: %w", err)
	}
	pageSize := parsePageSize(pageSizeStr)
	logger.Infof("GetMyAssets: listing assets owned by '%s' (pageSize: %d, bookmark: '%s')", actor.account, pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(
		assetObjectType, []string{}, pageSize, bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetMyAssets: failed to get asset iterator: %w", err)
	}
	defer resultsIterator.Close()

	assets := []*model.AssetProfile{}
	fetchedCount := int32(0)
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetMyAssets: error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var asset model.AssetProfile
		if err := json.Unmarshal(queryResponse.Value, &asset); err != nil {
			logger.Warningf("GetMyAssets: error unmarshalling asset: %v. Skipping.", err)
			continue
		}
		if owner, ok := asset.DesignatedOwner(); ok && owner == actor.account {
			assets = append(assets, &asset)
			fetchedCount++
		}
	}

	return &model.PaginatedAssetResponse{
		Assets:       assets,
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

func parsePageSize(pageSizeStr string) int32 {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return int32(pageSize)
}
