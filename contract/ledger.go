package contract

import (
	"encoding/json"
	"fmt"

	"coopstock/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// The value ledger: per-account balance records in world state. Deposits
// and premium payments move funds from member accounts into the society
// treasury account.

// treasuryAccountID derives the account holding the society's funds.
func treasuryAccountID(societyIndex uint32) string {
	return fmt.Sprintf("coop-society-%d", societyIndex)
}

func balanceKey(ctx contractapi.TransactionContextInterface, account string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(balanceObjectType, []string{account})
}

// getBalance returns the balance of an account; an account with no record
// holds zero.
func getBalance(ctx contractapi.TransactionContextInterface, account string) (uint64, error) {
	key, err := balanceKey(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to create balance key for '%s': %w", account, err)
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for '%s': %w", account, err)
	}
	if data == nil {
		return 0, nil
	}
	var rec model.BalanceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, fmt.Errorf("failed to unmarshal balance for '%s': %w", account, err)
	}
	return rec.Amount, nil
}

func setBalance(ctx contractapi.TransactionContextInterface, account string, amount uint64) error {
	key, err := balanceKey(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to create balance key for '%s': %w", account, err)
	}
	rec := model.BalanceRecord{ObjectType: balanceObjectType, Account: account, Amount: amount}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal balance for '%s': %w", account, err)
	}
	return ctx.GetStub().PutState(key, data)
}

// creditAccount adds amount to an account's balance.
func creditAccount(ctx contractapi.TransactionContextInterface, account string, amount uint64) error {
	current, err := getBalance(ctx, account)
	if err != nil {
		return err
	}
	return setBalance(ctx, account, current+amount)
}

// transfer debits from and credits to within the current transaction. Both
// writes land atomically or not at all (transaction semantics).
func transfer(ctx contractapi.TransactionContextInterface, from, to string, amount uint64) error {
	fromBalance, err := getBalance(ctx, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("account '%s' holds %d, needs %d: %w", from, fromBalance, amount, ErrInsufficientFunds)
	}
	toBalance, err := getBalance(ctx, to)
	if err != nil {
		return err
	}
	if err := setBalance(ctx, from, fromBalance-amount); err != nil {
		return err
	}
	return setBalance(ctx, to, toBalance+amount)
}
