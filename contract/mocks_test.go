package contract

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"coopstock/model"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// mockStub is an in-memory world state. It embeds the shim interface and
// overrides only the methods the contract exercises; anything else panics
// on a nil receiver, which is what we want in a test.
type mockStub struct {
	shim.ChaincodeStubInterface
	state  map[string][]byte
	events map[string][]byte
	txTime time.Time
}

func newMockStub() *mockStub {
	return &mockStub{
		state:  map[string][]byte{},
		events: map[string][]byte{},
		txTime: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func (m *mockStub) GetState(key string) ([]byte, error) {
	return m.state[key], nil
}

func (m *mockStub) PutState(key string, value []byte) error {
	m.state[key] = value
	return nil
}

func (m *mockStub) DelState(key string) error {
	delete(m.state, key)
	return nil
}

func (m *mockStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key := string(rune(0)) + objectType + string(rune(0))
	for _, attr := range attributes {
		key += attr + string(rune(0))
	}
	return key, nil
}

func (m *mockStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(m.txTime), nil
}

func (m *mockStub) SetEvent(name string, payload []byte) error {
	m.events[name] = payload
	return nil
}

func (m *mockStub) matchingKVs(objectType string, attributes []string) []*queryresult.KV {
	prefix, _ := m.CreateCompositeKey(objectType, attributes)
	keys := []string{}
	for key := range m.state {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	kvs := make([]*queryresult.KV, 0, len(keys))
	for _, key := range keys {
		kvs = append(kvs, &queryresult.KV{Key: key, Value: m.state[key]})
	}
	return kvs
}

func (m *mockStub) GetStateByPartialCompositeKey(objectType string, attributes []string) (shim.StateQueryIteratorInterface, error) {
	return &mockIterator{kvs: m.matchingKVs(objectType, attributes)}, nil
}

func (m *mockStub) GetStateByPartialCompositeKeyWithPagination(objectType string, attributes []string,
	pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *peer.QueryResponseMetadata, error) {

	kvs := m.matchingKVs(objectType, attributes)
	meta := &peer.QueryResponseMetadata{FetchedRecordsCount: int32(len(kvs))}
	return &mockIterator{kvs: kvs}, meta, nil
}

type mockIterator struct {
	kvs []*queryresult.KV
	pos int
}

func (it *mockIterator) HasNext() bool { return it.pos < len(it.kvs) }

func (it *mockIterator) Next() (*queryresult.KV, error) {
	kv := it.kvs[it.pos]
	it.pos++
	return kv, nil
}

func (it *mockIterator) Close() error { return nil }

type mockClientIdentity struct {
	cid.ClientIdentity
	id    string
	mspID string
}

func (m *mockClientIdentity) GetID() (string, error)    { return m.id, nil }
func (m *mockClientIdentity) GetMSPID() (string, error) { return m.mspID, nil }

type mockContext struct {
	stub     *mockStub
	identity *mockClientIdentity
}

func (m *mockContext) GetStub() shim.ChaincodeStubInterface { return m.stub }
func (m *mockContext) GetClientIdentity() cid.ClientIdentity {
	return m.identity
}

// --- Society fixture ---

const (
	adminAccount   = "coop-admin"
	ownerAccount   = "farmer-alice"
	leaderAccount  = "leader-bob"
	insurerAccount = "insurer-carol"
	officerAccount = "vet-dave"
)

// fixture wires a contract against a shared mock stub. Each actor gets its
// own context over the same world state.
type fixture struct {
	t        *testing.T
	stub     *mockStub
	contract *CoopSmartContract
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, stub: newMockStub(), contract: &CoopSmartContract{}}
}

// ctx returns a transaction context invoked by the given account.
func (f *fixture) ctx(account string) *mockContext {
	return &mockContext{
		stub:     f.stub,
		identity: &mockClientIdentity{id: account, mspID: "CoopSocietyMSP"},
	}
}

func (f *fixture) bootstrapAdmin() {
	require.NoError(f.t, f.contract.MakeCoopAdmin(f.ctx(adminAccount), adminAccount))
}

func (f *fixture) fund(account string, amount uint64) {
	require.NoError(f.t, f.contract.FundAccount(f.ctx(adminAccount), account, amount))
}

// admitMember funds and registers an account, then assigns its roles.
func (f *fixture) admitMember(account, membershipID string, roles ...model.MemberRole) {
	f.fund(account, 1000)
	require.NoError(f.t, f.contract.RegisterMember(f.ctx(adminAccount), account, membershipID, "", 10))
	if len(roles) > 0 {
		rolesJSON, err := json.Marshal(roles)
		require.NoError(f.t, err)
		require.NoError(f.t, f.contract.UpdateMemberRole(f.ctx(adminAccount), account, string(rolesJSON)))
	}
}

// newSociety is the standard cast: a bootstrapped admin plus one member per
// workflow role.
func newSociety(t *testing.T) *fixture {
	f := newFixture(t)
	f.bootstrapAdmin()
	f.admitMember(ownerAccount, "M-0001", model.RoleAssetOwner)
	f.admitMember(leaderAccount, "M-0002", model.RoleCommunityLeader)
	f.admitMember(insurerAccount, "M-0003", model.RoleInsurer)
	f.admitMember(officerAccount, "M-0004", model.RoleHealthOfficer)
	return f
}

// approvedAsset runs an asset through registration and community approval.
func (f *fixture) approvedAsset(assetID string) {
	require.NoError(f.t, f.contract.RegisterAsset(f.ctx(ownerAccount), assetID, ""))
	require.NoError(f.t, f.contract.ProcessAssetRegistration(f.ctx(leaderAccount), assetID, true))
}

// activeInsurance runs an approved asset through the full underwriting
// workflow to an active cover.
func (f *fixture) activeInsurance(assetID string, premium uint64) {
	require.NoError(f.t, f.contract.RequestInsurance(f.ctx(ownerAccount), assetID))
	require.NoError(f.t, f.contract.UpdateInsurancePremium(f.ctx(insurerAccount), assetID, premium))
	require.NoError(f.t, f.contract.DepositInsurancePremium(f.ctx(ownerAccount), assetID, premium))
	require.NoError(f.t, f.contract.ApproveInsurance(f.ctx(insurerAccount), assetID))
}

func (f *fixture) balance(account string) uint64 {
	amount, err := getBalance(f.ctx(adminAccount), account)
	require.NoError(f.t, err)
	return amount
}
