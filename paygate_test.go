package paygate

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paygate-labs/paygate/clients/mocks"
	"github.com/paygate-labs/paygate/ledger"
	"github.com/paygate-labs/paygate/release"
	"github.com/paygate-labs/paygate/store"
	"github.com/paygate-labs/paygate/types"
)

const (
	sellerAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	txRef         = "0x8d2fc4b9a7e05c31d6b3b124a2894f7b5f6f37a804d67788f0b86bbdcd6a3f11"
)

// fixture builds a gateway over a JSON offer database and a filesystem blob
// dir, with a mocked chain behind it.
func fixture(t *testing.T, opts ...Option) (*Paygate, *mocks.MockTxReader) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "database.json")
	require.NoError(t, os.WriteFile(dbPath, []byte(`{
		"report": {
			"sellerWallet": "`+sellerAddress+`",
			"price": "0.0001",
			"originalName": "report.pdf"
		},
		"ghost": {
			"sellerWallet": "`+sellerAddress+`",
			"price": "0.0001",
			"originalName": "ghost.pdf"
		}
	}`), 0o600))

	uploads := filepath.Join(dir, "private-uploads")
	require.NoError(t, os.Mkdir(uploads, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "report.dat"), []byte("pdf-bytes"), 0o600))

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	reader := mocks.NewMockTxReader(ctrl)

	gw := New(
		store.NewJSONStore(dbPath, types.NetworkBaseSepolia, "ETH"),
		store.NewFSBlobStore(uploads),
		opts...,
	)
	require.NoError(t, gw.AddClient(types.NetworkBaseSepolia, reader))
	return gw, reader
}

func paymentTx(value string) *ethtypes.Transaction {
	to := common.HexToAddress(sellerAddress)
	v, _ := new(big.Int).SetString(value, 10)
	return ethtypes.NewTx(&ethtypes.LegacyTx{
		To:       &to,
		Value:    v,
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
}

func TestUnlock_ChallengeWithoutClaim(t *testing.T) {
	gw, _ := fixture(t)

	outcome, err := gw.Unlock(context.Background(), "report", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusChallenge, outcome.Status)
	assert.Equal(t, sellerAddress, outcome.Offer.Recipient)
	assert.Equal(t, "0.0001", outcome.Offer.Price)
	assert.Equal(t, types.NetworkBaseSepolia, outcome.Offer.Network)
}

func TestUnlock_ReleasesOnValidPayment(t *testing.T) {
	gw, reader := fixture(t)

	reader.EXPECT().
		TransactionByHash(gomock.Any(), common.HexToHash(txRef)).
		Return(paymentTx("100000000000000"), false, nil)

	outcome, err := gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, outcome.Status)
	assert.Equal(t, []byte("pdf-bytes"), outcome.Blob.Content)
	assert.Equal(t, "report.pdf", outcome.Blob.Filename)
	assert.True(t, outcome.Result.Accepted)
}

func TestUnlock_SameReferenceSucceedsRepeatedly(t *testing.T) {
	gw, reader := fixture(t)

	reader.EXPECT().
		TransactionByHash(gomock.Any(), common.HexToHash(txRef)).
		Return(paymentTx("100000000000000"), false, nil).
		Times(2)

	for i := 0; i < 2; i++ {
		outcome, err := gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
		require.NoError(t, err)
		assert.Equal(t, StatusReleased, outcome.Status)
	}
}

func TestUnlock_UnknownResourceNeverTouchesChain(t *testing.T) {
	gw, _ := fixture(t) // mock has no expectations; any call would fail the test

	_, err := gw.Unlock(context.Background(), "nope", &types.PaymentClaim{Reference: txRef})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = gw.Unlock(context.Background(), "nope", nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnlock_RefusesUnderpayment(t *testing.T) {
	gw, reader := fixture(t)

	// 0.00005 ETH against a 0.0001 ETH offer.
	reader.EXPECT().
		TransactionByHash(gomock.Any(), common.HexToHash(txRef)).
		Return(paymentTx("50000000000000"), false, nil)

	outcome, err := gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.NoError(t, err)
	assert.Equal(t, StatusRefused, outcome.Status)
	assert.Equal(t, types.ReasonInsufficientAmount, outcome.Result.Reason)
}

func TestUnlock_CorruptedResource(t *testing.T) {
	gw, reader := fixture(t)

	// "ghost" has an offer but no blob behind it.
	reader.EXPECT().
		TransactionByHash(gomock.Any(), common.HexToHash(txRef)).
		Return(paymentTx("100000000000000"), false, nil)

	_, err := gw.Unlock(context.Background(), "ghost", &types.PaymentClaim{Reference: txRef})
	require.ErrorIs(t, err, release.ErrCorruptedResource)
}

func TestUnlock_FailedReleaseDoesNotConsumeReference(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "database.json")
	require.NoError(t, os.WriteFile(dbPath, []byte(`{
		"report": {
			"sellerWallet": "`+sellerAddress+`",
			"price": "0.0001",
			"originalName": "report.pdf"
		}
	}`), 0o600))
	uploads := filepath.Join(dir, "private-uploads")
	require.NoError(t, os.Mkdir(uploads, 0o700))

	l, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	reader := mocks.NewMockTxReader(ctrl)
	reader.EXPECT().
		TransactionByHash(gomock.Any(), common.HexToHash(txRef)).
		Return(paymentTx("100000000000000"), false, nil).
		Times(3)

	gw := New(
		store.NewJSONStore(dbPath, types.NetworkBaseSepolia, "ETH"),
		store.NewFSBlobStore(uploads),
		WithRedemptionLedger(l),
	)
	require.NoError(t, gw.AddClient(types.NetworkBaseSepolia, reader))

	// The blob is missing, so the release fails after a valid payment.
	_, err = gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.ErrorIs(t, err, release.ErrCorruptedResource)

	// Once the operator repairs the blob, the same reference must still
	// redeem: nothing was delivered, so nothing was consumed.
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "report.dat"), []byte("pdf-bytes"), 0o600))

	outcome, err := gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, outcome.Status)

	// The successful delivery consumed it.
	outcome, err = gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.NoError(t, err)
	assert.Equal(t, StatusRefused, outcome.Status)
	assert.Equal(t, types.ReasonAlreadyRedeemed, outcome.Result.Reason)
}

func TestUnlock_LedgerEnforcesAtMostOnce(t *testing.T) {
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	gw, reader := fixture(t, WithRedemptionLedger(l))

	reader.EXPECT().
		TransactionByHash(gomock.Any(), common.HexToHash(txRef)).
		Return(paymentTx("100000000000000"), false, nil).
		Times(2)

	outcome, err := gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, outcome.Status)

	outcome, err = gw.Unlock(context.Background(), "report", &types.PaymentClaim{Reference: txRef})
	require.NoError(t, err)
	assert.Equal(t, StatusRefused, outcome.Status)
	assert.Equal(t, types.ReasonAlreadyRedeemed, outcome.Result.Reason)
}
