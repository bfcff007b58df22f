package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/models"
)

type fixedIdentity int64

func (f fixedIdentity) TelegramID() (int64, error) { return int64(f), nil }

type fakeAPI struct {
	mu         sync.Mutex
	calls      []string
	balance    *models.BalanceOverview
	balanceErr error
	txs        *models.TransactionList
	txErr      error
	refreshErr error
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) GetBalance(ctx context.Context, telegramID int64) (*models.BalanceOverview, error) {
	f.record("balance")
	return f.balance, f.balanceErr
}

func (f *fakeAPI) RefreshBalance(ctx context.Context, telegramID int64) (*models.GenericResponse, error) {
	f.record("refresh")
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &models.GenericResponse{Status: "ok"}, nil
}

func (f *fakeAPI) ListTransactions(ctx context.Context, page models.Page) (*models.TransactionList, error) {
	f.record("transactions")
	return f.txs, f.txErr
}

func TestLoadCombinesBothResults(t *testing.T) {
	api := &fakeAPI{
		balance: &models.BalanceOverview{BalanceUSD: 12.5, TodayEarn: 0.3},
		txs:     &models.TransactionList{Items: []models.Transaction{{ID: 1, Type: models.TxTypeEarning}}, Total: 1},
	}
	svc := NewService(api, fixedIdentity(7))

	st, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12.5, st.Data.Overview.BalanceUSD)
	require.Len(t, st.Data.Transactions, 1)
	assert.Empty(t, st.Data.TransactionsError)
	assert.ElementsMatch(t, []string{"balance", "transactions"}, api.calls)
}

func TestLoadPartialSuccess(t *testing.T) {
	api := &fakeAPI{
		balance: &models.BalanceOverview{BalanceUSD: 2},
		txErr:   errors.FromStatus(500, "Transactions unavailable"),
	}
	svc := NewService(api, fixedIdentity(7))

	st, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, st.Error)
	assert.Equal(t, 2.0, st.Data.Overview.BalanceUSD)
	assert.Equal(t, "Transactions unavailable", st.Data.TransactionsError)
}

func TestLoadBalanceFailureFailsState(t *testing.T) {
	api := &fakeAPI{
		balanceErr: errors.FromStatus(404, "User not found"),
		txs:        &models.TransactionList{},
	}
	svc := NewService(api, fixedIdentity(7))

	st, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "User not found", st.Error)
	assert.Nil(t, st.Data)
}

func TestRefreshPostsThenReloads(t *testing.T) {
	api := &fakeAPI{balance: &models.BalanceOverview{BalanceUSD: 1}, txs: &models.TransactionList{}}
	svc := NewService(api, fixedIdentity(7))

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh", api.calls[0])
	assert.Len(t, api.calls, 3)
}

func TestRefreshFailureSkipsReload(t *testing.T) {
	api := &fakeAPI{refreshErr: errors.FromStatus(429, "")}
	svc := NewService(api, fixedIdentity(7))

	st, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Too Many Requests", st.Error)
	assert.Equal(t, []string{"refresh"}, api.calls)
}
