package devserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/api"
	"traffic-share-client/internal/auth"
	"traffic-share-client/internal/auth/storage"
	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/devserver"
	balancesvc "traffic-share-client/internal/features/balance/service"
	dashboardsvc "traffic-share-client/internal/features/dashboard/service"
	newssvc "traffic-share-client/internal/features/news/service"
	trafficsvc "traffic-share-client/internal/features/traffic/service"
	withdrawsvc "traffic-share-client/internal/features/withdraw/service"
	"traffic-share-client/internal/live"
	"traffic-share-client/internal/models"
	"traffic-share-client/internal/platform/transport"
)

const wallet = "0x52908400098527886E0F7030069857D2E4169EE7"

type harness struct {
	server *devserver.Server
	base   string
	store  *auth.Store
	client *api.Client
}

func newHarness(t *testing.T, startBalance float64) *harness {
	t.Helper()

	srv := devserver.New(devserver.Options{Secret: "test-secret", StartBalance: startBalance})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	base := ts.URL + devserver.BasePath
	store := auth.NewStore(storage.NewMemory())
	tr := transport.New(transport.Options{BaseURL: base, Timeout: 5 * time.Second}, store, store.HandleUnauthorized)

	return &harness{server: srv, base: base, store: store, client: api.NewClient(tr)}
}

func (h *harness) login(t *testing.T, telegramID int64) {
	t.Helper()
	resp, err := h.client.Login(context.Background(), models.TelegramAuthRequest{
		ID:        telegramID,
		FirstName: "Ann",
		Username:  "ann_share",
		AuthDate:  time.Now().Unix(),
		Hash:      "deadbeef",
	})
	require.NoError(t, err)
	require.NoError(t, h.store.Login(context.Background(), resp))
}

type fixedMeter struct{ mb float64 }

func (m fixedMeter) Sample(ctx context.Context) (trafficsvc.Sample, error) {
	return trafficsvc.Sample{CumulativeMB: m.mb, Speed: 1.2, NetworkType: models.NetworkWiFi}, nil
}

func TestHealth(t *testing.T) {
	h := newHarness(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.client.GetDashboard(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.Equal(t, "Not authenticated", errors.UserMessage(err))
}

func TestLoginThenDashboard(t *testing.T) {
	h := newHarness(t, 2.5)
	h.login(t, 42)

	require.True(t, h.store.IsAuthenticated())
	assert.Equal(t, "ann_share", h.store.User().Username)

	dash := dashboardsvc.NewService(h.client, h.store)
	st, err := dash.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.Data)
	assert.Equal(t, 2.5, st.Data.Balance.USD)
	assert.Equal(t, "idle", st.Data.Traffic.Status)
}

func TestOtherUsersDashboardIsForbidden(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)

	_, err := h.client.GetDashboard(context.Background(), 43)
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
	assert.True(t, h.store.IsAuthenticated())
}

func TestRevokedTokenLogsOut(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)

	h.server.Issuer().RevokeAll(42)

	dash := dashboardsvc.NewService(h.client, h.store)
	st, err := dash.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.NotEmpty(t, st.Error)
	assert.False(t, h.store.IsAuthenticated())
	assert.Empty(t, h.store.Token())
}

func TestSessionLifecycleEarns(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)
	ctx := context.Background()

	ctrl := trafficsvc.NewController(h.client, "device-1")
	st, err := ctrl.Start(ctx, models.SessionStartRequest{OS: "linux"})
	require.NoError(t, err)
	require.True(t, st.Active)
	assert.Equal(t, models.SessionID("1"), st.SessionID)
	assert.Equal(t, "Tunnel opened", st.Message)

	_, err = h.client.StartSession(ctx, models.SessionStartRequest{DeviceID: "device-1"})
	assert.Error(t, err, "second session must be rejected")

	reporter := trafficsvc.NewReporter(h.client, ctrl, fixedMeter{mb: 1024}, "device-1", time.Second)
	assert.True(t, reporter.Tick(ctx))

	st, err = ctrl.Stop(ctx)
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, "Session stopped", st.Message)

	balance := balancesvc.NewService(h.client, h.store)
	bst, err := balance.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, bst.Data)
	assert.InDelta(t, 1.5, bst.Data.Overview.BalanceUSD, 1e-9)
	require.Len(t, bst.Data.Transactions, 1)
	assert.Equal(t, models.TxTypeEarning, bst.Data.Transactions[0].Type)

	sessions, err := h.client.ListSessions(ctx, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, sessions.Items, 1)
	assert.Equal(t, "completed", sessions.Items[0].Status)
	assert.Equal(t, 1024.0, sessions.Items[0].SentMB)
}

func TestStopUnknownSession(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)

	_, err := h.client.StopSession(context.Background(), "99")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Session not found", errors.UserMessage(err))
}

func TestWithdrawBelowMinimum(t *testing.T) {
	h := newHarness(t, 10)
	h.login(t, 42)
	ctx := context.Background()

	svc := withdrawsvc.NewService(h.client, h.store, validation.WithdrawLimits{MinUSD: 1.39}, "")
	_, err := svc.Submit(ctx, 1.00, wallet)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = h.client.CreateWithdraw(ctx, models.WithdrawRequest{TelegramID: 42, AmountUSD: 1.00, WalletAddress: wallet, Network: "BEP20"})
	require.Error(t, err)
	assert.Equal(t, "Minimum withdraw is $1.39", errors.UserMessage(err))

	list, err := h.client.ListWithdraws(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestWithdraw(t *testing.T) {
	h := newHarness(t, 10)
	h.login(t, 42)
	ctx := context.Background()

	svc := withdrawsvc.NewService(h.client, h.store, validation.WithdrawLimits{MinUSD: 1.39}, "")
	st, err := svc.Submit(ctx, 1.39, wallet)
	require.NoError(t, err)
	require.NotNil(t, st.Data)
	assert.NotZero(t, st.Data.TransactionID)

	hist, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist.Data.Items, 1)
	assert.Equal(t, models.TxStatusPending, hist.Data.Items[0].Status)

	overview, err := h.client.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.InDelta(t, 8.61, overview.BalanceUSD, 1e-9)
	assert.InDelta(t, 1.39, overview.PendingUSD, 1e-9)

	_, err = svc.Submit(ctx, 50, wallet)
	require.Error(t, err)
	assert.Equal(t, "Insufficient balance", errors.UserMessage(err))
}

func TestPromoActivation(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)
	ctx := context.Background()

	news := newssvc.NewService(h.client, h.store)
	st, err := news.Load(ctx)
	require.NoError(t, err)
	require.Len(t, st.Data.Promo, 1)

	res, err := news.ActivatePromo(ctx, "bonus10")
	require.NoError(t, err)
	assert.Equal(t, "Promo code activated", res.Data.Message)

	_, err = news.ActivatePromo(ctx, "BONUS10")
	require.Error(t, err)
	assert.Equal(t, "Promo code already used", errors.UserMessage(err))

	_, err = news.ActivatePromo(ctx, "NOPE42")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRenewAndLogout(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)
	ctx := context.Background()
	old := h.store.Token()

	renewed, err := h.client.RenewToken(ctx)
	require.NoError(t, err)
	require.NoError(t, h.store.UpdateToken(ctx, renewed.AccessToken))

	_, err = h.server.Issuer().Verify(old)
	assert.Error(t, err)

	require.NoError(t, h.client.Logout(ctx))
	_, err = h.client.GetProfile(ctx)
	require.Error(t, err)
	assert.False(t, h.store.IsAuthenticated())
}

func TestLiveEvents(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan models.LiveEvent, 16)
	sub := live.NewSubscriber(live.Options{BaseURL: h.base, PingInterval: 100 * time.Millisecond}, h.store)
	done := make(chan error, 1)
	go func() {
		done <- sub.Run(ctx, func(e models.LiveEvent) { events <- e })
	}()

	waitFor := func(eventType string) models.LiveEvent {
		for {
			select {
			case e := <-events:
				if e.Type == eventType {
					return e
				}
			case <-ctx.Done():
				t.Fatalf("no %s event", eventType)
			}
		}
	}

	waitFor("connected")

	ctrl := trafficsvc.NewController(h.client, "device-1")
	_, err := ctrl.Start(ctx, models.SessionStartRequest{})
	require.NoError(t, err)
	e := waitFor("session_started")
	assert.Equal(t, "Tunnel opened", e.Message)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestLiveRejectsInvalidToken(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t, 42)
	h.server.Issuer().RevokeAll(42)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var unauthorized bool
	sub := live.NewSubscriber(live.Options{
		BaseURL:        h.base,
		OnUnauthorized: func(ctx context.Context) { unauthorized = true },
	}, h.store)

	err := sub.Run(ctx, func(models.LiveEvent) {})
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.True(t, unauthorized)
}
