package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/models"
)

// Doer is the transport the catalog sends requests through
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error
}

// Client exposes every backend route as a typed call. It holds no state of its
// own; authentication is handled by the transport.
type Client struct {
	doer Doer
}

func NewClient(doer Doer) *Client {
	return &Client{doer: doer}
}

func (c *Client) call(ctx context.Context, name string, params map[string]string, query url.Values, body, out interface{}) error {
	e, ok := Lookup(name)
	if !ok {
		return errors.New(errors.ErrCodeInternal, fmt.Sprintf("unknown endpoint %s", name))
	}
	path, err := e.Build(params)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build endpoint path")
	}
	return c.doer.Do(ctx, e.Method, path, query, body, out)
}

func idParam(telegramID int64) map[string]string {
	return map[string]string{"telegram_id": strconv.FormatInt(telegramID, 10)}
}

func pageQuery(page models.Page) url.Values {
	q := url.Values{}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset > 0 {
		q.Set("offset", strconv.Itoa(page.Offset))
	}
	return q
}

// Login exchanges a Telegram widget payload for a token and profile
func (c *Client) Login(ctx context.Context, req models.TelegramAuthRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.call(ctx, OpLogin, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetDashboard(ctx context.Context, telegramID int64) (*models.Dashboard, error) {
	var resp models.Dashboard
	if err := c.call(ctx, OpGetDashboard, idParam(telegramID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StartSession(ctx context.Context, req models.SessionStartRequest) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpStartSession, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopSession sends the id both in the body and as a query parameter; backend
// versions differ in which one they read.
func (c *Client) StopSession(ctx context.Context, sessionID models.SessionID) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	query := url.Values{"session_id": {sessionID.String()}}
	if err := c.call(ctx, OpStopSession, nil, query, models.SessionStopRequest{SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ReportTelemetry(ctx context.Context, req models.TelemetryReport) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpReportTelemetry, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetBalance(ctx context.Context, telegramID int64) (*models.BalanceOverview, error) {
	var resp models.BalanceOverview
	if err := c.call(ctx, OpGetBalance, idParam(telegramID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RefreshBalance(ctx context.Context, telegramID int64) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpRefreshBalance, nil, nil, models.BalanceRefreshRequest{TelegramID: telegramID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListTransactions(ctx context.Context, page models.Page) (*models.TransactionList, error) {
	var resp models.TransactionList
	if err := c.call(ctx, OpListTransactions, nil, pageQuery(page), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateWithdraw(ctx context.Context, req models.WithdrawRequest) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpCreateWithdraw, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListWithdraws(ctx context.Context) (*models.WithdrawList, error) {
	var resp models.WithdrawList
	if err := c.call(ctx, OpListWithdraws, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAnalytics fetches the daily, weekly or monthly series
func (c *Client) GetAnalytics(ctx context.Context, period string, telegramID int64) (*models.AnalyticsSeries, error) {
	period, err := models.ParsePeriod(period)
	if err != nil {
		return nil, errors.NewValidationError("period", err.Error())
	}

	params := idParam(telegramID)
	params["period"] = period

	var resp models.AnalyticsSeries
	if err := c.call(ctx, OpGetAnalytics, params, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Period == "" {
		resp.Period = period
	}
	return &resp, nil
}

func (c *Client) GetNewsPromo(ctx context.Context) (*models.NewsPromo, error) {
	var resp models.NewsPromo
	if err := c.call(ctx, OpGetNewsPromo, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ActivatePromo(ctx context.Context, req models.PromoActivateRequest) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpActivatePromo, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateSettings(ctx context.Context, req models.SettingsUpdate) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpUpdateSettings, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendSupport(ctx context.Context, req models.SupportCreate) (*models.GenericResponse, error) {
	var resp models.GenericResponse
	if err := c.call(ctx, OpSendSupport, nil, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSupportHistory(ctx context.Context) (*models.SupportHistory, error) {
	var resp models.SupportHistory
	if err := c.call(ctx, OpGetSupportHistory, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListSessions(ctx context.Context, page models.Page) (*models.SessionList, error) {
	var resp models.SessionList
	if err := c.call(ctx, OpListSessions, nil, pageQuery(page), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SessionSummary(ctx context.Context) (*models.SessionSummary, error) {
	var resp models.SessionSummary
	if err := c.call(ctx, OpSessionSummary, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var resp models.UserProfile
	if err := c.call(ctx, OpGetProfile, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RenewToken(ctx context.Context) (*models.TokenRenewResponse, error) {
	var resp models.TokenRenewResponse
	if err := c.call(ctx, OpRenewToken, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, OpLogout, nil, nil, nil, nil)
}

func (c *Client) LogoutAll(ctx context.Context) error {
	return c.call(ctx, OpLogoutAll, nil, nil, nil, nil)
}
