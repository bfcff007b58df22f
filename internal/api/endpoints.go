package api

import (
	"fmt"
	"net/http"
	"strings"
)

// Endpoint names, one per backend route
const (
	OpLogin             = "login"
	OpGetDashboard      = "getDashboard"
	OpStartSession      = "startSession"
	OpStopSession       = "stopSession"
	OpReportTelemetry   = "reportTelemetry"
	OpGetBalance        = "getBalance"
	OpRefreshBalance    = "refreshBalance"
	OpListTransactions  = "listTransactions"
	OpCreateWithdraw    = "createWithdraw"
	OpListWithdraws     = "listWithdraws"
	OpGetAnalytics      = "getAnalytics"
	OpGetNewsPromo      = "getNewsPromo"
	OpActivatePromo     = "activatePromo"
	OpUpdateSettings    = "updateSettings"
	OpSendSupport       = "sendSupport"
	OpGetSupportHistory = "getSupportHistory"
	OpListSessions      = "listSessions"
	OpSessionSummary    = "sessionSummary"
	OpGetProfile        = "getProfile"
	OpRenewToken        = "renewToken"
	OpLogout            = "logout"
	OpLogoutAll         = "logoutAll"
)

// Endpoint is one catalog row. Path uses {name} placeholders.
type Endpoint struct {
	Name   string
	Method string
	Path   string
	// Public endpoints are called without a bearer token
	Public bool
}

// Endpoints is the flat route table shared by the client and the dev server.
var Endpoints = []Endpoint{
	{Name: OpLogin, Method: http.MethodPost, Path: "/auth/telegram", Public: true},
	{Name: OpGetDashboard, Method: http.MethodGet, Path: "/dashboard/{telegram_id}"},
	{Name: OpStartSession, Method: http.MethodPost, Path: "/traffic/start"},
	{Name: OpStopSession, Method: http.MethodPost, Path: "/traffic/stop"},
	{Name: OpReportTelemetry, Method: http.MethodPost, Path: "/traffic/report"},
	{Name: OpGetBalance, Method: http.MethodGet, Path: "/user/balance/{telegram_id}"},
	{Name: OpRefreshBalance, Method: http.MethodPost, Path: "/user/refresh_balance"},
	{Name: OpListTransactions, Method: http.MethodGet, Path: "/transactions"},
	{Name: OpCreateWithdraw, Method: http.MethodPost, Path: "/withdraw"},
	{Name: OpListWithdraws, Method: http.MethodGet, Path: "/withdraws"},
	{Name: OpGetAnalytics, Method: http.MethodGet, Path: "/stats/{period}/{telegram_id}"},
	{Name: OpGetNewsPromo, Method: http.MethodGet, Path: "/news_promo", Public: true},
	{Name: OpActivatePromo, Method: http.MethodPost, Path: "/promo/activate"},
	{Name: OpUpdateSettings, Method: http.MethodPost, Path: "/user/settings"},
	{Name: OpSendSupport, Method: http.MethodPost, Path: "/support/send"},
	{Name: OpGetSupportHistory, Method: http.MethodGet, Path: "/support/history"},
	{Name: OpListSessions, Method: http.MethodGet, Path: "/sessions"},
	{Name: OpSessionSummary, Method: http.MethodGet, Path: "/sessions/summary"},
	{Name: OpGetProfile, Method: http.MethodGet, Path: "/user/profile"},
	{Name: OpRenewToken, Method: http.MethodPost, Path: "/user/token/renew"},
	{Name: OpLogout, Method: http.MethodPost, Path: "/user/logout"},
	{Name: OpLogoutAll, Method: http.MethodPost, Path: "/user/logout_all"},
}

var endpointsByName = func() map[string]Endpoint {
	m := make(map[string]Endpoint, len(Endpoints))
	for _, e := range Endpoints {
		m[e.Name] = e
	}
	return m
}()

// Lookup returns the catalog entry for name
func Lookup(name string) (Endpoint, bool) {
	e, ok := endpointsByName[name]
	return e, ok
}

// Build fills the {placeholders} of the endpoint path. Every placeholder must
// have a value.
func (e Endpoint) Build(params map[string]string) (string, error) {
	path := e.Path
	for key, value := range params {
		path = strings.ReplaceAll(path, "{"+key+"}", value)
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("endpoint %s: unresolved path %s", e.Name, path)
	}
	return path, nil
}

// GinPath converts {name} placeholders to gin's :name form
func (e Endpoint) GinPath() string {
	var b strings.Builder
	for _, seg := range strings.Split(e.Path, "/") {
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteByte(':')
			b.WriteString(seg[1 : len(seg)-1])
			continue
		}
		b.WriteString(seg)
	}
	return b.String()
}
