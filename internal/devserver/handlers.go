package devserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"traffic-share-client/internal/api"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/common/middleware"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/models"
)

func (s *Server) handlers() map[string]gin.HandlerFunc {
	return map[string]gin.HandlerFunc{
		api.OpLogin:             s.login,
		api.OpGetDashboard:      s.ownUser(s.getDashboard),
		api.OpStartSession:      s.startSession,
		api.OpStopSession:       s.stopSession,
		api.OpReportTelemetry:   s.reportTelemetry,
		api.OpGetBalance:        s.ownUser(s.getBalance),
		api.OpRefreshBalance:    s.refreshBalance,
		api.OpListTransactions:  s.listTransactions,
		api.OpCreateWithdraw:    s.createWithdraw,
		api.OpListWithdraws:     s.listWithdraws,
		api.OpGetAnalytics:      s.ownUser(s.getAnalytics),
		api.OpGetNewsPromo:      s.getNewsPromo,
		api.OpActivatePromo:     s.activatePromo,
		api.OpUpdateSettings:    s.updateSettings,
		api.OpSendSupport:       s.sendSupport,
		api.OpGetSupportHistory: s.getSupportHistory,
		api.OpListSessions:      s.listSessions,
		api.OpSessionSummary:    s.sessionSummary,
		api.OpGetProfile:        s.getProfile,
		api.OpRenewToken:        s.renewToken,
		api.OpLogout:            s.logout,
		api.OpLogoutAll:         s.logoutAll,
	}
}

// ownUser rejects requests for another user's {telegram_id}
func (s *Server) ownUser(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
		if err != nil {
			middleware.Abort(c, http.StatusUnprocessableEntity, "telegram_id must be an integer")
			return
		}
		if id != middleware.GetTelegramID(c) {
			middleware.Abort(c, http.StatusForbidden, "Access denied")
			return
		}
		next(c)
	}
}

func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"detail": []gin.H{{"loc": []string{"body"}, "msg": err.Error(), "type": "value_error"}},
		})
		return false
	}
	return true
}

func pageFrom(c *gin.Context) models.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return models.Page{Limit: limit, Offset: offset}
}

func (s *Server) login(c *gin.Context) {
	var req models.TelegramAuthRequest
	if !bind(c, &req) {
		return
	}
	if err := validation.ValidateTelegramAuth(req.ID, req.AuthDate, req.Hash); err != nil {
		middleware.Abort(c, http.StatusBadRequest, "invalid_signature")
		return
	}

	user := s.state.upsertUser(req)
	token, err := s.issuer.Issue(user.TelegramID)
	if err != nil {
		middleware.Abort(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	logger.Info().Int64("telegram_id", user.TelegramID).Msg("User logged in")
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"user":   user,
		"token":  gin.H{"access_token": token, "token_type": "bearer"},
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	d, ok := s.state.dashboard(middleware.GetTelegramID(c))
	if !ok {
		middleware.Abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) startSession(c *gin.Context) {
	var req models.SessionStartRequest
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		middleware.Abort(c, http.StatusUnprocessableEntity, "device_id is required")
		return
	}

	telegramID := middleware.GetTelegramID(c)
	rec, err := s.state.startSession(telegramID, req)
	if err != nil {
		middleware.Abort(c, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.publish(telegramID, "session_started", "Tunnel opened", gin.H{"session_id": rec.ID})
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok", SessionID: rec.ID, Message: "Tunnel opened"})
}

func (s *Server) stopSession(c *gin.Context) {
	id := models.SessionID(c.Query("session_id"))
	if id == "" {
		var req models.SessionStopRequest
		if !bind(c, &req) {
			return
		}
		id = req.SessionID
	}
	if id == "" {
		middleware.Abort(c, http.StatusUnprocessableEntity, "session_id is required")
		return
	}

	telegramID := middleware.GetTelegramID(c)
	rec, err := s.state.stopSession(telegramID, id)
	if err != nil {
		middleware.Abort(c, http.StatusNotFound, err.Error())
		return
	}
	s.hub.publish(telegramID, "session_stopped", "Session stopped", gin.H{"session_id": rec.ID, "sent_mb": rec.SentMB})
	c.JSON(http.StatusOK, models.GenericResponse{Status: "success", Message: "Session stopped"})
}

func (s *Server) reportTelemetry(c *gin.Context) {
	var req models.TelemetryReport
	if !bind(c, &req) {
		return
	}

	telegramID := middleware.GetTelegramID(c)
	rec, balance, err := s.state.report(telegramID, req)
	if err != nil {
		middleware.Abort(c, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.publish(telegramID, "session_update", "", gin.H{
		"session_id":  rec.ID,
		"mb_sent":     rec.SentMB,
		"speed":       req.Speed,
		"balance_usd": balance,
	})
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok"})
}

func (s *Server) getBalance(c *gin.Context) {
	b, ok := s.state.balance(middleware.GetTelegramID(c))
	if !ok {
		middleware.Abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) refreshBalance(c *gin.Context) {
	var req models.BalanceRefreshRequest
	if !bind(c, &req) {
		return
	}
	if req.TelegramID != middleware.GetTelegramID(c) {
		middleware.Abort(c, http.StatusForbidden, "Access denied")
		return
	}
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok", Message: "Balance refreshed"})
}

func (s *Server) listTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.transactions(middleware.GetTelegramID(c), pageFrom(c)))
}

func (s *Server) createWithdraw(c *gin.Context) {
	var req models.WithdrawRequest
	if !bind(c, &req) {
		return
	}

	limits := validation.WithdrawLimits{MinUSD: s.opts.MinWithdrawUSD}
	if err := validation.ValidateWithdrawAmount(req.AmountUSD, limits); err != nil {
		middleware.Abort(c, http.StatusBadRequest, "Minimum withdraw is $"+strconv.FormatFloat(s.opts.MinWithdrawUSD, 'f', 2, 64))
		return
	}
	if err := validation.ValidateBEP20Address(req.WalletAddress); err != nil {
		middleware.Abort(c, http.StatusBadRequest, "Invalid wallet address")
		return
	}

	telegramID := middleware.GetTelegramID(c)
	tx, err := s.state.withdraw(telegramID, req)
	if err != nil {
		middleware.Abort(c, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.publish(telegramID, "balance_update", "Withdraw requested", gin.H{"amount_usd": req.AmountUSD})
	c.JSON(http.StatusOK, models.GenericResponse{
		Status:        "success",
		Message:       "Withdraw request created",
		TransactionID: tx.ID,
	})
}

func (s *Server) listWithdraws(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.withdraws(middleware.GetTelegramID(c)))
}

func (s *Server) getAnalytics(c *gin.Context) {
	period, err := models.ParsePeriod(c.Param("period"))
	if err != nil {
		middleware.Abort(c, http.StatusNotFound, "Unknown period")
		return
	}
	c.JSON(http.StatusOK, s.state.analytics(middleware.GetTelegramID(c), period))
}

func (s *Server) getNewsPromo(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.newsPromo())
}

func (s *Server) activatePromo(c *gin.Context) {
	var req models.PromoActivateRequest
	if !bind(c, &req) {
		return
	}
	found, err := s.state.activatePromo(middleware.GetTelegramID(c), req.Code)
	switch {
	case err != nil && !found:
		middleware.Abort(c, http.StatusNotFound, err.Error())
	case err != nil:
		middleware.Abort(c, http.StatusBadRequest, err.Error())
	default:
		c.JSON(http.StatusOK, models.GenericResponse{Status: "success", Message: "Promo code activated"})
	}
}

func (s *Server) updateSettings(c *gin.Context) {
	var req models.SettingsUpdate
	if !bind(c, &req) {
		return
	}
	if !s.state.updateSettings(middleware.GetTelegramID(c), req) {
		middleware.Abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok"})
}

func (s *Server) sendSupport(c *gin.Context) {
	var req models.SupportCreate
	if !bind(c, &req) {
		return
	}
	if err := validation.ValidateSupportRequest(req.Subject, req.Message); err != nil {
		middleware.Abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, ok := s.state.sendSupport(middleware.GetTelegramID(c), req); !ok {
		middleware.Abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok", Message: "Request sent"})
}

func (s *Server) getSupportHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.supportHistory(middleware.GetTelegramID(c)))
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.sessionList(middleware.GetTelegramID(c), pageFrom(c)))
}

func (s *Server) sessionSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.sessionSummary(middleware.GetTelegramID(c)))
}

func (s *Server) getProfile(c *gin.Context) {
	p, ok := s.state.profile(middleware.GetTelegramID(c))
	if !ok {
		middleware.Abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) renewToken(c *gin.Context) {
	telegramID := middleware.GetTelegramID(c)
	token, err := s.issuer.Issue(telegramID)
	if err != nil {
		middleware.Abort(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	if old, ok := c.Get(middleware.TokenKey); ok {
		s.issuer.Revoke(old.(string))
	}
	c.JSON(http.StatusOK, models.TokenRenewResponse{Status: "ok", AccessToken: token, TokenType: "bearer"})
}

func (s *Server) logout(c *gin.Context) {
	if token, ok := c.Get(middleware.TokenKey); ok {
		s.issuer.Revoke(token.(string))
	}
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok", Message: "Logged out"})
}

func (s *Server) logoutAll(c *gin.Context) {
	s.issuer.RevokeAll(middleware.GetTelegramID(c))
	c.JSON(http.StatusOK, models.GenericResponse{Status: "ok", Message: "Logged out from all devices"})
}
