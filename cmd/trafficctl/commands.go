package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/device"
	trafficService "traffic-share-client/internal/features/traffic/service"
	"traffic-share-client/internal/format"
	"traffic-share-client/internal/models"
)

type command func(ctx context.Context, args []string) error

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	commands := map[string]command{
		"login":        a.cmdLogin,
		"logout":       a.cmdLogout,
		"whoami":       a.cmdWhoami,
		"dashboard":    a.cmdDashboard,
		"balance":      a.cmdBalance,
		"transactions": a.cmdTransactions,
		"withdraw":     a.cmdWithdraw,
		"withdraws":    a.cmdWithdraws,
		"session":      a.cmdSession,
		"sessions":     a.cmdSessions,
		"stats":        a.cmdStats,
		"news":         a.cmdNews,
		"promo":        a.cmdPromo,
		"settings":     a.cmdSettings,
		"support":      a.cmdSupport,
		"live":         a.cmdLive,
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, args)
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet("trafficctl "+name, flag.ContinueOnError)
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
}

func localTime(iso string) string {
	return format.LocalTime(iso, time.Local)
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlags("login")
	id := fs.Int64("id", 0, "Telegram user id")
	username := fs.String("username", "", "Telegram username")
	firstName := fs.String("first-name", "", "First name")
	photoURL := fs.String("photo-url", "", "Avatar URL")
	hash := fs.String("hash", "", "Login widget hash")
	authDate := fs.Int64("auth-date", 0, "Login widget auth_date (unix seconds, default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *authDate == 0 {
		*authDate = time.Now().Unix()
	}
	if err := validation.ValidateTelegramAuth(*id, *authDate, *hash); err != nil {
		return err
	}
	if err := validation.ValidateUsername(*username); err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, models.TelegramAuthRequest{
		ID:        *id,
		FirstName: *firstName,
		Username:  *username,
		PhotoURL:  *photoURL,
		AuthDate:  *authDate,
		Hash:      *hash,
	})
	if err != nil {
		return err
	}
	if err := a.store.Login(ctx, resp); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", a.store.User().DisplayName())
	return nil
}

func (a *app) cmdLogout(ctx context.Context, args []string) error {
	fs := newFlags("logout")
	all := fs.Bool("all", false, "Log out every device")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.store.IsAuthenticated() {
		fmt.Println("Not logged in")
		return nil
	}
	if err := a.profile.Logout(ctx, *all); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := a.profile.Refresh(ctx)
	if err != nil {
		return err
	}
	u := st.Data
	fmt.Printf("%s (id %d)\n", u.DisplayName(), u.TelegramID)
	fmt.Printf("Balance:  %s\n", format.Currency(u.BalanceUSD, "USD"))
	fmt.Printf("Shared:   %s\n", format.Mb(u.SentMB))
	fmt.Printf("Device:   %s (%s)\n", a.deviceID, device.OS())
	return nil
}

func (a *app) cmdDashboard(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := a.dashboard.Load(ctx)
	if err != nil {
		return err
	}
	d := st.Data
	fmt.Printf("Hello, %s\n\n", d.User.DisplayName())
	fmt.Printf("Balance   %s  %s  %s\n",
		format.Currency(d.Balance.USD, "USD"),
		format.Currency(d.Balance.ConvertedUSDT, "USDT"),
		format.Currency(d.Balance.ConvertedUZS, "UZS"))
	fmt.Printf("Traffic   sent %s, used %s, status %s\n",
		format.Mb(d.Traffic.SentMB), format.Mb(d.Traffic.UsedMB), d.Traffic.Status)
	if d.Traffic.SessionID != "" {
		fmt.Printf("Session   %s at %s\n", d.Traffic.SessionID, format.Speed(d.Traffic.CurrentSpeed))
	}
	fmt.Printf("Price     %s per GB\n", format.Currency(d.Pricing.PricePerGB, "USD"))
	fmt.Printf("Earnings  today %s, week %s, month %s\n",
		format.Currency(d.MiniStats.TodayEarn, "USD"),
		format.Currency(d.MiniStats.WeekEarn, "USD"),
		format.Currency(d.MiniStats.MonthEarn, "USD"))
	return nil
}

func (a *app) cmdBalance(ctx context.Context, args []string) error {
	fs := newFlags("balance")
	refresh := fs.Bool("refresh", false, "Ask the server to recompute the balance first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	load := a.balance.Load
	if *refresh {
		load = a.balance.Refresh
	}
	st, err := load(ctx)
	if err != nil {
		return err
	}

	b := st.Data
	fmt.Printf("Balance  %s\n", format.Currency(b.Overview.BalanceUSD, "USD"))
	if b.Overview.PendingUSD > 0 {
		fmt.Printf("Pending  %s\n", format.Currency(b.Overview.PendingUSD, "USD"))
	}
	fmt.Printf("Today    %s\n", format.Currency(b.Overview.TodayEarn, "USD"))
	fmt.Printf("Month    %s\n\n", format.Currency(b.Overview.MonthEarn, "USD"))

	if b.TransactionsError != "" {
		fmt.Printf("Transactions unavailable: %s\n", b.TransactionsError)
		return nil
	}
	printTransactions(b.Transactions)
	return nil
}

func printTransactions(items []models.Transaction) {
	if len(items) == 0 {
		fmt.Println("No transactions")
		return
	}
	w := table()
	fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tSTATUS\tDATE")
	for _, tx := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Type, format.Currency(tx.AmountUSD, "USD"), tx.Status, localTime(tx.CreatedAt))
	}
	_ = w.Flush()
}

func (a *app) cmdTransactions(ctx context.Context, args []string) error {
	fs := newFlags("transactions")
	limit := fs.Int("limit", 20, "Page size")
	offset := fs.Int("offset", 0, "Rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	list, err := a.client.ListTransactions(ctx, models.Page{Limit: *limit, Offset: *offset})
	if err != nil {
		return err
	}
	printTransactions(list.Items)
	return nil
}

func (a *app) cmdWithdraw(ctx context.Context, args []string) error {
	fs := newFlags("withdraw")
	amount := fs.Float64("amount", 0, "Amount in USD")
	wallet := fs.String("wallet", "", "USDT BEP20 wallet address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := a.withdraw.Submit(ctx, *amount, *wallet)
	if err != nil {
		return err
	}
	fmt.Println(st.Data.Message)
	if st.Data.TransactionID != 0 {
		fmt.Printf("Transaction %d\n", st.Data.TransactionID)
	}
	return nil
}

func (a *app) cmdWithdraws(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := a.withdraw.History(ctx)
	if err != nil {
		return err
	}
	if len(st.Data.Items) == 0 {
		fmt.Println("No withdraw requests")
		return nil
	}
	w := table()
	fmt.Fprintln(w, "ID\tAMOUNT\tSTATUS\tCREATED\tTX")
	for _, item := range st.Data.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			item.ID, format.Currency(item.AmountUSD, "USD"), item.Status, localTime(item.CreatedAt), item.TxHash)
	}
	return w.Flush()
}

func (a *app) cmdSession(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.NewValidationError("session", "expected start, stop or run")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	switch args[0] {
	case "start":
		if _, err := a.restoreSession(ctx); err != nil {
			return err
		}
		st, err := a.startSession(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Session %s active. %s\n", st.SessionID, st.Message)
		return nil
	case "stop":
		active, err := a.restoreSession(ctx)
		if err != nil {
			return err
		}
		if !active {
			fmt.Println("No active session")
			return nil
		}
		st, err := a.traffic.Stop(ctx)
		if err != nil {
			return err
		}
		fmt.Println(st.Message)
		return nil
	case "run":
		return a.runSession(ctx, args[1:])
	}
	return errors.NewValidationError("session", fmt.Sprintf("unknown session command %q", args[0]))
}

// restoreSession picks up a session the server still considers active
func (a *app) restoreSession(ctx context.Context) (bool, error) {
	st, err := a.dashboard.Load(ctx)
	if err != nil {
		return false, err
	}
	if id := st.Data.Traffic.SessionID; id != "" {
		a.traffic.Restore(id)
		return true, nil
	}
	return false, nil
}

func (a *app) startSession(ctx context.Context) (trafficService.Session, error) {
	return a.traffic.Start(ctx, models.SessionStartRequest{
		DeviceID:    a.deviceID,
		NetworkType: models.NetworkUnknown,
		AppVersion:  a.cfg.API.AppVersion,
		OS:          device.OS(),
	})
}

// runSession starts a session, reports telemetry until interrupted or the
// duration elapses, then stops it.
func (a *app) runSession(ctx context.Context, args []string) error {
	fs := newFlags("session run")
	duration := fs.Duration("duration", 0, "Stop after this long (default: until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.restoreSession(ctx); err != nil {
		return err
	}
	st, err := a.startSession(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Session %s active, press Ctrl+C to stop\n", st.SessionID)

	runCtx := ctx
	if *duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	reporter := trafficService.NewReporter(a.client, a.traffic, trafficService.NewNetMeter(), a.deviceID, a.cfg.Session.TelemetryInterval)
	runErr := reporter.Run(runCtx)

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
	defer cancel()
	stopped, err := a.traffic.Stop(stopCtx)
	if err != nil {
		return err
	}
	fmt.Println(stopped.Message)

	if runErr != nil && !ctxDone(runErr) {
		return runErr
	}
	return nil
}

func (a *app) cmdSessions(ctx context.Context, args []string) error {
	fs := newFlags("sessions")
	page := fs.Int("page", 1, "Page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if *page < 1 {
		*page = 1
	}

	sum, err := a.sessions.Summary(ctx)
	if err != nil {
		return err
	}
	s := sum.Data
	fmt.Printf("Today  %d sessions, %s, %s\n", s.TodaySessions, format.Mb(s.TodayMB), format.Currency(s.TodayEarnings, "USD"))
	fmt.Printf("Week   %d sessions, %s, %s\n\n", s.WeekSessions, format.Mb(s.WeekMB), format.Currency(s.WeekEarnings, "USD"))

	limit := 20
	st, err := a.sessions.Load(ctx, models.Page{Limit: limit, Offset: (*page - 1) * limit})
	if err != nil {
		return err
	}
	w := table()
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSENT\tEARNED\tSTATUS")
	for _, item := range st.Data.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, localTime(item.StartTime), item.Duration, format.Mb(item.SentMB),
			format.Currency(item.EarnedUSD, "USD"), item.Status)
	}
	return w.Flush()
}

func (a *app) cmdStats(ctx context.Context, args []string) error {
	fs := newFlags("stats")
	period := fs.String("period", models.PeriodDaily, "daily, weekly or monthly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := a.analytics.Load(ctx, *period)
	if err != nil {
		return err
	}

	w := table()
	fmt.Fprintln(w, "DATE\tSENT\tPROFIT")
	for _, p := range st.Data.Points {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Date, format.Mb(p.SentMB), format.Currency(p.ProfitUSD, "USD"))
	}
	total := st.Data.Totals()
	fmt.Fprintf(w, "TOTAL\t%s\t%s\n", format.Mb(total.SentMB), format.Currency(total.ProfitUSD, "USD"))
	return w.Flush()
}

func (a *app) cmdNews(ctx context.Context, args []string) error {
	st, err := a.news.Load(ctx)
	if err != nil {
		return err
	}
	n := st.Data
	for _, item := range n.Announcements {
		fmt.Printf("* %s (%s)\n  %s\n", item.Title, localTime(item.CreatedAt), item.Description)
	}
	for _, p := range n.Promo {
		fmt.Printf("Promo %s: %s\n", p.Code, p.Description)
	}
	for name, link := range n.TelegramLinks {
		fmt.Printf("%s: %s\n", name, link)
	}
	return nil
}

func (a *app) cmdPromo(ctx context.Context, args []string) error {
	fs := newFlags("promo")
	code := fs.String("code", "", "Promo code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := a.news.ActivatePromo(ctx, *code)
	if err != nil {
		return err
	}
	fmt.Println(st.Data.Message)
	return nil
}

// optionalBool leaves the field unset unless the flag was given
type optionalBool struct{ v *bool }

func (o *optionalBool) String() string {
	if o.v == nil {
		return ""
	}
	return fmt.Sprint(*o.v)
}

func (o *optionalBool) Set(s string) error {
	var b bool
	switch strings.ToLower(s) {
	case "true", "1", "on", "yes":
		b = true
	case "false", "0", "off", "no":
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	o.v = &b
	return nil
}

func (o *optionalBool) IsBoolFlag() bool { return true }

func (a *app) cmdSettings(ctx context.Context, args []string) error {
	fs := newFlags("settings")
	var (
		language, theme                                  string
		push, sessionUpdates, systemUpdates, batterySave optionalBool
		twoFactor, singleDevice                          optionalBool
	)
	fs.StringVar(&language, "language", "", "Interface language")
	fs.StringVar(&theme, "theme", "", "light or dark")
	fs.Var(&push, "push", "Push notifications")
	fs.Var(&sessionUpdates, "session-updates", "Session update notifications")
	fs.Var(&systemUpdates, "system-updates", "System notifications")
	fs.Var(&batterySave, "battery-saver", "Battery saver mode")
	fs.Var(&twoFactor, "two-factor", "Two factor authentication")
	fs.Var(&singleDevice, "single-device", "Single device mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	update := models.SettingsUpdate{
		PushNotifications: push.v,
		SessionUpdates:    sessionUpdates.v,
		SystemUpdates:     systemUpdates.v,
		BatterySaver:      batterySave.v,
		TwoFactorEnabled:  twoFactor.v,
		SingleDeviceMode:  singleDevice.v,
	}
	if language != "" {
		update.Language = &language
	}
	if theme != "" {
		update.Theme = &theme
	}

	st, err := a.settings.Update(ctx, update)
	if err != nil {
		return err
	}
	fmt.Println(st.Data.Message)
	return nil
}

func (a *app) cmdSupport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.NewValidationError("support", "expected send or history")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	switch args[0] {
	case "send":
		fs := newFlags("support send")
		subject := fs.String("subject", "", "Subject")
		message := fs.String("message", "", "Message")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		st, err := a.support.Send(ctx, *subject, *message)
		if err != nil {
			return err
		}
		fmt.Println(st.Data.Message)
		return nil
	case "history":
		st, err := a.support.History(ctx)
		if err != nil {
			return err
		}
		if len(st.Data.Items) == 0 {
			fmt.Println("No support requests")
			return nil
		}
		for _, item := range st.Data.Items {
			fmt.Printf("#%d [%s] %s (%s)\n  %s\n", item.ID, item.Status, item.Subject, localTime(item.CreatedAt), item.Message)
			if item.AdminReply != "" {
				fmt.Printf("  reply: %s\n", item.AdminReply)
			}
		}
		return nil
	}
	return errors.NewValidationError("support", fmt.Sprintf("unknown support command %q", args[0]))
}

func (a *app) cmdLive(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	fmt.Println("Listening for updates, press Ctrl+C to stop")
	err := a.live.Run(ctx, func(e models.LiveEvent) {
		line := e.Type
		if e.Message != "" {
			line += ": " + e.Message
		}
		if len(e.Data) > 0 {
			line += " " + string(e.Data)
		}
		fmt.Println(line)
	})
	if ctxDone(err) {
		return nil
	}
	return err
}
