package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"traffic-share-client/internal/common/config"
	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
)

const usage = `usage: trafficctl <command> [flags]

commands:
  login       --id --username --first-name --photo-url --hash [--auth-date]
  logout      [--all]
  whoami
  dashboard
  balance     [--refresh]
  transactions [--limit --offset]
  withdraw    --amount --wallet
  withdraws
  session     start|stop|run [--duration]
  sessions    [--page]
  stats       [--period daily|weekly|monthly]
  news
  promo       --code
  settings    [--language --theme --push --session-updates --system-updates --battery-saver]
  support     send --subject --message | history
  live
`

func main() {
	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	logger.Init("trafficctl", cfg.Debug)

	os.Exit(run(cfg, os.Args[1], os.Args[2:]))
}

func run(cfg *config.Config, name string, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
		return 1
	}
	defer a.close()

	if err := a.dispatch(ctx, name, args); err != nil {
		reportError(err)
		return 1
	}
	return 0
}

func reportError(err error) {
	appErr, _ := errors.AsAppError(err)
	switch {
	case appErr != nil && appErr.Code == errors.ErrCodeNotAuthenticated:
		fmt.Fprintln(os.Stderr, "not logged in, run trafficctl login")
	case errors.IsUnauthorized(err):
		fmt.Fprintln(os.Stderr, "session expired, please login again")
	case ctxDone(err):
		fmt.Fprintln(os.Stderr, "interrupted")
	default:
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
	}
}

func ctxDone(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
