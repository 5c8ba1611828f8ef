// Command pdactl runs maintenance jobs against the pda store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kailas-cloud/pda/internal/bootstrap"
	"github.com/kailas-cloud/pda/internal/config"
	logpkg "github.com/kailas-cloud/pda/internal/logger"
	"github.com/kailas-cloud/pda/internal/queue"
	reporec "github.com/kailas-cloud/pda/internal/repository/record"
	exportuc "github.com/kailas-cloud/pda/internal/usecase/export"
	fixuc "github.com/kailas-cloud/pda/internal/usecase/fix"
	mailmergeuc "github.com/kailas-cloud/pda/internal/usecase/mailmerge"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run wires the services from config and dispatches args to a command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stdout)
		return 0
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	logger, err := logpkg.NewLogger(env, bootstrap.LoggerOptions(cfg.Logging))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer store.Close()

	sender, err := bootstrap.NewSender(cfg.Mail, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	repo := reporec.New(store, cfg.Storage.KeyPrefix)
	tasks := queue.New(store, cfg.Storage.KeyPrefix, queue.Options{Logger: logger.Named("queue")})
	loc := bootstrap.Location(cfg.Notify, logger)

	d := deps{
		notify:    notifyuc.New(repo, tasks, sender, bootstrap.NotifyConfig(cfg, loc), logger.Named("notify")),
		fix:       fixuc.New(repo, tasks, cfg.Fix.PageSize, logger.Named("fix")),
		export:    exportuc.New(repo, cfg.App.Name, cfg.App.Origin),
		mailmerge: mailmergeuc.New(repo),
		queue:     tasks,
		now:       time.Now,
		logger:    logger,
	}
	return dispatch(ctx, d, args, stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdactl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands(deps{}) {
		fmt.Fprintln(w, c.HelpLine())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The store and mail settings come from config/$ENV.yaml (ENV defaults to local).")
}
