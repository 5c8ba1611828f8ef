package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	exportuc "github.com/kailas-cloud/pda/internal/usecase/export"
	fixuc "github.com/kailas-cloud/pda/internal/usecase/fix"
	mailmergeuc "github.com/kailas-cloud/pda/internal/usecase/mailmerge"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
	"github.com/kailas-cloud/pda/internal/version"
)

type enqueuer interface {
	Enqueue(ctx context.Context, path string, params url.Values) error
}

// deps are the services commands run against.
type deps struct {
	notify    *notifyuc.Service
	fix       *fixuc.Service
	export    *exportuc.Service
	mailmerge *mailmergeuc.Service
	queue     enqueuer
	now       func() time.Time
	logger    *zap.Logger
}

// Command is one pdactl subcommand.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(ctx context.Context, out io.Writer, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

func (c *Command) run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var flagOut strings.Builder
	c.Flags.SetOutput(&flagOut)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stdout, "Usage: pdactl", c.Usage)
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, c.Short)
			c.Flags.SetOutput(stdout)
			c.Flags.PrintDefaults()
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if err := c.Exec(ctx, stdout, c.Flags.Args()); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, d deps, args []string, stdout, stderr io.Writer) int {
	for _, c := range commands(d) {
		if c.Name() == args[0] {
			return c.run(ctx, args[1:], stdout, stderr)
		}
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
	printUsage(stderr)
	return 1
}

func commands(d deps) []*Command {
	return []*Command{
		notifyCmd(d),
		fixAllCmd(d),
		fixRecordCmd(d),
		exportCmd(d, "export-vcard", "Write all enabled Persons as vCard 4.0",
			func(ctx context.Context, w io.Writer) (int, error) { return d.export.VCards(ctx, w) }),
		exportCmd(d, "export-ical", "Write all enabled Calendar entries as a yearly iCalendar feed",
			func(ctx context.Context, w io.Writer) (int, error) { return d.export.Calendar(ctx, w, d.now()) }),
		mailmergeCmd(d),
		versionCmd(),
	}
}

func notifyCmd(d deps) *Command {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	enqueue := fs.Bool("enqueue", false, "hand the run to the server's task queue instead of running it here")
	return &Command{
		Flags: fs,
		Usage: "notify [--enqueue]",
		Short: "Find today's events, queue reminders and mail the run log",
		Exec: func(ctx context.Context, out io.Writer, _ []string) error {
			if *enqueue {
				if err := d.queue.Enqueue(ctx, notifyuc.PathNotify, url.Values{}); err != nil {
					return err
				}
				fmt.Fprintln(out, "enqueued", notifyuc.PathNotify)
				return nil
			}
			log, err := d.notify.Run(ctx, d.now())
			fmt.Fprintln(out, log)
			return err
		},
	}
}

func fixAllCmd(d deps) *Command {
	fs := flag.NewFlagSet("fix-all", flag.ContinueOnError)
	next := fs.String("next", "", "resume after this record key")
	return &Command{
		Flags: fs,
		Usage: "fix-all [--next <key>]",
		Short: "Queue a fix task for every record, one page at a time",
		Exec: func(ctx context.Context, out io.Writer, _ []string) error {
			log, err := d.fix.FixAll(ctx, *next)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, log)
			return nil
		},
	}
}

func fixRecordCmd(d deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("fix-record", flag.ContinueOnError),
		Usage: "fix-record <key>...",
		Short: "Fix the given records now",
		Exec: func(ctx context.Context, out io.Writer, args []string) error {
			if len(args) == 0 {
				return errors.New("at least one record key is required")
			}
			for _, arg := range args {
				key, err := domrec.ParseKey(arg)
				if err != nil {
					return err
				}
				o, err := d.fix.FixRecord(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s year=%t words=%t\n", o.Key, o.YearFixed, o.WordsChanged)
			}
			return nil
		},
	}
}

func exportCmd(d deps, name, short string, write func(context.Context, io.Writer) (int, error)) *Command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	output := fs.StringP("output", "o", "", "write to this file instead of stdout")
	return &Command{
		Flags: fs,
		Usage: name + " [-o <file>]",
		Short: short,
		Exec: func(ctx context.Context, out io.Writer, _ []string) error {
			return withOutput(*output, out, func(w io.Writer) error {
				n, err := write(ctx, w)
				if err != nil {
					return err
				}
				d.logger.Info("Exported", zap.String("command", name), zap.Int("items", n))
				return nil
			})
		},
	}
}

func mailmergeCmd(d deps) *Command {
	fs := flag.NewFlagSet("mailmerge", flag.ContinueOnError)
	output := fs.StringP("output", "o", "", "write to this file instead of stdout")
	return &Command{
		Flags: fs,
		Usage: "mailmerge [-o <file>]",
		Short: "Write the card mailing list as CSV",
		Exec: func(ctx context.Context, out io.Writer, _ []string) error {
			return withOutput(*output, out, func(w io.Writer) error {
				return d.mailmerge.Write(ctx, w)
			})
		},
	}
}

func versionCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("version", flag.ContinueOnError),
		Usage: "version",
		Short: "Print build information",
		Exec: func(_ context.Context, out io.Writer, _ []string) error {
			fmt.Fprintf(out, "pdactl %s (%s, %s)\n", version.Version, version.Commit, version.Date)
			return nil
		},
	}
}

// withOutput runs fn against path, or against out when path is empty.
func withOutput(path string, out io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(out)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
