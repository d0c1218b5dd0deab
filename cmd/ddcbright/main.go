// Command ddcbright reads and sets external monitor brightness over DDC/CI.
//
//	ddcbright get-brightness
//	ddcbright set-brightness 60
//	ddcbright --output DP-1 set-brightness +10
//	ddcbright detect
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/brightctl/go-ddcci/bus"
	"github.com/brightctl/go-ddcci/channel"
	"github.com/brightctl/go-ddcci/ddc"
)

// env is everything the commands touch outside the process.
type env struct {
	stdout io.Writer
	stderr io.Writer

	// fs backs sysfs scanning, the config file and the bus cache
	fs     afero.Fs
	opener channel.Opener

	cacheDir func() (string, error)
	now      func() time.Time

	// engineOptions are appended after the ones built from settings
	engineOptions []ddc.Option
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	e := &env{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		fs:       afero.NewOsFs(),
		opener:   channel.DevfsOpener{},
		cacheDir: os.UserCacheDir,
		now:      time.Now,
	}

	code := run(ctx, e, os.Args)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, e *env, args []string) int {
	err := newApp(ctx, e).Run(args)
	if err != nil {
		fmt.Fprintf(e.stderr, "ddcbright: %v\n", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintf(e.stderr, "hint: %s\n", hint)
		}
	}
	return exitCode(err)
}

func newApp(ctx context.Context, e *env) *cli.App {
	var (
		s   *settings
		eng *ddc.Engine
	)

	app := cli.NewApp()

	// base application info
	app.Name = "ddcbright"
	app.Usage = "control external monitor brightness over DDC/CI"
	app.Version = "0.3.0"
	app.Writer = e.stdout
	app.ErrWriter = e.stderr

	// flags
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "i2c-path, i",
			Usage: "use only the I2C device `PATH`, e.g. /dev/i2c-5",
		},
		cli.StringFlag{
			Name:  "output, o",
			Usage: "use the DDC channel of DRM connector `NAME`, e.g. DP-1",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "cache-file",
			Usage: "remember the working bus in `FILE`",
		},
		cli.BoolFlag{
			Name:  "no-cache",
			Usage: "neither read nor update the bus cache",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log every probe and transaction",
		},
	}

	app.OnUsageError = func(c *cli.Context, err error, _ bool) error {
		return usageErrorf("%v", err)
	}

	app.Before = func(c *cli.Context) error {
		var err error
		s, err = loadSettings(c, e.fs)
		if err != nil {
			return err
		}

		lg := newLogger(e.stderr, s.Debug)
		opts := []ddc.Option{
			ddc.WithOpener(e.opener),
			ddc.WithEnumerator(bus.NewEnumerator(e.fs)),
			ddc.WithLogger(lg),
			ddc.WithEventCallback(lg.event),
			ddc.WithRetries(s.Retries),
			ddc.WithSettleDelay(s.SettleDelay),
			ddc.WithCommandDelay(s.CommandDelay),
		}
		eng = ddc.New(append(opts, e.engineOptions...)...)
		return nil
	}

	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		if c.NArg() > 0 {
			return usageErrorf("unknown command %q", c.Args().First())
		}
		return usageErrorf("no command given")
	}

	app.Commands = []cli.Command{
		{
			Name:    "get-brightness",
			Aliases: []string{"get"},
			Usage:   "print the current brightness in percent",
			Action: func(c *cli.Context) error {
				sel, err := selector(e, s)
				if err != nil {
					return err
				}

				r, err := eng.GetBrightness(ctx, sel)
				if err != nil {
					return err
				}

				fmt.Fprintf(e.stdout, "Current brightness: %d%%\n", r.Level)
				remember(e, s, sel, r)
				return nil
			},
		},
		{
			Name:      "set-brightness",
			Aliases:   []string{"set"},
			Usage:     "set the brightness to VALUE percent, or change it by +N / -N",
			ArgsUsage: "VALUE",
			// "-5" is a value, not a flag
			SkipFlagParsing: true,
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return usageErrorf("set-brightness takes exactly one VALUE, e.g. 50, +10 or -5")
				}

				adj, err := ddc.ParseAdjustment(c.Args().First())
				if err != nil {
					return err
				}

				sel, err := selector(e, s)
				if err != nil {
					return err
				}

				r, err := eng.SetBrightness(ctx, sel, adj)
				if err != nil {
					return err
				}

				fmt.Fprintf(e.stdout, "Brightness set to %d%%\n", r.Level)
				remember(e, s, sel, r)
				return nil
			},
		},
		{
			Name:  "detect",
			Usage: "probe every I2C bus and report which ones answer DDC/CI",
			Action: func(c *cli.Context) error {
				results, err := eng.Scan(ctx)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "BUS\tSTATUS\tADAPTER\tCONNECTOR")
				for _, r := range results {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Path, r.Status, dash(r.Adapter), dash(r.Connector))
				}
				return tw.Flush()
			},
		},
	}

	return app
}

// selector turns the settings and the bus cache into an engine Selector.
func selector(e *env, s *settings) (ddc.Selector, error) {
	switch {
	case s.I2CPath != "" && s.Output != "":
		return ddc.Selector{}, usageErrorf("--i2c-path and --output are mutually exclusive")
	case s.I2CPath != "":
		return ddc.Selector{ExplicitPath: s.I2CPath}, nil
	case s.Output != "":
		path, err := bus.NewEnumerator(e.fs).ResolveConnector(s.Output)
		if err != nil {
			return ddc.Selector{}, errors.Wrap(err, "resolve output")
		}
		return ddc.Selector{ExplicitPath: path}, nil
	}

	if s.NoCache {
		return ddc.Selector{}, nil
	}

	path, err := cachePath(e, s)
	if err != nil {
		return ddc.Selector{}, nil
	}
	cached, err := loadCache(e.fs, path)
	if err != nil {
		// A damaged cache only costs a scan
		return ddc.Selector{}, nil
	}
	return ddc.Selector{CachedPath: cached.Bus}, nil
}

// remember stores the bus that worked when it was found by scanning.
func remember(e *env, s *settings, sel ddc.Selector, r ddc.Reading) {
	if s.NoCache || sel.ExplicitPath != "" || r.Path == "" {
		return
	}

	path, err := cachePath(e, s)
	if err != nil {
		return
	}
	if err := saveCache(e.fs, path, busCache{Bus: r.Path, VerifiedAt: e.now().UTC()}); err != nil {
		fmt.Fprintf(e.stderr, "ddcbright: %v\n", err)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
