// Package cli implements the birdsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birdsync/archiver"
	"birdsync/birdsy"
	"birdsync/config"
	bhttp "birdsync/http"
	"birdsync/internal/logging"
	"birdsync/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// lockTimeout is how long a run waits for another run on the same archive.
var lockTimeout = 5 * time.Second

// dateLayout is the --date format.
const dateLayout = "2006-01-02"

type options struct {
	action     string
	date       string
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

// reportedError marks a failure that was already logged.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCommand builds the birdsync command.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "birdsync --action <sync|list|delete|download> [--date YYYY-MM-DD]",
		Short: "Archive Birdsy camera recordings to a local directory",
		Long: `birdsync signs in to Birdsy and performs one action:

  sync      download every favourite not yet archived, in reverse of the
            service's day order
  list      print the recordings of --date
  delete    delete the non-favourite recordings of --date from Birdsy
  download  download the favourite recordings of --date

Each recording is stored as <id>.csv, <id>.jpg and <id>.mp4.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.action, "action", "a", "", "action to perform: sync, list, delete or download")
	f.StringVarP(&opts.date, "date", "d", "", "recording date (YYYY-MM-DD) for list, delete and download")
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default birdsync.json or ~/.config/birdsync/birdsync.json)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	f.StringVar(&opts.logFormat, "log-format", "", "log format: console or json (overrides config)")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colour in output and logs")
	cmd.MarkFlagRequired("action")

	return cmd
}

// Execute runs the command with a context cancelled on SIGINT or SIGTERM
// and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Run '%s --help' for usage.\n", cmd.CommandPath())
		}
		return 1
	}
	return 0
}

// normalizeDate validates a --date value and returns it in the form the
// service expects.
func normalizeDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("invalid --date %q: want YYYY-MM-DD", s)
	}
	return s + "T00:00:00", nil
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	action, err := archiver.ParseAction(opts.action)
	if err != nil {
		return err
	}
	date, err := normalizeDate(opts.date)
	if err != nil {
		return err
	}

	// Both loggers below tag their lines with the same run.
	runID := uuid.NewString()

	// Logs until the configuration is known.
	log, err := logging.New(logging.Options{
		Level:   opts.logLevel,
		Format:  opts.logFormat,
		Writer:  stderr,
		NoColor: opts.noColor,
		RunID:   runID,
	})
	if err != nil {
		return err
	}
	log.Debug().Str("action", action.String()).Msg("loading configuration")
	fail := func(err error, msg string) error {
		log.Error().Err(err).Msg(msg)
		return &reportedError{err: fmt.Errorf("%s: %w", msg, err)}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fail(err, "failed to load configuration")
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}
	log, err = logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Writer:  stderr,
		NoColor: opts.noColor,
		RunID:   runID,
	})
	if err != nil {
		return fail(err, "failed to configure logging")
	}

	switch {
	case action.NeedsDate() && date == "":
		log.Warn().Str("action", action.String()).Msg("no --date given; nothing will match")
	case !action.NeedsDate() && date != "":
		log.Debug().Str("date", date).Msg("--date is ignored by sync")
	}

	archive, err := storage.Open(cfg.DownloadPath, cfg.CreateDownloadDir)
	if err != nil {
		return fail(err, "failed to open download directory")
	}
	if err := archive.Lock(lockTimeout); err != nil {
		return fail(err, "another run is using "+archive.Dir())
	}
	defer archive.Unlock()

	hc := bhttp.New(httpConfig(cfg))
	defer hc.Close()

	client := birdsy.New(birdsy.Options{
		BaseURL:         cfg.BaseURL,
		HTTP:            hc,
		MaxPageAttempts: cfg.MaxPageAttempts,
		Logger:          log,
	})

	token, err := client.Authenticate(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return fail(err, "failed to authenticate")
	}
	log.Debug().Msg("authenticated")

	runner := archiver.New(archiver.Options{
		Catalog:  client,
		Archive:  archive,
		Token:    token,
		Printer:  archiver.NewPrinter(stdout, opts.noColor),
		Logger:   log,
		FailFast: cfg.FailFast,
	})

	rep, err := runner.Run(ctx, action, date)
	if rep != nil {
		logReport(log, rep, err)
	}
	if err != nil {
		return fail(err, action.String()+" failed")
	}
	return nil
}

func httpConfig(cfg *config.Config) *bhttp.Config {
	hc := bhttp.DefaultConfig()
	hc.Timeout = cfg.RequestTimeout
	hc.StreamTimeout = cfg.DownloadTimeout
	// The API host gets its own pace; the CDN hosts serving artifacts share
	// the default one.
	hc.RateLimiter.RPS = cfg.ArtifactRequestsPerSecond
	hc.RateLimiter.CustomRates = map[string]float64{
		bhttp.HostOf(cfg.BaseURL): cfg.RequestsPerSecond,
	}
	return hc
}

func logReport(log zerolog.Logger, rep *archiver.Report, err error) {
	ev := log.Info()
	if err != nil || rep.Failures > 0 {
		ev = log.Warn()
	}
	ev.EmbedObject(rep).Msg("run finished")
}
