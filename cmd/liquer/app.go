package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orest-d/liquer/internal/config"
	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/history"
	"github.com/orest-d/liquer/internal/httpclient"
	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/logging"
	"github.com/orest-d/liquer/internal/poller"
	"github.com/orest-d/liquer/internal/render"
	"github.com/orest-d/liquer/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// app holds everything a command needs once the profile is resolved.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile string
	format  string

	profile  config.Profile
	logger   *zap.Logger
	closeLog func() error
	tracer   telemetry.Instrumenter
	client   *liquer.Client
	history  *history.Store

	// getenv is swapped in tests.
	getenv func(string) string
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.getenv == nil {
		a.getenv = os.Getenv
	}
	if _, err := render.ParseFormat(a.format); err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "invalid --format")
	}

	profile, err := config.LoadProfile(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.profile = profile

	logger, closeLog, err := logging.New(logging.Options{File: profile.Log.File, Level: profile.Log.Level})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeLog

	tcfg := telemetry.ConfigFromEnv(a.getenv)
	tcfg.Version = version
	tracer, err := telemetry.New(tcfg)
	if err != nil {
		logger.Warn("telemetry init failed", zap.Error(err))
		tracer = telemetry.Noop()
	}
	a.tracer = tracer

	hc := httpclient.NewClient(httpclient.Options{
		Timeout:            profile.Timeout,
		FollowRedirects:    true,
		InsecureSkipVerify: profile.Insecure,
		ProxyURL:           profile.Proxy,
	})
	hc.SetTelemetry(tracer)
	a.client = liquer.NewClient(profile.Server, profile.Endpoints, hc, liquer.WithLogger(logger.Named("client")))
	a.history = history.NewStore(config.HistoryPath(), profile.HistorySize)

	logger.Info("profile loaded",
		zap.String("server", profile.Server),
		zap.String("source", profile.Source),
		zap.String("command", cmd.Name()))
	return nil
}

// teardown flushes telemetry and the log. It is safe to call when setup
// never ran.
func (a *app) teardown() error {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.tracer.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("telemetry shutdown", zap.Error(err))
		}
		cancel()
		a.tracer = nil
	}
	if a.closeLog != nil {
		err := a.closeLog()
		a.closeLog = nil
		return err
	}
	return nil
}

func (a *app) outputFormat() render.Format {
	f, err := render.ParseFormat(a.format)
	if err != nil {
		return render.FormatTable
	}
	return f
}

func (a *app) newPoller(opts ...poller.Option) *poller.Poller {
	base := []poller.Option{
		poller.WithInterval(a.profile.PollInterval),
		poller.WithLogger(a.logger.Named("poller")),
		poller.WithFinishHook(a.recordVisit),
	}
	return poller.New(a.client, append(base, opts...)...)
}

// recordVisit appends a finished navigation to the history. External links
// never reach the server and are not recorded.
func (a *app) recordVisit(v poller.View) {
	if a.history == nil {
		return
	}
	if v.ContentPath == "" && v.Mode == poller.ModeIframe && v.ExternalLink != "" {
		return
	}
	entry := history.Entry{
		Server:   a.profile.Server,
		Query:    v.Query,
		Mode:     string(v.Mode),
		Message:  v.Message,
		Polls:    v.Polls,
		Duration: v.Duration(),
		Failed:   v.Phase == poller.PhaseFailed,
	}
	if v.Metadata != nil {
		entry.Status = string(v.Metadata.Status)
		entry.TypeIdentifier = v.Metadata.TypeIdentifier
	}
	if v.State != nil && v.State.TypeIdentifier != "" {
		entry.TypeIdentifier = v.State.TypeIdentifier
	}
	if _, err := a.history.Append(entry); err != nil {
		a.logger.Warn("history append failed", zap.Error(err))
	}
}

// waitDone blocks until the current navigation of p finishes. onChange, if
// set, sees every intermediate view.
func waitDone(ctx context.Context, p *poller.Poller, onChange func(poller.View)) (poller.View, error) {
	for {
		v := p.Snapshot()
		if onChange != nil {
			onChange(v)
		}
		if v.Phase.Done() {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-p.Changes():
		}
	}
}
