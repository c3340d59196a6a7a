// Package commands implements boardctl, a terminal client for boards: it
// reads boards through the API, mutates them through the optimistic engine
// and administers the database behind the API.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"orderlyflow/internal/apperr"
	"orderlyflow/internal/client"
	"orderlyflow/internal/config"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/metrics"
	"orderlyflow/internal/optimistic"

	"github.com/spf13/cobra"
)

type options struct {
	apiURL      string
	token       string
	boardID     string
	timeout     time.Duration
	pushgateway string
}

// session is what a board command works with.
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	client *client.Client
	sync   *metrics.Sync
	out    io.Writer
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Work with Orderly Flow boards from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base URL (default from ORDERLY_API_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (default from ORDERLY_TOKEN)")
	root.PersistentFlags().StringVarP(&opts.boardID, "board", "b", "", "board id")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-action timeout (default from SYNC_TIMEOUT)")
	root.PersistentFlags().StringVar(&opts.pushgateway, "pushgateway", "", "Pushgateway URL for sync metrics (default from ORDERLY_PUSHGATEWAY_URL)")

	root.AddCommand(
		newBoardsCommand(opts),
		newShowCommand(opts),
		newBriefCommand(opts),
		newImportCommand(opts),
		newGroupCommand(opts),
		newItemCommand(opts),
		newSubitemCommand(opts),
		newColumnCommand(opts),
		newPersonCommand(opts),
		newUpdatesCommand(opts),
		newMigrateCommand(),
		newSeedCommand(),
	)
	return root
}

func newSession(cmd *cobra.Command, opts *options) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Logger.Output = "stderr"
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.Sync.APIURL = opts.apiURL
	}
	if opts.token != "" {
		cfg.Sync.Token = opts.token
	}
	if opts.timeout > 0 {
		cfg.Sync.Timeout = opts.timeout
	}
	if opts.pushgateway != "" {
		cfg.Sync.PushgatewayURL = opts.pushgateway
	}
	return &session{
		cfg:    cfg,
		log:    log,
		client: client.New(cfg.Sync.APIURL, cfg.Sync.Token, client.WithLogger(log)),
		sync:   metrics.NewSync(),
		out:    cmd.OutOrStdout(),
	}, nil
}

// pushMetrics sends the session's sync counters to the Pushgateway when one
// is configured. A failed push is logged and does not fail the command.
func (s *session) pushMetrics(ctx context.Context) {
	if s.cfg.Sync.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Sync.Timeout)
	defer cancel()
	if err := s.sync.Push(ctx, s.cfg.Sync.PushgatewayURL, "boardctl"); err != nil {
		s.log.WithError(err).Warnw("Failed to push sync metrics", "url", s.cfg.Sync.PushgatewayURL)
	}
}

// engine loads the board named by --board and wraps it in a sync engine
// that reports rollbacks on stderr.
func (s *session) engine(ctx context.Context, cmd *cobra.Command, boardID string) (*optimistic.Engine, error) {
	if boardID == "" {
		return nil, fmt.Errorf("--board is required")
	}
	b, err := s.client.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	errOut := cmd.ErrOrStderr()
	return optimistic.New(b, s.client,
		optimistic.WithTimeout(s.cfg.Sync.Timeout),
		optimistic.WithLogger(s.log),
		optimistic.WithMetrics(s.sync),
		optimistic.WithNotifier(optimistic.NotifierFunc(func(n optimistic.Notice) {
			fmt.Fprintf(errOut, "rolled back %s: %s\n", n.Kind, n.Message)
		})),
	), nil
}

// boardCommand builds a command that runs fn against a loaded engine.
func boardCommand(opts *options, cmd *cobra.Command, fn func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error) *cobra.Command {
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, opts)
		if err != nil {
			return err
		}
		defer s.log.Close()
		ctx := cmd.Context()
		e, err := s.engine(ctx, cmd, opts.boardID)
		if err != nil {
			return err
		}
		defer s.pushMetrics(ctx)
		return userError(fn(ctx, s, e, args))
	}
	return cmd
}

// userError strips wrapping from store errors so the message reads like the
// notice the engine printed.
func userError(err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return errors.New(apperr.Notice(err))
	}
	return err
}
