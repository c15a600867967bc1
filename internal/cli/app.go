package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/gateway"
	"github.com/approvalflow/workflow-client/internal/session"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/config"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
	"github.com/approvalflow/workflow-client/internal/system/log"
	"github.com/approvalflow/workflow-client/internal/workspace"
)

// app wires the session, gateway and workspace for one command run
type app struct {
	config    *config.Config
	logger    *logrus.Logger
	client    *gateway.Client
	session   *session.Service
	workspace *workspace.Workspace
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger, err := log.Init(config.LoggingConfig{Level: level, Format: "text", Output: cfg.Logging.Output})
	if err != nil {
		return nil, err
	}

	store, err := session.NewFileStore(cfg.Session.File, cfg.Session.LockTimeout)
	if err != nil {
		return nil, err
	}

	holder := session.NewHolder()
	client := gateway.NewClient(&cfg.Gateway, nil, holder, logger)
	svc := session.NewService(holder, store, client, logger)

	return &app{
		config:    cfg,
		logger:    logger,
		client:    client,
		session:   svc,
		workspace: workspace.New(svc, client, cfg.Requests, logger),
	}, nil
}

// Close releases idle gateway connections
func (a *app) Close() {
	a.client.Close()
}

// restore loads the persisted session; every command except login needs one
func (a *app) restore(ctx context.Context) (*sessionmodel.Identity, error) {
	identity, svcErr := a.session.Restore(ctx)
	if svcErr != nil {
		if svcErr.Is(serviceerror.AuthenticationLostError) {
			return nil, fmt.Errorf("%s (run reqctl login)", svcErr.ErrorDescription)
		}
		return nil, asError(svcErr)
	}
	return identity, nil
}

// load restores the session and fetches the working set
func (a *app) load(ctx context.Context) (*sessionmodel.Identity, error) {
	identity, err := a.restore(ctx)
	if err != nil {
		return nil, err
	}
	if _, svcErr := a.workspace.Refresh(ctx); svcErr != nil {
		return nil, asError(svcErr)
	}
	return identity, nil
}

// asError renders a service error for the terminal
func asError(svcErr *serviceerror.ServiceError) error {
	if svcErr == nil {
		return nil
	}
	if len(svcErr.FieldErrors) == 0 {
		if svcErr.ErrorDescription == "" {
			return errors.New(svcErr.Error)
		}
		return errors.New(svcErr.ErrorDescription)
	}

	fields := make([]string, 0, len(svcErr.FieldErrors))
	for field := range svcErr.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, field+": "+svcErr.FieldErrors[field])
	}
	return fmt.Errorf("%s (%s)", svcErr.ErrorDescription, strings.Join(details, "; "))
}
