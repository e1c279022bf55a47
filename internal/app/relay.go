package app

import (
	"context"
	"fmt"

	"github.com/relaydesk-hq/airtable-delete-relay/internal/config"
	"github.com/relaydesk-hq/airtable-delete-relay/internal/logger"
	"github.com/relaydesk-hq/airtable-delete-relay/internal/server"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/airtable"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/sinks"
)

// Relay wires together the Airtable client, the optional audit sinks, and the
// HTTP server.
type Relay struct {
	cfg    *config.Config
	server *server.Server
	log    logger.Logger
}

// NewRelay builds the relay runtime from config.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := airtable.New(airtable.ClientConfig{
		BaseURL: cfg.AirtableAPIURL,
		Token:   cfg.AirtablePAT,
		Timeout: cfg.AirtableTimeout,
	}, nil, log)
	if err != nil {
		return nil, fmt.Errorf("init airtable client: %w", err)
	}
	log.InfoObj("airtable client initialized", "airtable_target", map[string]any{
		"api_url": cfg.AirtableAPIURL,
		"base_id": cfg.AirtableBaseID,
		"table":   cfg.AirtableTableName,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(cfg, client, fanout, log)
	if err != nil {
		return nil, fmt.Errorf("init server: %w", err)
	}

	return &Relay{cfg: cfg, server: srv, log: log}, nil
}

// buildFanout loads and instantiates audit sinks when a sinks file is
// configured; without one the relay emits no events.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*sinks.Fanout, error) {
	if cfg.SinksFile == "" {
		return nil, nil
	}

	sinkReg, err := sinks.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}

	enabled := sinkReg.Enabled()
	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, sinkCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})

	return sinks.NewFanout(built), nil
}

// Run serves HTTP until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.server == nil {
		return fmt.Errorf("relay is not initialized")
	}
	return r.server.Run(ctx)
}
