package config

import (
	"fmt"

	"github.com/jlfwebstudio/tabela-node-backend/internal/core"
	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

// Schema builds the service-order schema for these settings, merging in the
// aliases file when one is configured.
func (c *IngestConfig) Schema() (*schema.Schema, error) {
	mode, err := c.NationalID()
	if err != nil {
		return nil, fmt.Errorf("INGEST_NATIONAL_ID_MODE: %w", err)
	}

	s := schema.ServiceOrders(mode)
	if c.AliasesFile == "" {
		return s, nil
	}

	extra, err := schema.LoadAliasFile(c.AliasesFile)
	if err != nil {
		return nil, fmt.Errorf("INGEST_ALIASES_FILE: %w", err)
	}
	s, err = s.WithAliases(extra)
	if err != nil {
		return nil, fmt.Errorf("INGEST_ALIASES_FILE: %w", err)
	}
	return s, nil
}

// Pipeline builds a conversion pipeline for these settings.
func (c *IngestConfig) Pipeline() (*core.Pipeline, error) {
	s, err := c.Schema()
	if err != nil {
		return nil, err
	}
	opts, err := c.PipelineOptions()
	if err != nil {
		return nil, err
	}
	return core.NewPipeline(s, opts), nil
}
