package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/config"
	"example.com/fleetops/services/scheduler/internal/models"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
	log    *logrus.Logger
}

// NewElasticClient creates a new Elasticsearch client. A nil client is
// returned when indexing is disabled in configuration.
func NewElasticClient(cfg config.ElasticConfig, log *logrus.Logger) (*ElasticClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
		log:    log,
	}, nil
}

// IndexDecision indexes an approval or rejection decision for audit search.
// Best effort only: callers log failures and never block the write path on it.
func (c *ElasticClient) IndexDecision(ctx context.Context, shift *models.Shift, actor, decision string) error {
	if c == nil {
		return nil
	}

	c.log.WithFields(logrus.Fields{
		"shift_id": shift.ID.String(),
		"decision": decision,
	}).Info("indexing shift decision")

	doc := map[string]interface{}{
		"shift_id":   shift.ID.String(),
		"driver_id":  shift.DriverID.String(),
		"vehicle_id": shift.VehicleID.String(),
		"shift_date": shift.ShiftDate.Format("2006-01-02"),
		"shift_type": shift.ShiftType,
		"status":     shift.Status,
		"decision":   decision,
		"actor":      actor,
		"decided_at": time.Now().UTC().Format(time.RFC3339),
	}
	if shift.RejectionReason != nil {
		doc["rejection_reason"] = *shift.RejectionReason
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal decision document")
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: fmt.Sprintf("%s-%s", shift.ID.String(), decision),
		Body:       bytes.NewReader(data),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to index decision")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("error indexing decision: %s", res.String())
	}
	return nil
}
