package gateway

import (
	"context"
	"net/http"
)

// CreateUsageEntry pushes one locally logged usage entry under a bound
// product and returns the bound remote record.
func (c *Client) CreateUsageEntry(ctx context.Context, productBackendID string, body UsageEntryCreate) (*RemoteUsageEntry, error) {
	var created RemoteUsageEntry
	path := c.userPath("products", productBackendID, "usages")
	if err := c.doJSON(ctx, http.MethodPost, keyUsage, path, body, &created); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(created); err != nil {
		return nil, wrapDecoding(err, "create usage entry response")
	}
	return &created, nil
}

// CreateJourneyEvent pushes one locally authored journey event under a
// bound product and returns the bound remote record.
func (c *Client) CreateJourneyEvent(ctx context.Context, productBackendID string, body JourneyEventCreate) (*RemoteJourneyEvent, error) {
	var created RemoteJourneyEvent
	path := c.userPath("products", productBackendID, "journey-events")
	if err := c.doJSON(ctx, http.MethodPost, keyJourney, path, body, &created); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(created); err != nil {
		return nil, wrapDecoding(err, "create journey event response")
	}
	return &created, nil
}
