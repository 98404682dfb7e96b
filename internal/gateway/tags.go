package gateway

import (
	"context"
	"net/http"
)

// FetchTags retrieves the full tag snapshot for the owner. Malformed
// records are logged and skipped; they never abort the fetch.
func (c *Client) FetchTags(ctx context.Context) ([]RemoteTag, error) {
	var raw []RemoteTag
	if err := c.doJSON(ctx, http.MethodGet, keyTags, c.userPath("tags"), nil, &raw); err != nil {
		return nil, err
	}

	tags := make([]RemoteTag, 0, len(raw))
	for _, t := range raw {
		if err := c.validate.Struct(t); err != nil {
			c.logger.Warn("skipping malformed remote tag", "id", t.ID, "error", err)
			continue
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// CreateTag pushes a locally created tag and returns the bound remote
// record, including its server-assigned identifier.
func (c *Client) CreateTag(ctx context.Context, body TagCreate) (*RemoteTag, error) {
	var created RemoteTag
	if err := c.doJSON(ctx, http.MethodPost, keyTags, c.userPath("tags"), body, &created); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(created); err != nil {
		return nil, wrapDecoding(err, "create tag response")
	}
	return &created, nil
}

// DeleteTag removes a tag from the backend.
func (c *Client) DeleteTag(ctx context.Context, backendID string) error {
	return c.doJSON(ctx, http.MethodDelete, keyTags, c.userPath("tags", backendID), nil, nil)
}
