package messaging

import (
	"context"

	"penpal/models"
)

// SendLetter stores and schedules a letter
func (c *Client) SendLetter(ctx context.Context, req models.SendLetterRequest) (*models.SendLetterResponse, error) {
	var resp models.SendLetterResponse
	if err := c.Post(ctx, "/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PageLetters fetches one cursor page of a conversation
func (c *Client) PageLetters(ctx context.Context, req models.PageLettersRequest) (*models.PageLettersResponse, error) {
	var resp models.PageLettersResponse
	if err := c.Post(ctx, "/messages/page", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchUsers lists pen pals, each with the latest letter exchanged
func (c *Client) SearchUsers(ctx context.Context, req models.SearchUsersRequest) (*models.SearchUsersResponse, error) {
	var resp models.SearchUsersResponse
	if err := c.Post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncProfile creates or fetches the profile of an identity-provider user.
// It is served by the core service, so call it on a client built for that
// base URL.
func (c *Client) SyncProfile(ctx context.Context, req models.ProfileSyncRequest) (*models.Profile, error) {
	var resp models.Profile
	if err := c.Post(ctx, "/profiles/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
