// ABOUTME: Typed RSS API calls and response models built on the base client
// ABOUTME: Covers login, feed listing, item detail, marking read and feed management

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// API paths
const (
	PathRequestOTP   = "/api/request_otp"
	PathLogin        = "/api/login"
	PathRefreshToken = "/api/refresh_token"
	PathFeedTree     = "/feeds/tree.json"
	PathAllFeeds     = "/feeds/all.json"
	PathCreateFeed   = "/feeds/create"
)

// ErrInvalidToken is returned when a login response carries no token
var ErrInvalidToken = errors.New("invalid token in response")

// FeedItemsPath lists unread items for a feed
func FeedItemsPath(feedID int64) string { return fmt.Sprintf("/feeds/%d.json", feedID) }

// FeedItemPath fetches a single item
func FeedItemPath(itemID int64) string { return fmt.Sprintf("/feed_items/%d.json", itemID) }

// MarkAsReadPath marks one item read
func MarkAsReadPath(itemID int64) string {
	return fmt.Sprintf("/feed_items/mark_as_read/%d.json", itemID)
}

// MarkItemsAsReadPath marks a batch of a feed's items read
func MarkItemsAsReadPath(feedID int64) string {
	return fmt.Sprintf("/feeds/mark_items_as_read/%d", feedID)
}

// RemoveFeedPath deletes a feed
func RemoveFeedPath(feedID int64) string { return fmt.Sprintf("/feeds/remove/%d", feedID) }

// Feed is a subscribed feed. Count is the unread count and is only set by the tree endpoint.
type Feed struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	URI   string `json:"uri,omitempty"`
	User  string `json:"user,omitempty"`
	Count int    `json:"count,omitempty"`
}

// FeedTreeEntry is one element of /feeds/tree.json
type FeedTreeEntry struct {
	Feed *Feed `json:"feed"`
}

// FeedItem is a single article
type FeedItem struct {
	ID          int64  `json:"id"`
	FeedID      int64  `json:"feed_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Display     bool   `json:"display"`
	Timestamp   string `json:"timestamp,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	Favorite    bool   `json:"favorite"`
	Key         string `json:"key,omitempty"`
	Media       string `json:"media,omitempty"`
}

// NewFeed is the body of a create-feed request
type NewFeed struct {
	URI  string
	Name string
	User string
}

// Form encodes the feed with the server's nested field names
func (f NewFeed) Form() url.Values {
	return url.Values{
		"feed[uri]":  {f.URI},
		"feed[name]": {f.Name},
		"feed[user]": {f.User},
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createFeedResponse struct {
	ID int64 `json:"id"`
}

// RequestOTP asks the server to issue a one-time passcode for username
func (c *Client) RequestOTP(ctx context.Context, username string) error {
	_, err := c.Post(ctx, PathRequestOTP, url.Values{"username": {username}})
	return err
}

// Login exchanges username and OTP for a bearer token
func (c *Client) Login(ctx context.Context, username, otp string) (string, error) {
	body, err := c.Post(ctx, PathLogin, url.Values{"username": {username}, "otp": {otp}})
	if err != nil {
		return "", err
	}
	return parseToken(body)
}

// RefreshToken swaps the stored token for a new one
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	body, err := c.PostWithAuth(ctx, PathRefreshToken, map[string]any{}, ContentJSON)
	if err != nil {
		return "", err
	}
	return parseToken(body)
}

func parseToken(body Body) (string, error) {
	var resp tokenResponse
	if !body.IsJSON() || json.Unmarshal(body, &resp) != nil || resp.Token == "" {
		return "", ErrInvalidToken
	}
	return resp.Token, nil
}

// FeedTree lists subscribed feeds with unread counts
func (c *Client) FeedTree(ctx context.Context) ([]Feed, error) {
	body, err := c.GetWithAuth(ctx, PathFeedTree)
	if err != nil {
		return nil, err
	}
	return DecodeFeedTree(body)
}

// DecodeFeedTree unwraps the {"feed": {...}} entries of a tree response
func DecodeFeedTree(body Body) ([]Feed, error) {
	var entries []FeedTreeEntry
	if err := body.Decode(&entries); err != nil {
		return nil, err
	}
	feeds := make([]Feed, 0, len(entries))
	for _, e := range entries {
		if e.Feed != nil {
			feeds = append(feeds, *e.Feed)
		}
	}
	return feeds, nil
}

// AllFeeds lists every feed for the management view
func (c *Client) AllFeeds(ctx context.Context) ([]Feed, error) {
	return getJSON[[]Feed](ctx, c, PathAllFeeds)
}

// FeedItems lists unread items for a feed
func (c *Client) FeedItems(ctx context.Context, feedID int64) ([]FeedItem, error) {
	return getJSON[[]FeedItem](ctx, c, FeedItemsPath(feedID))
}

// FeedItem fetches one item
func (c *Client) FeedItem(ctx context.Context, itemID int64) (*FeedItem, error) {
	item, err := getJSON[FeedItem](ctx, c, FeedItemPath(itemID))
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	body, err := c.GetWithAuth(ctx, path)
	if err != nil {
		return out, err
	}
	if err := body.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// MarkAsRead marks one item read
func (c *Client) MarkAsRead(ctx context.Context, itemID int64) error {
	_, err := c.GetWithAuth(ctx, MarkAsReadPath(itemID))
	return err
}

// MarkItemsAsRead marks the given items of a feed read. The ids travel as a
// JSON array inside the "items" form field.
func (c *Client) MarkItemsAsRead(ctx context.Context, feedID int64, itemIDs []int64) error {
	if itemIDs == nil {
		itemIDs = []int64{}
	}
	ids, err := json.Marshal(itemIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal item ids: %w", err)
	}
	_, err = c.PostWithAuth(ctx, MarkItemsAsReadPath(feedID), url.Values{"items": {string(ids)}}, ContentForm)
	return err
}

// RemoveFeed deletes a feed
func (c *Client) RemoveFeed(ctx context.Context, feedID int64) error {
	_, err := c.GetWithAuth(ctx, RemoveFeedPath(feedID))
	return err
}

// RemoveFeeds deletes feeds with at most limit requests in flight. Every
// feed is attempted; the first error is returned.
func (c *Client) RemoveFeeds(ctx context.Context, feedIDs []int64, limit int) error {
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range feedIDs {
		g.Go(func() error {
			if err := c.RemoveFeed(ctx, id); err != nil {
				slog.Error("Failed to remove feed", "feed_id", id, "error", err)
				return fmt.Errorf("remove feed %d: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// CreateFeed subscribes to a feed and returns its id. An id of 0 means the
// server did not confirm the subscription.
func (c *Client) CreateFeed(ctx context.Context, feed NewFeed) (int64, error) {
	body, err := c.PostWithAuth(ctx, PathCreateFeed, feed.Form(), ContentForm)
	if err != nil {
		return 0, err
	}
	var resp createFeedResponse
	if err := body.Decode(&resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// ParseID parses a numeric feed or item id from user input
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
