// Package client talks to the entity store HTTP API on behalf of the board
// client: the sync engine's remote, the update threads' store and plain reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/apperr"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/optimistic"
	"orderlyflow/internal/thread"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRPS     = 20.0
	defaultBurst   = 40
)

var (
	_ optimistic.Remote = (*Client)(nil)
	_ thread.Store      = (*Client)(nil)
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = logger.Or(l).WithComponent("client") }
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api", authenticating with a bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func path(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}

// do sends one request and decodes a 2xx body into out when out is non-nil.
// Non-2xx answers become *apperr.Error with the server's {error} message.
func (c *Client) do(ctx context.Context, method, p string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return transportError(ctx, fmt.Errorf("rate limit wait: %w", err))
	}

	u := c.baseURL + "/" + p
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.CodeValidation, "encode request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debugw("store request", "method", method, "path", p)
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return apperr.New(apperr.FromStatus(resp.StatusCode), msg)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "decode response", err)
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Wrap(apperr.CodeTimeout, "request timed out", err)
	}
	return apperr.Wrap(apperr.CodeUnavailable, "store unreachable", err)
}

// Boards

func (c *Client) ListBoards(ctx context.Context) ([]board.Board, error) {
	var res api.BoardsResponse
	if err := c.do(ctx, http.MethodGet, "boards", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Boards, nil
}

// GetBoard loads a board with its groups, items, subitems and people.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*board.Board, error) {
	var res api.BoardResponse
	if err := c.do(ctx, http.MethodGet, path("boards", boardID), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.Board, nil
}

func (c *Client) CreateBoard(ctx context.Context, req api.CreateBoardRequest) (*board.Board, error) {
	var res api.BoardResponse
	if err := c.do(ctx, http.MethodPost, "boards", nil, req, &res); err != nil {
		return nil, err
	}
	return &res.Board, nil
}

func (c *Client) UpdateBoard(ctx context.Context, boardID string, req api.UpdateBoardRequest) error {
	return c.do(ctx, http.MethodPatch, path("boards", boardID), nil, req, nil)
}

func (c *Client) DeleteBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, http.MethodDelete, path("boards", boardID), nil, nil, nil)
}

// Groups

func (c *Client) ListGroups(ctx context.Context, boardID string) ([]board.Group, error) {
	var res api.GroupsResponse
	if err := c.do(ctx, http.MethodGet, path("boards", boardID, "groups"), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Groups, nil
}

func (c *Client) CreateGroup(ctx context.Context, boardID string, req api.CreateGroupRequest) error {
	return c.do(ctx, http.MethodPost, path("boards", boardID, "groups"), nil, req, nil)
}

func (c *Client) UpdateGroup(ctx context.Context, boardID, groupID string, req api.UpdateGroupRequest) error {
	return c.do(ctx, http.MethodPatch, path("boards", boardID, "groups", groupID), nil, req, nil)
}

func (c *Client) DeleteGroup(ctx context.Context, boardID, groupID string) error {
	return c.do(ctx, http.MethodDelete, path("boards", boardID, "groups", groupID), nil, nil, nil)
}

// Items

func (c *Client) ListItems(ctx context.Context, boardID string) ([]board.Item, error) {
	var res api.ItemsResponse
	if err := c.do(ctx, http.MethodGet, path("boards", boardID, "items"), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *Client) CreateItem(ctx context.Context, boardID string, req api.CreateItemRequest) error {
	return c.do(ctx, http.MethodPost, path("boards", boardID, "items"), nil, req, nil)
}

func (c *Client) UpdateItem(ctx context.Context, boardID, itemID string, req api.UpdateItemRequest) error {
	return c.do(ctx, http.MethodPatch, path("boards", boardID, "items", itemID), nil, req, nil)
}

func (c *Client) DeleteItem(ctx context.Context, boardID, itemID string) error {
	return c.do(ctx, http.MethodDelete, path("boards", boardID, "items", itemID), nil, nil, nil)
}

// Subitems

func (c *Client) ListSubitems(ctx context.Context, boardID string) ([]board.Subitem, error) {
	var res api.SubitemsResponse
	if err := c.do(ctx, http.MethodGet, path("boards", boardID, "subitems"), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Subitems, nil
}

func (c *Client) CreateSubitem(ctx context.Context, boardID string, req api.CreateSubitemRequest) error {
	return c.do(ctx, http.MethodPost, path("boards", boardID, "subitems"), nil, req, nil)
}

func (c *Client) UpdateSubitem(ctx context.Context, boardID, subitemID string, req api.UpdateSubitemRequest) error {
	return c.do(ctx, http.MethodPatch, path("boards", boardID, "subitems", subitemID), nil, req, nil)
}

func (c *Client) DeleteSubitem(ctx context.Context, boardID, subitemID string) error {
	return c.do(ctx, http.MethodDelete, path("boards", boardID, "subitems", subitemID), nil, nil, nil)
}

// People

func (c *Client) ListPeople(ctx context.Context, boardID string) ([]board.Person, error) {
	var res []board.Person
	if err := c.do(ctx, http.MethodGet, path("boards", boardID, "people"), nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) CreatePerson(ctx context.Context, boardID string, req api.CreatePersonRequest) error {
	return c.do(ctx, http.MethodPost, path("boards", boardID, "people"), nil, req, nil)
}

func (c *Client) UpdatePerson(ctx context.Context, boardID, personID string, req api.UpdatePersonRequest) (board.Person, error) {
	var p board.Person
	err := c.do(ctx, http.MethodPatch, path("boards", boardID, "people", personID), nil, req, &p)
	return p, err
}

func (c *Client) DeletePerson(ctx context.Context, boardID, personID string) error {
	return c.do(ctx, http.MethodDelete, path("boards", boardID, "people", personID), nil, nil, nil)
}

func (c *Client) ListMembers(ctx context.Context, organizationID string) ([]api.Member, error) {
	var res []api.Member
	if err := c.do(ctx, http.MethodGet, path("organizations", organizationID, "members"), nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Updates

func threadQuery(boardID, entityID string, t board.EntityType) url.Values {
	return url.Values{"boardId": {boardID}, "itemId": {entityID}, "itemType": {string(t)}}
}

func (c *Client) ListUpdates(ctx context.Context, boardID, entityID string, t board.EntityType) ([]api.Update, error) {
	var res api.UpdatesResponse
	if err := c.do(ctx, http.MethodGet, "updates", threadQuery(boardID, entityID, t), nil, &res); err != nil {
		return nil, err
	}
	return res.Updates, nil
}

func (c *Client) PostUpdate(ctx context.Context, req api.CreateUpdateRequest) (api.Update, error) {
	var res api.UpdateResponse
	if err := c.do(ctx, http.MethodPost, "updates", nil, req, &res); err != nil {
		return api.Update{}, err
	}
	return res.Update, nil
}

func (c *Client) DeleteUpdate(ctx context.Context, updateID string) error {
	return c.do(ctx, http.MethodDelete, "updates", url.Values{"updateId": {updateID}}, nil, nil)
}

func (c *Client) CountUpdates(ctx context.Context, boardID, entityID string, t board.EntityType) (int64, error) {
	var res api.UpdateCountResponse
	if err := c.do(ctx, http.MethodGet, "updates/count", threadQuery(boardID, entityID, t), nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}
