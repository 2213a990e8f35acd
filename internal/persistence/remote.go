package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solartycoon/internal/domain"
)

const (
	ActionLogin    = "login"
	ActionRegister = "register"
)

// ErrRejected marks a 4xx answer; the server message is appended.
var ErrRejected = errors.New("request rejected")

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AuthResult is the /auth success body. SaveData is nil when the user has
// never saved.
type AuthResult struct {
	User     User            `json:"user"`
	SaveData json.RawMessage `json:"saveData"`
}

type SaveRequest struct {
	UserID    string          `json:"userId"`
	GameState json.RawMessage `json:"gameState"`
}

type AuthRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorBody struct {
	Error string `json:"error"`
}

// RemoteClient talks to the save/auth endpoint.
type RemoteClient struct {
	baseURL string
	http    *http.Client
}

func NewRemoteClient(baseURL string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Save upserts the snapshot for userID. Every failure wraps
// domain.ErrRemoteUnavailable.
func (c *RemoteClient) Save(ctx context.Context, userID string, snapshot []byte) error {
	var out struct {
		Success bool `json:"success"`
	}
	err := c.post(ctx, "/save", SaveRequest{UserID: userID, GameState: snapshot}, &out)
	if err == nil && !out.Success {
		err = errors.New("server did not confirm save")
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	return nil
}

func (c *RemoteClient) Login(ctx context.Context, username, password string) (AuthResult, error) {
	return c.auth(ctx, ActionLogin, username, password)
}

func (c *RemoteClient) Register(ctx context.Context, username, password string) (AuthResult, error) {
	return c.auth(ctx, ActionRegister, username, password)
}

func (c *RemoteClient) auth(ctx context.Context, action, username, password string) (AuthResult, error) {
	var res AuthResult
	err := c.post(ctx, "/auth", AuthRequest{Action: action, Username: username, Password: password}, &res)
	if err != nil {
		return AuthResult{}, err
	}
	if string(res.SaveData) == "null" {
		res.SaveData = nil
	}
	return res, nil
}

func (c *RemoteClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		if eb.Error == "" {
			eb.Error = resp.Status
		}
		if resp.StatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrRejected, eb.Error)
		}
		return fmt.Errorf("%s %s: %s", path, resp.Status, eb.Error)
	}
	return json.Unmarshal(raw, out)
}
