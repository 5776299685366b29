package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/predict"
	"analyzeit.org/internal/stats"
)

const defaultRequestTimeout = 15 * time.Second

// APIError is a GraphQL error surfaced by the server, carrying the stable
// code from the error extensions.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client talks GraphQL to the API server and keeps the session attached.
type Client struct {
	endpoint string
	http     *http.Client
	sessions *SessionManager
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a client for the GraphQL endpoint at endpoint.
func NewClient(endpoint string, sessions *SessionManager, opts ...ClientOption) *Client {
	if sessions == nil {
		sessions = NewSessionManager(nil)
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultRequestTimeout},
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sessions exposes the session manager backing this client.
func (c *Client) Sessions() *SessionManager { return c.sessions }

type wireError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type wireResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []wireError                `json:"errors"`
}

// do posts one GraphQL document and decodes the field named by key.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, key string, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("dashboard: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashboard: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.sessions.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard: unexpected status %d", resp.StatusCode)
	}

	var decoded wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("dashboard: decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		return &APIError{Code: first.Extensions.Code, Message: first.Message}
	}
	raw, ok := decoded.Data[key]
	if !ok || string(raw) == "null" {
		return &APIError{Message: fmt.Sprintf("missing %s in response", key)}
	}
	return json.Unmarshal(raw, out)
}

type authPayload struct {
	Token string           `json:"token"`
	User  *auth.PublicUser `json:"user"`
}

// Login authenticates and installs the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	const query = `mutation ($email: String!, $password: String!) {
		login(email: $email, password: $password) { token user { id_user email nom prenom role created_at } }
	}`
	var payload authPayload
	err := c.do(ctx, query, map[string]any{"email": email, "password": password}, "login", &payload)
	if err != nil {
		return Session{}, err
	}
	return c.sessions.Begin(payload.Token, payload.User)
}

// Register creates an account and installs the resulting session.
func (c *Client) Register(ctx context.Context, email, password, nom, prenom string) (Session, error) {
	const query = `mutation ($email: String!, $password: String!, $nom: String, $prenom: String) {
		register(email: $email, password: $password, nom: $nom, prenom: $prenom) { token user { id_user email nom prenom role created_at } }
	}`
	var payload authPayload
	err := c.do(ctx, query, map[string]any{
		"email": email, "password": password, "nom": nom, "prenom": prenom,
	}, "register", &payload)
	if err != nil {
		return Session{}, err
	}
	return c.sessions.Begin(payload.Token, payload.User)
}

// Logout drops the local session.
func (c *Client) Logout() error {
	return c.sessions.End()
}

// Me refetches the profile for the current session.
func (c *Client) Me(ctx context.Context) (*auth.PublicUser, error) {
	const query = `{ me { id_user email nom prenom role created_at } }`
	var user auth.PublicUser
	if err := c.do(ctx, query, nil, "me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AllPays lists the countries for the selection controls.
func (c *Client) AllPays(ctx context.Context) ([]*stats.Country, error) {
	const query = `{ allPays { id_pays nom_pays } }`
	var out []*stats.Country
	if err := c.do(ctx, query, nil, "allPays", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllVirus lists the viruses for the selection controls.
func (c *Client) AllVirus(ctx context.Context) ([]*stats.Virus, error) {
	const query = `{ allVirus { id_virus nom_virus } }`
	var out []*stats.Virus
	if err := c.do(ctx, query, nil, "allVirus", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Predict runs a forecast query and revalidates the JSON payload into the
// typed document the card layer consumes.
func (c *Client) Predict(ctx context.Context, country, virus, dateStart, dateEnd string) (*predict.Document, error) {
	const query = `query ($country: String!, $virus: String!, $date_start: String!, $date_end: String!) {
		predictPandemic(country: $country, virus: $virus, date_start: $date_start, date_end: $date_end)
	}`
	var raw json.RawMessage
	err := c.do(ctx, query, map[string]any{
		"country":    country,
		"virus":      virus,
		"date_start": dateStart,
		"date_end":   dateEnd,
	}, "predictPandemic", &raw)
	if err != nil {
		return nil, err
	}
	doc, _, err := predict.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("dashboard: invalid prediction payload: %w", err)
	}
	return doc, nil
}
