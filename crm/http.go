// ABOUTME: HTTP adapter for a Pipedrive-style remote CRM REST API
// ABOUTME: Handles auth, the success/data envelope and error mapping
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const maxResponseBytes = 4 << 20

// HTTPClient implements Client over the remote REST API.
type HTTPClient struct {
	baseURL  string
	apiToken string
	http     *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client from cfg. An access token is sent as an OAuth2
// bearer token; otherwise the API token goes in the api_token query parameter.
func NewHTTPClient(cfg *Config) (*HTTPClient, error) {
	if cfg == nil || !cfg.IsConfigured() {
		return nil, fmt.Errorf("crm is not configured. Run 'leadsync sync login' or set LEADSYNC_CRM_API_TOKEN")
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}

	if cfg.AccessToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		})
		c.http = oauth2.NewClient(context.Background(), src)
	} else {
		c.apiToken = cfg.APIToken
		c.http = &http.Client{}
	}
	c.http.Timeout = cfg.Timeout

	return c, nil
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error,omitempty"`
	ErrorInfo string          `json:"error_info,omitempty"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.apiToken != "" {
		query.Set("api_token", c.apiToken)
	}

	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

type idData struct {
	ID int64 `json:"id"`
}

// FindPersonByEmail searches persons by exact email.
func (c *HTTPClient) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	query := url.Values{}
	query.Set("term", email)
	query.Set("fields", "email")
	query.Set("exact_match", "true")

	var data struct {
		Items []struct {
			Item struct {
				ID           int64  `json:"id"`
				Name         string `json:"name"`
				Organization *struct {
					ID int64 `json:"id"`
				} `json:"organization"`
			} `json:"item"`
		} `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/persons/search", query, nil, &data); err != nil {
		return nil, err
	}
	if len(data.Items) == 0 {
		return nil, nil
	}

	item := data.Items[0].Item
	person := &Person{ID: item.ID, Name: item.Name}
	if item.Organization != nil {
		orgID := item.Organization.ID
		person.OrgID = &orgID
	}
	return person, nil
}

// FindUserByEmail looks up a remote user (owner) by email.
func (c *HTTPClient) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query := url.Values{}
	query.Set("term", email)
	query.Set("search_by_email", "1")

	var users []User
	if err := c.do(ctx, http.MethodGet, "/v1/users/find", query, nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

func (c *HTTPClient) CreatePerson(ctx context.Context, fields PersonFields) (int64, error) {
	var data idData
	if err := c.do(ctx, http.MethodPost, "/v1/persons", nil, fields, &data); err != nil {
		return 0, err
	}
	if data.ID == 0 {
		return 0, &APIError{StatusCode: http.StatusOK, Message: "person created without id"}
	}
	return data.ID, nil
}

func (c *HTTPClient) CreateOrganization(ctx context.Context, fields OrganizationFields) (int64, error) {
	var data idData
	if err := c.do(ctx, http.MethodPost, "/v1/organizations", nil, fields, &data); err != nil {
		return 0, err
	}
	if data.ID == 0 {
		return 0, &APIError{StatusCode: http.StatusOK, Message: "organization created without id"}
	}
	return data.ID, nil
}

func (c *HTTPClient) GetPersonFields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := c.do(ctx, http.MethodGet, "/v1/personFields", nil, nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

type activityRequest struct {
	Subject  string `json:"subject"`
	Type     string `json:"type,omitempty"`
	Done     int    `json:"done"`
	DueDate  string `json:"due_date,omitempty"`
	PersonID int64  `json:"person_id"`
	OrgID    *int64 `json:"org_id,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (c *HTTPClient) CreateActivity(ctx context.Context, payload ActivityPayload) (int64, error) {
	req := activityRequest{
		Subject:  payload.Subject,
		Type:     payload.Type,
		DueDate:  payload.DueDate,
		PersonID: payload.Contact.PersonID,
		OrgID:    payload.Contact.OrgID,
		Note:     ActivityNote(payload),
	}
	if payload.Done {
		req.Done = 1
	}

	var data idData
	if err := c.do(ctx, http.MethodPost, "/v1/activities", nil, req, &data); err != nil {
		return 0, err
	}
	if data.ID == 0 {
		return 0, &APIError{StatusCode: http.StatusOK, Message: "activity created without id"}
	}
	return data.ID, nil
}

// ActivityNote renders the note body with the user and campaign display blocks.
func ActivityNote(p ActivityPayload) string {
	var lines []string
	if p.Note != "" {
		lines = append(lines, p.Note)
	}
	if p.User.Name != "" || p.User.Email != "" {
		who := p.User.Name
		if p.User.Email != "" {
			who = strings.TrimSpace(who + " <" + p.User.Email + ">")
		}
		lines = append(lines, "Logged by "+who)
	}
	if p.Campaign != nil {
		lines = append(lines, "Campaign: "+p.Campaign.Name+" ["+p.Campaign.Shortcode+"]")
	}
	return strings.Join(lines, "\n")
}
