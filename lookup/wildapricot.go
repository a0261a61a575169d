package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// WildApricotConfig holds the membership API settings.
type WildApricotConfig struct {
	APIURL             string `yaml:"api_url"`
	TokenURL           string `yaml:"token_url"`
	APIKey             string `yaml:"api_key"`
	RFIDField          string `yaml:"rfid_field"`
	FirstNameField     string `yaml:"first_name_field"`
	PreferredNameField string `yaml:"preferred_name_field"`
}

func (c WildApricotConfig) withDefaults() WildApricotConfig {
	if c.APIURL == "" {
		c.APIURL = "https://api.wildapricot.org"
	}
	if c.TokenURL == "" {
		c.TokenURL = "https://oauth.wildapricot.org/auth/token"
	}
	if c.RFIDField == "" {
		c.RFIDField = "custom-9894255"
	}
	if c.FirstNameField == "" {
		c.FirstNameField = "FirstName"
	}
	if c.PreferredNameField == "" {
		c.PreferredNameField = "custom-17061153"
	}
	return c
}

// HTTPClient returns a client that authenticates with the API key and
// refreshes its bearer token as needed.
func (c WildApricotConfig) HTTPClient(ctx context.Context) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     "APIKEY",
		ClientSecret: c.APIKey,
		TokenURL:     c.TokenURL,
		Scopes:       []string{"auto"},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return cc.Client(ctx)
}

// WildApricot looks tags up in the member database.
type WildApricot struct {
	client *http.Client
	cfg    WildApricotConfig
	log    *zap.SugaredLogger

	mu          sync.Mutex
	contactsURL string
}

// NewWildApricot creates a directory using an already authenticated client.
func NewWildApricot(client *http.Client, cfg WildApricotConfig) *WildApricot {
	return &WildApricot{
		client: client,
		cfg:    cfg.withDefaults(),
		log:    zap.S().Named("wildapricot"),
	}
}

type account struct {
	ID        int64 `json:"Id"`
	Resources []struct {
		Name string `json:"Name"`
		URL  string `json:"Url"`
	} `json:"Resources"`
}

type fieldValue struct {
	FieldName  string          `json:"FieldName"`
	SystemCode string          `json:"SystemCode"`
	Value      json.RawMessage `json:"Value"`
}

type contact struct {
	ID          int64        `json:"Id"`
	FieldValues []fieldValue `json:"FieldValues"`
}

type contactsResponse struct {
	Contacts []contact `json:"Contacts"`
}

// Lookup implements Directory. The preferred name wins over the first name.
func (w *WildApricot) Lookup(ctx context.Context, tag string) (string, bool, error) {
	contactsURL, err := w.contacts(ctx)
	if err != nil {
		return "", false, err
	}

	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("substringof('%s', '%s')", w.cfg.RFIDField, quote(tag)))
	params.Set("$async", "false")

	var resp contactsResponse
	if err := w.get(ctx, contactsURL+"?"+params.Encode(), &resp); err != nil {
		return "", false, fmt.Errorf("query contacts: %w", err)
	}

	if len(resp.Contacts) != 1 {
		w.log.Warnf("RFID tag %s not found or multiple matches (%d)", tag, len(resp.Contacts))
		return "", false, nil
	}

	c := resp.Contacts[0]
	if name := c.field(w.cfg.PreferredNameField); name != "" {
		return name, true, nil
	}
	if name := c.field(w.cfg.FirstNameField); name != "" {
		return name, true, nil
	}

	w.log.Warnf("No name on record for member with RFID tag %s", tag)
	return "", false, nil
}

// contacts resolves the contacts resource of the first account once per
// client.
func (w *WildApricot) contacts(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.contactsURL != "" {
		return w.contactsURL, nil
	}

	var accounts []account
	if err := w.get(ctx, strings.TrimSuffix(w.cfg.APIURL, "/")+"/v2/accounts/", &accounts); err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("list accounts: no accounts for this API key")
	}
	for _, res := range accounts[0].Resources {
		if res.Name == "Contacts" {
			w.contactsURL = strings.TrimSuffix(res.URL, "/")
			return w.contactsURL, nil
		}
	}
	return "", fmt.Errorf("account %d has no Contacts resource", accounts[0].ID)
}

func (w *WildApricot) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

// field returns a string field value by system code. Non-string values read
// as empty.
func (c contact) field(code string) string {
	for _, fv := range c.FieldValues {
		if fv.SystemCode != code {
			continue
		}
		var s string
		if err := json.Unmarshal(fv.Value, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	return ""
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
