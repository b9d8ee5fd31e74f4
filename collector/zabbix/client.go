// Package zabbix collects the host inventory of a Zabbix server through
// its JSON-RPC API.
package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"f0oster/zbxspy/collector"
	"f0oster/zbxspy/inventory"
)

const (
	jsonrpcVersion = "2.0"
	apiPath        = "api_jsonrpc.php"
)

var _ collector.Source = (*Client)(nil)

// Config carries the connection settings for one Zabbix server.
type Config struct {
	// URL is the server base URL; the API path is appended when missing.
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	// InsecureSkipVerify disables TLS certificate checks, for servers
	// running self-signed certificates.
	InsecureSkipVerify bool
}

// Client is an authenticated API session. It is not safe for concurrent
// use; the pipeline opens one per collection run.
type Client struct {
	url   string
	http  *http.Client
	log   *slog.Logger
	token string
	seq   int
}

// Connect authenticates against the server and returns a live session.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	url := strings.TrimRight(cfg.URL, "/")
	if !strings.HasSuffix(url, apiPath) {
		url += "/" + apiPath
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	c := &Client{
		url:  url,
		http: &http.Client{Timeout: timeout, Transport: transport},
		log:  log,
	}

	var version string
	if err := c.call(ctx, "apiinfo.version", map[string]any{}, &version); err != nil {
		return nil, fmt.Errorf("query api version: %w", err)
	}

	var token string
	params := map[string]any{"username": cfg.Username, "password": cfg.Password}
	if err := c.call(ctx, "user.login", params, &token); err != nil {
		return nil, fmt.Errorf("login as %s: %w", cfg.Username, err)
	}
	c.token = token

	log.Info("connected to zabbix", "url", url, "version", version)
	return c, nil
}

// Hosts returns every enabled host with its main interface address, group
// names and linked template names.
func (c *Client) Hosts(ctx context.Context) ([]inventory.Host, error) {
	params := map[string]any{
		"output":                []string{"hostid", "host", "name"},
		"selectInterfaces":      []string{"ip", "main"},
		"selectGroups":          []string{"groupid", "name"},
		"selectParentTemplates": []string{"templateid", "name"},
		"filter":                map[string]any{"status": 0},
	}

	var raw []apiHost
	if err := c.call(ctx, "host.get", params, &raw); err != nil {
		return nil, fmt.Errorf("fetch hosts: %w", err)
	}

	hosts := make([]inventory.Host, 0, len(raw))
	for _, ah := range raw {
		name := ah.Name
		if name == "" {
			name = ah.Host
		}
		hosts = append(hosts, inventory.Host{
			HostID:    ah.HostID,
			Hostname:  name,
			IPAddress: mainInterfaceIP(ah.Interfaces),
			Groups:    joinNames(groupNames(ah.Groups)),
			Templates: joinNames(templateNames(ah.ParentTemplates)),
		}.Normalized())
	}

	c.log.Info("hosts collected", "count", len(hosts))
	return hosts, nil
}

// Close ends the API session. Safe to call after a failed login.
func (c *Client) Close() error {
	if c.token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.call(ctx, "user.logout", map[string]any{}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.token = ""
	return nil
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
	Auth    string `json:"auth,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *apiError       `json:"error"`
	ID      int             `json:"id"`
}

// apiError is the error object of a JSON-RPC failure response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *apiError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC request, attaching the session token to every
// method except the unauthenticated ones.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	c.seq++
	req := request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      c.seq,
	}
	if method != "user.login" && method != "apiinfo.version" {
		req.Auth = c.token
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rpc response
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpc.Error != nil {
		return fmt.Errorf("%s: %w", method, rpc.Error)
	}
	if out != nil {
		if err := json.Unmarshal(rpc.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

type apiHost struct {
	HostID          string         `json:"hostid"`
	Host            string         `json:"host"`
	Name            string         `json:"name"`
	Interfaces      []apiInterface `json:"interfaces"`
	Groups          []apiGroup     `json:"groups"`
	ParentTemplates []apiTemplate  `json:"parentTemplates"`
}

type apiInterface struct {
	IP   string `json:"ip"`
	Main string `json:"main"`
}

type apiGroup struct {
	GroupID string `json:"groupid"`
	Name    string `json:"name"`
}

type apiTemplate struct {
	TemplateID string `json:"templateid"`
	Name       string `json:"name"`
}

// mainInterfaceIP picks the address of the interface flagged as main,
// falling back to the first interface when none is flagged.
func mainInterfaceIP(ifaces []apiInterface) string {
	for _, iface := range ifaces {
		if iface.Main == "1" {
			return iface.IP
		}
	}
	if len(ifaces) > 0 {
		return ifaces[0].IP
	}
	return ""
}

func groupNames(groups []apiGroup) []string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}

func templateNames(templates []apiTemplate) []string {
	names := make([]string, 0, len(templates))
	for _, t := range templates {
		names = append(names, t.Name)
	}
	return names
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
