package zabbix

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f0oster/zbxspy/inventory"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      int             `json:"id"`
	Auth    string          `json:"auth"`
}

const testToken = "tok-123"

// newTestServer fakes the parts of the JSON-RPC API the client touches.
func newTestServer(t *testing.T, hostsResult string, logouts *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api_jsonrpc.php", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req rpcRequest
		require.NoError(t, json.Unmarshal(body, &req))

		var result string
		switch req.Method {
		case "apiinfo.version":
			require.Empty(t, req.Auth, "apiinfo.version must not carry a token")
			result = `"7.0.0"`
		case "user.login":
			var creds map[string]string
			require.NoError(t, json.Unmarshal(req.Params, &creds))
			if creds["username"] != "api-user" || creds["password"] != "secret" {
				writeRPC(w, req.ID, "", &apiError{Code: -32602, Message: "Invalid params.", Data: "Incorrect user name or password."})
				return
			}
			result = `"` + testToken + `"`
		case "host.get":
			require.Equal(t, testToken, req.Auth, "host.get must carry the session token")
			result = hostsResult
		case "user.logout":
			require.Equal(t, testToken, req.Auth)
			if logouts != nil {
				logouts.Add(1)
			}
			result = `true`
		default:
			t.Fatalf("unexpected method %q", req.Method)
		}
		writeRPC(w, req.ID, result, nil)
	}))
}

func writeRPC(w http.ResponseWriter, id int, result string, rpcErr *apiError) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"jsonrpc": "2.0", "id": id}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = json.RawMessage(result)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func testConfig(url string) Config {
	return Config{URL: url, Username: "api-user", Password: "secret"}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnectAndHosts(t *testing.T) {
	hostsResult := `[
		{
			"hostid": "10084",
			"host": "zbx-agent-01",
			"name": "Web server 01",
			"interfaces": [
				{"ip": "10.0.0.8", "main": "0"},
				{"ip": "10.0.0.9", "main": "1"}
			],
			"groups": [{"groupid": "2", "name": "Linux servers"}, {"groupid": "4", "name": "Web"}],
			"parentTemplates": [{"templateid": "1001", "name": "Linux by Zabbix agent"}]
		},
		{
			"hostid": "10085",
			"host": "db-raw-name",
			"name": "",
			"interfaces": [{"ip": "10.0.0.20", "main": "0"}],
			"groups": [],
			"parentTemplates": []
		},
		{
			"hostid": "10086",
			"host": "agentless",
			"name": "Agentless host",
			"interfaces": [],
			"groups": [{"groupid": "7", "name": "Misc"}],
			"parentTemplates": []
		}
	]`

	srv := newTestServer(t, hostsResult, nil)
	defer srv.Close()

	c, err := Connect(context.Background(), testConfig(srv.URL), discard())
	require.NoError(t, err)
	defer c.Close()

	hosts, err := c.Hosts(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 3)

	assert.Equal(t, inventory.Host{
		HostID:    "10084",
		Hostname:  "Web server 01",
		IPAddress: "10.0.0.9",
		Groups:    "Linux servers, Web",
		Templates: "Linux by Zabbix agent",
	}, hosts[0], "main interface, joined groups and templates")

	assert.Equal(t, "db-raw-name", hosts[1].Hostname, "falls back to technical host name")
	assert.Equal(t, "10.0.0.20", hosts[1].IPAddress, "falls back to first interface")
	assert.Equal(t, inventory.Sentinel, hosts[1].Groups)
	assert.Equal(t, inventory.Sentinel, hosts[1].Templates)

	assert.Equal(t, inventory.Sentinel, hosts[2].IPAddress, "no interfaces yields sentinel")
}

func TestConnectBadCredentials(t *testing.T) {
	srv := newTestServer(t, `[]`, nil)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Password = "wrong"

	_, err := Connect(context.Background(), cfg, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect user name or password")
}

func TestCloseLogsOutOnce(t *testing.T) {
	var logouts atomic.Int32
	srv := newTestServer(t, `[]`, &logouts)
	defer srv.Close()

	c, err := Connect(context.Background(), testConfig(srv.URL), discard())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "second close is a no-op")
	assert.Equal(t, int32(1), logouts.Load())
}

func TestConnectAppendsAPIPath(t *testing.T) {
	srv := newTestServer(t, `[]`, nil)
	defer srv.Close()

	// Trailing slash plus missing path must still reach the endpoint.
	c, err := Connect(context.Background(), testConfig(srv.URL+"/"), discard())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, srv.URL+"/api_jsonrpc.php", c.url)
}

func TestHostsSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "apiinfo.version":
			writeRPC(w, req.ID, `"7.0.0"`, nil)
		case "user.login":
			writeRPC(w, req.ID, `"`+testToken+`"`, nil)
		default:
			writeRPC(w, req.ID, "", &apiError{Code: -32500, Message: "Application error.", Data: "No permissions to referred object."})
		}
	}))
	defer srv.Close()

	c, err := Connect(context.Background(), testConfig(srv.URL), discard())
	require.NoError(t, err)

	_, err = c.Hosts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No permissions")
}
