package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spawnguard/spawnguard/internal/api"
	"github.com/spawnguard/spawnguard/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "sgctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sgctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(factory.Config{
		Logger: logger,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger: logger,
		Gate:   app.Gate,
		World:  app.World,
		Hub:    app.Hub,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type sessionResponse struct {
	Identity         string `json:"identity"`
	State            string `json:"state"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type decisionResponse struct {
	Allowed bool `json:"allowed"`
}

type inboxResponse struct {
	Messages []string `json:"messages"`
}

type entityResponse struct {
	Identity string `json:"identity"`
	State    struct {
		Position struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"position"`
	} `json:"transient_state"`
	Frozen bool `json:"frozen"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_ConnectAndRegister(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Connect an entity
	output, err := cli.run("entity", "connect", "steve", "--x", "10", "--y", "64", "--z", "-3")
	require.NoError(t, err, "output: %s", output)

	var session sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Equal(t, "steve", session.Identity)
	assert.Equal(t, "gated", session.State)
	assert.Greater(t, session.RemainingSeconds, 0)

	// Entity is frozen while gated
	output, err = cli.run("entity", "show", "steve")
	require.NoError(t, err, "output: %s", output)

	var entity entityResponse
	require.NoError(t, json.Unmarshal([]byte(output), &entity))
	assert.True(t, entity.Frozen)
	assert.Equal(t, 10.0, entity.State.Position.X)

	// Register
	output, err = cli.run("entity", "register", "steve", "--user", "steve", "--pass", "hunter2")
	require.NoError(t, err, "output: %s", output)

	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Equal(t, "authenticated", session.State)

	// Unfrozen after authentication
	output, err = cli.run("entity", "show", "steve")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &entity))
	assert.False(t, entity.Frozen)

	// Inbox carries the gate prompt and the welcome
	output, err = cli.run("entity", "inbox", "steve")
	require.NoError(t, err, "output: %s", output)

	var inbox inboxResponse
	require.NoError(t, json.Unmarshal([]byte(output), &inbox))
	joined := strings.Join(inbox.Messages, "\n")
	assert.Contains(t, joined, "register or log in")
	assert.Contains(t, joined, "Welcome")
}

func TestCLI_LoginFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Register on first visit
	_, err := cli.run("entity", "connect", "alex")
	require.NoError(t, err)
	_, err = cli.run("entity", "register", "alex", "--user", "alex", "--pass", "secret99")
	require.NoError(t, err)

	// Leave and come back
	_, err = cli.run("entity", "disconnect", "alex")
	require.NoError(t, err)
	_, err = cli.run("entity", "connect", "alex")
	require.NoError(t, err)

	// Wrong password is rejected
	output, err := cli.run("entity", "login", "alex", "--user", "alex", "--pass", "wrong")
	assert.Error(t, err, "wrong password should fail")
	assert.Contains(t, strings.ToLower(output), "wrong password")

	// Login without --user reattaches via the identity binding
	output, err = cli.run("entity", "login", "alex", "--pass", "secret99")
	require.NoError(t, err, "output: %s", output)

	var session sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Equal(t, "authenticated", session.State)
}

func TestCLI_ChatAndCommandDecisions(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	_, err := cli.run("entity", "connect", "gated")
	require.NoError(t, err)

	// Chat is blocked while gated
	output, err := cli.run("entity", "chat", "gated", "hello world")
	require.NoError(t, err, "output: %s", output)

	var decision decisionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &decision))
	assert.False(t, decision.Allowed)

	// Auth commands stay reachable
	output, err = cli.run("entity", "command", "gated", "login")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &decision))
	assert.True(t, decision.Allowed)

	// Other commands are blocked
	output, err = cli.run("entity", "command", "gated", "teleport")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &decision))
	assert.False(t, decision.Allowed)

	// Everything opens up after registering
	_, err = cli.run("entity", "register", "gated", "--user", "gated", "--pass", "opensesame")
	require.NoError(t, err)

	output, err = cli.run("entity", "chat", "gated", "hello again")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &decision))
	assert.True(t, decision.Allowed)
}

func TestCLI_PasswordChangeAndLogout(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	_, err := cli.run("entity", "connect", "kai")
	require.NoError(t, err)
	_, err = cli.run("entity", "register", "kai", "--user", "kai", "--pass", "oldpass")
	require.NoError(t, err)

	// Change the password
	output, err := cli.run("entity", "password", "kai", "--current", "oldpass", "--new", "newpass")
	require.NoError(t, err, "output: %s", output)

	// Logout removes the entity from the world
	_, err = cli.run("entity", "logout", "kai")
	require.NoError(t, err)

	output, err = cli.run("entity", "show", "kai")
	assert.Error(t, err, "entity should be gone after logout")
	assert.Contains(t, strings.ToLower(output), "not")

	// Reconnect and log in with the new password and explicit username;
	// logout removed the identity binding
	_, err = cli.run("entity", "connect", "kai")
	require.NoError(t, err)

	output, err = cli.run("entity", "login", "kai", "--user", "kai", "--pass", "newpass")
	require.NoError(t, err, "output: %s", output)

	var session sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Equal(t, "authenticated", session.State)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Session for an entity that never connected
	output, err := cli.run("entity", "session", "ghost")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "no")

	// Register with a too-short password keeps the entity gated
	_, err = cli.run("entity", "connect", "newbie")
	require.NoError(t, err)

	output, err = cli.run("entity", "register", "newbie", "--user", "newbie", "--pass", "ab")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "password")

	output, err = cli.run("entity", "session", "newbie")
	require.NoError(t, err, "output: %s", output)

	var session sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Equal(t, "gated", session.State)
}
