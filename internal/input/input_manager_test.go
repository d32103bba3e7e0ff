/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"vailethchat/internal/data"
	"vailethchat/internal/identity"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "an-assertion-secret-for-the-tests"
	testIssuer    = "broker"
	testAudience  = "vaileth"
	testCookieKey = "0123456789abcdef0123456789abcdef"
)

// pageRenderer writes the page name instead of executing templates
type pageRenderer struct{}

func (pageRenderer) RenderTemplate(wr io.Writer, name string, data any) error {
	_, err := fmt.Fprintf(wr, "page:%s", name)
	return err
}

func TestPauseMiddlewareOn(t *testing.T) {
	i := NewInputManager()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Called despite being paused!")
	})

	toTest := i.PauseMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	i.SetPause(true)

	toTest.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rr.Code)
	}
}

func TestPauseMiddlewareOff(t *testing.T) {
	i := NewInputManager()

	called := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	toTest := i.PauseMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	toTest.ServeHTTP(rr, req)

	if rr.Code == http.StatusServiceUnavailable {
		t.Errorf("Got 503, expected 200")
	}
	if !called {
		t.Errorf("Pause middleware blocked the request despite not being paused")
	}
}

func TestBuildRouterNotReady(t *testing.T) {
	i := NewInputManager()
	_, _, err := i.BuildRouter(&IptConfig{})
	if err == nil {
		t.Errorf("Expected an error from a manager with no components")
	}
}

// newReadyManager builds a manager with every component set, backed by a fresh in-memory database
func newReadyManager(t *testing.T) *InputManager {
	t.Helper()

	store, err := data.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := nlog.Discard()
	users := store.GetUserRepository()
	chats := store.GetChatRepository()
	messages := store.GetMessageRepository()
	contacts := store.GetContactRepository()

	i := NewInputManager()
	i.SetLogger(logger.RegisterSubsystem("input"))
	i.SetAccessLogger(logger)
	i.SetStorage(store)
	i.SetVerifier(identity.NewJWTVerifier(testSecret, testIssuer, testAudience))
	i.SetRenderer(pageRenderer{})
	i.SetServices(Services{
		Membership: service.NewMembershipService(store.GetTransactor(), users, chats, logger.RegisterSubsystem("membership")),
		Messages:   service.NewMessageService(store.GetTransactor(), users, chats, messages, logger.RegisterSubsystem("messaging")),
		Directory:  service.NewDirectoryService(users, contacts, chats, messages, logger.RegisterSubsystem("directory")),
		Accounts:   service.NewAccountService(users, 5*time.Minute, logger.RegisterSubsystem("account")),
		Statuses:   service.NewStatusService(store.GetStatusRepository(), contacts, 24*time.Hour, logger.RegisterSubsystem("status")),
	})
	return i
}

func testConfig(port uint16) *IptConfig {
	return &IptConfig{
		ServerPort: port,
		SecretKey:  testCookieKey,
		LoginURL:   "https://broker.example/login",
		RateLimit:  100,
		RateBurst:  100,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	router, _, err := newReadyManager(t).BuildRouter(testConfig(0))
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// returnsWithin fails the test when fn is still blocked after d
func returnsWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("Still blocked after %v", d)
	}
}

func TestStopWithoutRun(t *testing.T) {
	i := NewInputManager()
	returnsWithin(t, 2*time.Second, i.Stop)
	assert.False(t, i.IsRunning())
}

func TestRunPortInUse(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer taken.Close()
	port := uint16(taken.Addr().(*net.TCPAddr).Port)

	i := newReadyManager(t)
	returnsWithin(t, 5*time.Second, func() {
		assert.Error(t, i.Run(context.Background(), testConfig(port)))
	})
	assert.False(t, i.IsRunning())
	returnsWithin(t, 2*time.Second, i.Stop)
}

func TestRunThenStop(t *testing.T) {
	free, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := uint16(free.Addr().(*net.TCPAddr).Port)
	require.NoError(t, free.Close())

	i := newReadyManager(t)
	result := make(chan error, 1)
	go func() { result <- i.Run(context.Background(), testConfig(port)) }()

	require.Eventually(t, i.IsRunning, 5*time.Second, 10*time.Millisecond)
	returnsWithin(t, 15*time.Second, i.Stop)
	assert.False(t, i.IsRunning())
	assert.NoError(t, <-result)
	returnsWithin(t, time.Second, i.Stop)
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// login goes through the broker callback with a freshly signed assertion
func login(t *testing.T, srv *httptest.Server, id identity.Identity) *http.Client {
	t.Helper()
	client := newClient(t)

	token, err := identity.Sign(testSecret, testIssuer, testAudience, id, time.Minute)
	require.NoError(t, err)

	resp, err := client.Get(srv.URL + "/auth/callback?token=" + url.QueryEscape(token))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "page:index.html", string(body))
	return client
}

func TestAnonymousLanding(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "page:landing.html", string(body))
}

func TestAnonymousAPICallIsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/send_message", url.Values{"chat_id": {"x"}, "content": {"hi"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRedirectsToBroker(t *testing.T) {
	srv := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(srv.URL + "/auth/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	target, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "broker.example", target.Host)
	assert.Equal(t, srv.URL+"/auth/callback", target.Query().Get("return_to"))
}

func TestForgedAssertionDoesNotLogIn(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	token, err := identity.Sign("some-other-secret-entirely-wrong", testIssuer, testAudience, identity.Identity{ID: "mallory"}, time.Minute)
	require.NoError(t, err)

	resp, err := client.Get(srv.URL + "/auth/callback?token=" + url.QueryEscape(token))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "page:landing.html", string(body))
}

func TestConversationEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	alice := login(t, srv, identity.Identity{ID: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"})
	bob := login(t, srv, identity.Identity{ID: "bob", Email: "bob@example.com", FirstName: "Bob"})

	// Alice opens the chat with Bob
	resp, err := alice.Get(srv.URL + "/chat/individual/bob")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "page:chat.html", string(body))
	chatID := strings.TrimPrefix(resp.Request.URL.Path, "/chat/")
	require.NotEmpty(t, chatID)

	// and writes to him
	resp, err = alice.PostForm(srv.URL+"/send_message", url.Values{"chat_id": {chatID}, "content": {"  hello bob  "}})
	require.NoError(t, err)
	var sent struct {
		Success bool `json:"success"`
		Message struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		} `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sent))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sent.Success)
	assert.Equal(t, "hello bob", sent.Message.Content)

	// Bob polls the chat
	resp, err = bob.Get(srv.URL + "/chat/" + chatID + "/messages")
	require.NoError(t, err)
	var listed struct {
		Messages []struct {
			ID         string `json:"id"`
			SenderName string `json:"sender_name"`
			IsRead     bool   `json:"is_read"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed.Messages, 1)
	assert.Equal(t, sent.Message.ID, listed.Messages[0].ID)
	assert.Equal(t, "Alice Liddell", listed.Messages[0].SenderName)
	assert.False(t, listed.Messages[0].IsRead)

	// and reads it
	resp, err = bob.Post(srv.URL+"/chat/"+chatID+"/mark_read", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	var marked struct {
		Success bool  `json:"success"`
		Marked  int64 `json:"marked"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&marked))
	resp.Body.Close()
	assert.True(t, marked.Success)
	assert.Equal(t, int64(1), marked.Marked)

	// A third user cannot look into the chat
	carol := login(t, srv, identity.Identity{ID: "carol", FirstName: "Carol"})
	resp, err = carol.Get(srv.URL + "/chat/" + chatID + "/messages")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = carol.PostForm(srv.URL+"/send_message", url.Values{"chat_id": {chatID}, "content": {"let me in"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	srv := newTestServer(t)
	alice := login(t, srv, identity.Identity{ID: "alice", FirstName: "Alice"})

	resp, err := alice.Get(srv.URL + "/auth/logout")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "page:landing.html", string(body))

	resp, err = alice.Get(srv.URL + "/search?q=a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/no/such/page")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "page:404.html", string(body))
}

func TestMissingChatRendersNotFound(t *testing.T) {
	srv := newTestServer(t)
	alice := login(t, srv, identity.Identity{ID: "alice", FirstName: "Alice"})

	resp, err := alice.Get(srv.URL + "/chat/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "page:404.html", string(body))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vaileth_http_requests_total")
}
