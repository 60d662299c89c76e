package connector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"welcome-bot/internal/domain"
)

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val    string
	err    error
	onCall func()
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func outbound(conversationID, serviceURL, text string) domain.OutboundMessage {
	return domain.OutboundMessage{
		Type:         domain.TypeMessage,
		ServiceURL:   serviceURL,
		Conversation: domain.ConversationAccount{ID: conversationID},
		Text:         text,
	}
}

func TestActivitiesURL(t *testing.T) {
	cases := []struct {
		serviceURL     string
		conversationID string
		want           string
	}{
		{"https://smba.trafficmanager.net/apis", "conv-1", "https://smba.trafficmanager.net/apis/v3/conversations/conv-1/activities"},
		{"https://smba.trafficmanager.net/apis/", "conv-1", "https://smba.trafficmanager.net/apis/v3/conversations/conv-1/activities"},
		{"http://localhost:56150", "a b", "http://localhost:56150/v3/conversations/a%20b/activities"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, activitiesURL(tc.serviceURL, tc.conversationID))
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, "/welcome-bot")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")

	_, err = NewClient(&fakeGetter{}, " ")
	require.Error(t, err)

	// Auth disabled needs neither getter nor prefix.
	_, err = NewClient(nil, "", WithAuthDisabled())
	require.NoError(t, err)
}

func TestSend_PostsToConversationActivities(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(&fakeGetter{val: `{"token":"tok-from-ssm"}`}, "/welcome-bot", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = c.Send(context.Background(), outbound("conv-1", srv.URL, "hello"))
	require.NoError(t, err)
	require.Equal(t, "/v3/conversations/conv-1/activities", gotPath)
	require.Equal(t, "Bearer tok-from-ssm", gotAuth)

	var sent domain.OutboundMessage
	require.NoError(t, json.Unmarshal(gotBody, &sent))
	require.Equal(t, "hello", sent.Text)
	require.Equal(t, "conv-1", sent.Conversation.ID)
}

func TestSend_AuthDisabledSendsNoAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, err := NewClient(nil, "", WithAuthDisabled(), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), outbound("conv-1", srv.URL, "hi")))
	require.Empty(t, gotAuth)
}

func TestSend_Non2xxSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "conversation gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(nil, "", WithAuthDisabled(), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = c.Send(context.Background(), outbound("conv-1", srv.URL, "hi"))
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "conversation gone")
}

func TestSend_RequiresAddressing(t *testing.T) {
	c, err := NewClient(nil, "", WithAuthDisabled())
	require.NoError(t, err)

	err = c.Send(context.Background(), outbound("conv-1", "", "hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "service URL")

	err = c.Send(context.Background(), outbound("", "http://localhost:1", "hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "conversation id")
}

func TestSend_ServiceURLOverride(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(nil, "", WithAuthDisabled(), WithServiceURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	// Message carries a dead service URL; the override wins.
	require.NoError(t, c.Send(context.Background(), outbound("conv-1", "http://127.0.0.1:1", "hi")))
	require.Equal(t, 1, hits)
}

func TestResolveToken_FetchedOnFirstCall(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: `{"token":"tok"}`}
	g.onCall = func() { calls++ }
	c, err := NewClient(g, "/welcome-bot")
	require.NoError(t, err)

	token, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok", token)
	require.Equal(t, 1, calls)

	_, _ = c.resolveToken(context.Background())
	_, _ = c.resolveToken(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestFetchToken_Malformed(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	_, err := fetchTokenFromParamStore(context.Background(), g, "/welcome-bot/connector-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")

	g = &fakeGetter{val: `{"other":"value"}`}
	_, err = fetchTokenFromParamStore(context.Background(), g, "/welcome-bot/connector-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")

	g = &fakeGetter{err: errors.New("ssm unavailable")}
	_, err = fetchTokenFromParamStore(context.Background(), g, "/welcome-bot/connector-token")
	require.ErrorContains(t, err, "ssm unavailable")
}
