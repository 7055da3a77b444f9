package auth

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenEnvelope = `{"data":{"data":{"token":"issued-token","expiresIn":3600000}}}`

// tokenServer counts token-endpoint hits and records the credentials
// it received.
type tokenServer struct {
	*httptest.Server
	calls    atomic.Int64
	username string
	password string
}

func newTokenServer(t *testing.T, handler nethttp.HandlerFunc) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ts.calls.Add(1)
		ts.username, ts.password, _ = r.BasicAuth()
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func issueToken(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, testTokenEnvelope)
}

func newTestBasicBearer(t *testing.T, ts *tokenServer) *BasicBearer {
	t.Helper()
	s, err := NewBasicBearer(BasicBearerConfig{
		Username: "svc-user",
		Password: "svc-pass",
		TokenURL: ts.URL,
	})
	require.NoError(t, err)
	return s
}

func TestNewBasicBearerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  BasicBearerConfig
	}{
		{"missing username", BasicBearerConfig{Password: "p", TokenURL: "https://x"}},
		{"missing password", BasicBearerConfig{Username: "u", TokenURL: "https://x"}},
		{"missing token url", BasicBearerConfig{Username: "u", Password: "p"}},
		{"malformed token url", BasicBearerConfig{Username: "u", Password: "p", TokenURL: "not a url"}},
		{"unsupported method", BasicBearerConfig{Username: "u", Password: "p", TokenURL: "https://x", Method: "DELETE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewBasicBearer(tt.cfg)
			assert.Nil(t, s)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestBasicBearerTokenCaching(t *testing.T) {
	ts := newTokenServer(t, issueToken)
	s := newTestBasicBearer(t, ts)

	// First application obtains a token from the endpoint.
	req := newTestRequest(t)
	require.NoError(t, s.Apply(context.Background(), req))
	assert.Equal(t, "Bearer issued-token", req.Header.Get(headerAuthorization))
	assert.Equal(t, int64(1), ts.calls.Load())

	// A second application within the expiry window reuses the cache.
	req2 := newTestRequest(t)
	require.NoError(t, s.Apply(context.Background(), req2))
	assert.Equal(t, "Bearer issued-token", req2.Header.Get(headerAuthorization))
	assert.Equal(t, int64(1), ts.calls.Load())
}

func TestBasicBearerSendsBasicCredentials(t *testing.T) {
	ts := newTokenServer(t, issueToken)
	s := newTestBasicBearer(t, ts)

	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	assert.Equal(t, "svc-user", ts.username)
	assert.Equal(t, "svc-pass", ts.password)
}

func TestBasicBearerInvalidate(t *testing.T) {
	ts := newTokenServer(t, issueToken)
	s := newTestBasicBearer(t, ts)

	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	assert.Equal(t, int64(1), ts.calls.Load())

	s.Invalidate()

	// Invalidation forces a fresh fetch regardless of elapsed time.
	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	assert.Equal(t, int64(2), ts.calls.Load())
}

func TestBasicBearerExpiryTriggersRenewal(t *testing.T) {
	ts := newTokenServer(t, issueToken)
	s := newTestBasicBearer(t, ts)

	current := time.Now()
	s.now = func() time.Time { return current }

	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	assert.Equal(t, int64(1), ts.calls.Load())

	// expiresIn is 3600s with a 60s buffer: valid until now+3540s.
	current = current.Add(3539 * time.Second)
	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	assert.Equal(t, int64(1), ts.calls.Load())

	current = current.Add(2 * time.Second)
	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	assert.Equal(t, int64(2), ts.calls.Load())
}

func TestBasicBearerValidTokenDoesNotMutateExpiry(t *testing.T) {
	ts := newTokenServer(t, issueToken)
	s := newTestBasicBearer(t, ts)

	require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	s.mu.Lock()
	firstExpiry := s.expiresAt
	s.mu.Unlock()

	for range 3 {
		require.NoError(t, s.Apply(context.Background(), newTestRequest(t)))
	}

	s.mu.Lock()
	assert.Equal(t, firstExpiry, s.expiresAt)
	s.mu.Unlock()
}

func TestBasicBearerCustomExtractors(t *testing.T) {
	ts := newTokenServer(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		fmt.Fprint(w, `{"session":"flat-token","ttlSeconds":120}`)
	})

	s, err := NewBasicBearer(BasicBearerConfig{
		Username: "u",
		Password: "p",
		Method:   nethttp.MethodPost,
		TokenURL: ts.URL,
		TokenExtractor: func(body []byte) (string, error) {
			return "flat-token", nil
		},
		ExpiryExtractor: func(body []byte) (time.Duration, error) {
			return 120 * time.Second, nil
		},
	})
	require.NoError(t, err)

	req := newTestRequest(t)
	require.NoError(t, s.Apply(context.Background(), req))
	assert.Equal(t, "Bearer flat-token", req.Header.Get(headerAuthorization))
}

func TestBasicBearerAcquisitionFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler nethttp.HandlerFunc
	}{
		{
			"endpoint error status",
			func(w nethttp.ResponseWriter, _ *nethttp.Request) {
				w.WriteHeader(nethttp.StatusInternalServerError)
			},
		},
		{
			"malformed response body",
			func(w nethttp.ResponseWriter, _ *nethttp.Request) {
				fmt.Fprint(w, "not json")
			},
		},
		{
			"missing token field",
			func(w nethttp.ResponseWriter, _ *nethttp.Request) {
				fmt.Fprint(w, `{"data":{"data":{"expiresIn":1000}}}`)
			},
		},
		{
			"missing expiry field",
			func(w nethttp.ResponseWriter, _ *nethttp.Request) {
				fmt.Fprint(w, `{"data":{"data":{"token":"t"}}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.handler)
			s := newTestBasicBearer(t, ts)

			err := s.Apply(context.Background(), newTestRequest(t))
			// Callers get the normalized error, never the transport detail.
			assert.ErrorIs(t, err, ErrTokenUnavailable)
		})
	}
}

func TestBasicBearerUnreachableEndpoint(t *testing.T) {
	ts := newTokenServer(t, issueToken)
	s := newTestBasicBearer(t, ts)
	ts.Close()

	err := s.Apply(context.Background(), newTestRequest(t))
	assert.ErrorIs(t, err, ErrTokenUnavailable)
}

func TestBasicBearerFailureLeavesCacheEmpty(t *testing.T) {
	fail := true
	ts := newTokenServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if fail {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		issueToken(w, r)
	})
	s := newTestBasicBearer(t, ts)

	assert.ErrorIs(t, s.Apply(context.Background(), newTestRequest(t)), ErrTokenUnavailable)

	// Recovery on the next application once the endpoint is healthy.
	fail = false
	req := newTestRequest(t)
	require.NoError(t, s.Apply(context.Background(), req))
	assert.Equal(t, "Bearer issued-token", req.Header.Get(headerAuthorization))
}

func TestBasicBearerSingleFlight(t *testing.T) {
	release := make(chan struct{})
	ts := newTokenServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		<-release
		issueToken(w, r)
	})
	s := newTestBasicBearer(t, ts)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Apply(context.Background(), newTestRequest(t))
		}()
	}

	// Give the goroutines time to pile onto the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), ts.calls.Load(), "concurrent callers must share one token fetch")
}
