package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a request captured by a stub server.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// StubServer is an httptest server that answers with a scripted handler and
// records every request it receives.
type StubServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewStubServer starts a stub server closed automatically at test cleanup.
func NewStubServer(t *testing.T, handler http.HandlerFunc) *StubServer {
	t.Helper()

	s := &StubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)

	return s
}

// Requests returns a copy of the requests received so far.
func (s *StubServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls returns the number of requests received so far.
func (s *StubServer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// JSONResponse answers every request with status and body encoded as JSON.
func JSONResponse(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// TextResponse answers every request with status and a plain text body.
func TextResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// Sequence answers the n-th request with the n-th handler and repeats the
// last one afterwards.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	next := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[next]
		if next < len(handlers)-1 {
			next++
		}
		mu.Unlock()
		h(w, r)
	}
}

// Hijack drops the connection without writing a response, which the client
// sees as a transport failure.
func Hijack(w http.ResponseWriter, r *http.Request) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(err)
	}
	_ = conn.Close()
}

// IdentityGrant is a successful identity service response body.
func IdentityGrant(user, tenant, host string) map[string]string {
	return map[string]string{
		"x-forwarded-user": user,
		"tenantIdentifier": tenant,
		"hostName":         host,
	}
}

// ValidOrderJSON is a payload that passes every validation rule.
const ValidOrderJSON = `{
	"orderNumber": "ORD-2024-001",
	"orderType": "Standard Order",
	"orderCategory": "New",
	"businessUnit": "US1 Business Unit",
	"hdrEffectiveStartDate": "2024-01-01",
	"hdrEffectiveEndDate": "2024-12-31",
	"hdrBillToCustAccountNum": "CUST-12345",
	"hdrEvergreenFlag": "N",
	"orderLines": [
		{
			"lineNumber": "1",
			"lineType": "Recurring",
			"lineEffectiveStartDate": "2024-01-01",
			"lineEffectiveEndDate": "2024-12-31",
			"quantity": 1,
			"unitPrice": 100
		}
	]
}`
