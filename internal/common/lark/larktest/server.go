// Package larktest runs an in-process fake of the Lark Open API endpoints
// used by this module.
package larktest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"lark-ats/internal/common/config"
)

const (
	AppID        = "cli_test"
	AppSecret    = "secret"
	BaseAppToken = "bascnTest"
	TableID      = "tblTest"
	Token        = "t-test-token"

	tokenPath = "/open-apis/auth/v3/tenant_access_token/internal"
)

// Request is one captured API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]interface{}
}

// Reply is written back as a {code, msg, data} envelope.
type Reply struct {
	Status int
	Code   int
	Msg    string
	Data   interface{}
}

func Success(data interface{}) Reply {
	return Reply{Status: http.StatusOK, Msg: "success", Data: data}
}

// Failure mimics Lark, which answers most rejections with HTTP 400.
func Failure(code int, msg string) Reply {
	return Reply{Status: http.StatusBadRequest, Code: code, Msg: msg}
}

type HandlerFunc func(Request) Reply

type Server struct {
	*httptest.Server

	t             testing.TB
	mu            sync.Mutex
	handlers      map[string]HandlerFunc
	requests      []Request
	tokenRequests int
	tokenReply    *Reply
}

func New(t testing.TB) *Server {
	s := &Server{t: t, handlers: make(map[string]HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers fn for method and path. Later registrations win.
func (s *Server) Handle(method, path string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+path] = fn
}

func (s *Server) Reply(method, path string, reply Reply) {
	s.Handle(method, path, func(Request) Reply { return reply })
}

// RejectToken makes the token endpoint answer with a non-zero code.
func (s *Server) RejectToken(code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenReply = &Reply{Status: http.StatusOK, Code: code, Msg: msg}
}

// Requests returns the captured non-token calls in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) TokenRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenRequests
}

// LarkConfig points a client at this server.
func (s *Server) LarkConfig() config.LarkConfig {
	return config.LarkConfig{
		AppID:        AppID,
		AppSecret:    AppSecret,
		BaseAppToken: BaseAppToken,
		TableID:      TableID,
		Domain:       s.URL,
		Timeout:      5000,
	}
}

func RecordsPath() string {
	return "/open-apis/bitable/v1/apps/" + BaseAppToken + "/tables/" + TableID + "/records"
}

func TablesPath() string {
	return "/open-apis/bitable/v1/apps/" + BaseAppToken + "/tables"
}

func FieldsPath(tableID string) string {
	return TablesPath() + "/" + tableID + "/fields"
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	if r.URL.Path == tokenPath {
		s.serveToken(w, raw)
		return
	}

	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req.Body); err != nil {
			s.t.Errorf("larktest: invalid JSON body for %s %s: %v", r.Method, r.URL.Path, err)
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	fn, ok := s.handlers[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		s.t.Errorf("larktest: unexpected request %s %s", r.Method, r.URL.Path)
		writeEnvelope(w, Reply{Status: http.StatusNotFound, Code: 1254040, Msg: "route not found"})
		return
	}

	if got := r.Header.Get("Authorization"); got != "Bearer "+Token {
		writeEnvelope(w, Reply{Status: http.StatusUnauthorized, Code: 99991663, Msg: "Invalid access token for authorization"})
		return
	}

	writeEnvelope(w, fn(req))
}

func (s *Server) serveToken(w http.ResponseWriter, raw []byte) {
	s.mu.Lock()
	s.tokenRequests++
	reject := s.tokenReply
	s.mu.Unlock()

	var body struct {
		AppID     string `json:"app_id"`
		AppSecret string `json:"app_secret"`
	}
	_ = json.Unmarshal(raw, &body)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case reject != nil:
		w.WriteHeader(reject.Status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": reject.Code, "msg": reject.Msg})
	case body.AppID != AppID || body.AppSecret != AppSecret:
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 10014, "msg": "app secret invalid"})
	default:
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":                0,
			"msg":                 "ok",
			"tenant_access_token": Token,
			"expire":              7200,
		})
	}
}

func writeEnvelope(w http.ResponseWriter, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	envelope := map[string]interface{}{"code": reply.Code, "msg": reply.Msg}
	if reply.Data != nil {
		envelope["data"] = reply.Data
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Tt-Logid", "larktest-"+strings.ReplaceAll(http.StatusText(status), " ", "-"))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}
