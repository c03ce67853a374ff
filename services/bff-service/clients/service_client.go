package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxErrorBody = 4 << 10

// ServiceClient is a thin HTTP client bound to one upstream service.
type ServiceClient struct {
	baseURL string
	client  *http.Client
}

func NewServiceClient(baseURL string, timeout time.Duration) *ServiceClient {
	return &ServiceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *ServiceClient) Do(ctx context.Context, method, path string, query url.Values, headers http.Header, body io.Reader) (*http.Response, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	return g.client.Do(req)
}

// upstreamReply is a fully read upstream response.
type upstreamReply struct {
	status int
	body   []byte
}

func (r upstreamReply) ok() bool { return r.status >= 200 && r.status < 300 }

// message extracts a human readable reason from an error body.
func (r upstreamReply) message() string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if len(r.body) > 0 {
		return string(r.body)
	}
	return http.StatusText(r.status)
}

func (r upstreamReply) decode(out interface{}) error {
	if out == nil || len(r.body) == 0 {
		return nil
	}
	return json.Unmarshal(r.body, out)
}

// doJSON sends in as a JSON body and reads the whole reply. Only transport
// failures are returned as errors; status handling is left to the caller.
func (g *ServiceClient) doJSON(ctx context.Context, method, path string, headers http.Header, in interface{}) (upstreamReply, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return upstreamReply{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		if headers == nil {
			headers = http.Header{}
		}
		headers.Set("Content-Type", "application/json")
	}

	resp, err := g.Do(ctx, method, path, nil, headers, body)
	if err != nil {
		return upstreamReply{}, err
	}
	defer resp.Body.Close()

	limit := int64(1 << 20)
	if resp.StatusCode >= 400 {
		limit = maxErrorBody
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return upstreamReply{}, err
	}
	return upstreamReply{status: resp.StatusCode, body: data}, nil
}

func ReadJSONBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func CopyResponse(w http.ResponseWriter, resp *http.Response) error {
	defer resp.Body.Close()

	for k, v := range resp.Header {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}
	w.WriteHeader(resp.StatusCode)

	_, err := io.Copy(w, resp.Body)
	return err
}

func BodyFromBytes(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}

func ownerHeader(owner string) http.Header {
	h := http.Header{}
	h.Set("X-User-ID", owner)
	return h
}
