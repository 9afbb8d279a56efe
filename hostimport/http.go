package hostimport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"

	"github.com/quellehq/quelle/wire"
)

// maxResponseBody bounds how much of a remote response body the host will
// buffer on a guest's behalf, protecting the host process from a
// misbehaving or hostile site streaming an unbounded response.
const maxResponseBody = 32 * 1024 * 1024

// httpClient is shared across every outbound request a guest makes. A
// guest has no way to configure transport-level behavior (redirects,
// timeouts, proxies) — that is deliberately a host policy, not something
// sandboxed code controls.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// defaultUserAgent is sent on every outbound request unless the guest's
// own headers set a User-Agent.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// httpSendRequest implements the http_send_request host import: stack[0]
// holds the guest memory offset of a JSON-encoded wire.Request (whose
// length was pushed via stack_push before the call). It writes back a
// JSON-encoded wire.HTTPResult ({"Ok": Response} or {"Err": RequestError})
// the same way.
func httpSendRequest(ctx context.Context, mod api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	extension := ExtensionName(ctx)
	// requestID correlates this outbound call's log lines; a guest can
	// issue many concurrent requests to the same host over its lifetime,
	// and extension name alone doesn't disambiguate between them.
	requestID := uuid.New().String()

	reqBytes, err := readStackString(ctx, mod, ptr)
	if err != nil {
		slog.ErrorContext(ctx, "hostimport: failed to read http request from guest memory", "extension", extension, "request_id", requestID, "error", err)
		stack[0] = writeHTTPError(ctx, mod, &wire.RequestError{Kind: wire.RequestErrorUnknown, Message: err.Error()})
		return
	}

	var request wire.Request
	if err := json.Unmarshal(reqBytes, &request); err != nil {
		slog.ErrorContext(ctx, "hostimport: failed to decode http request", "extension", extension, "request_id", requestID, "error", err)
		stack[0] = writeHTTPError(ctx, mod, &wire.RequestError{Kind: wire.RequestErrorSerial, Message: err.Error()})
		return
	}

	slog.DebugContext(ctx, "hostimport: sending outbound request", "extension", extension, "request_id", requestID, "url", request.URL, "method", request.Method)

	resp, reqErr := doRequest(ctx, &request)
	if reqErr != nil {
		slog.WarnContext(ctx, "hostimport: outbound request failed", "extension", extension, "request_id", requestID, "url", request.URL, "kind", reqErr.Kind)
		stack[0] = writeHTTPError(ctx, mod, reqErr)
		return
	}

	data, err := json.Marshal(wire.HTTPResult{Ok: resp})
	if err != nil {
		slog.ErrorContext(ctx, "hostimport: failed to encode http response", "extension", extension, "request_id", requestID, "error", err)
		stack[0] = writeHTTPError(ctx, mod, &wire.RequestError{Kind: wire.RequestErrorSerial, Message: err.Error()})
		return
	}

	responsePtr, err := writeStackString(ctx, mod, data)
	if err != nil {
		slog.ErrorContext(ctx, "hostimport: failed to write http response into guest memory", "extension", extension, "error", err)
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeU32(responsePtr)
}

// writeHTTPError writes a {"Err": RequestError} HTTPResult into guest
// memory — the same wire shape a successful {"Ok": Response} call uses, so
// the guest's single Result<Response, RequestError> decode path handles
// both.
func writeHTTPError(ctx context.Context, mod api.Module, reqErr *wire.RequestError) uint64 {
	data, err := json.Marshal(wire.HTTPResult{Err: reqErr})
	if err != nil {
		return 0
	}
	ptr, err := writeStackString(ctx, mod, data)
	if err != nil {
		return 0
	}
	return api.EncodeU32(ptr)
}

func doRequest(ctx context.Context, request *wire.Request) (*wire.Response, *wire.RequestError) {
	body, err := requestBody(request)
	if err != nil {
		return nil, &wire.RequestError{Kind: wire.RequestErrorBody, URL: &request.URL, Message: err.Error()}
	}

	url := request.URL
	if request.Params != nil && *request.Params != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + *request.Params
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.Method.HTTPVerb(), url, body)
	if err != nil {
		return nil, &wire.RequestError{Kind: wire.RequestErrorRequest, URL: &request.URL, Message: err.Error()}
	}

	httpReq.Header.Set("User-Agent", defaultUserAgent)
	if request.Data != nil && request.Data.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if request.Headers != nil && *request.Headers != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(*request.Headers), &headers); err != nil {
			return nil, &wire.RequestError{Kind: wire.RequestErrorSerial, URL: &request.URL, Message: fmt.Sprintf("invalid headers: %v", err)}
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyRequestError(err, request.URL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &wire.RequestError{Kind: wire.RequestErrorBody, URL: &request.URL, Message: err.Error()}
	}

	headerJSON, err := json.Marshal(flattenHeaders(resp.Header))
	if err != nil {
		return nil, &wire.RequestError{Kind: wire.RequestErrorSerial, URL: &request.URL, Message: "failed to serialize response headers"}
	}
	headers := string(headerJSON)

	return &wire.Response{
		Status:  resp.StatusCode,
		Body:    respBody,
		Headers: &headers,
	}, nil
}

func requestBody(request *wire.Request) (io.Reader, error) {
	if request.Data == nil {
		return nil, nil
	}
	if request.Data.Form != nil {
		form := url.Values{}
		for k, v := range request.Data.Form {
			form.Set(k, v)
		}
		return strings.NewReader(form.Encode()), nil
	}
	return nil, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func classifyRequestError(err error, url string) *wire.RequestError {
	message := err.Error()
	kind := wire.RequestErrorUnknown

	switch {
	case isTimeout(err):
		kind = wire.RequestErrorTimeout
	case strings.Contains(message, "redirect"):
		kind = wire.RequestErrorRedirect
	default:
		kind = wire.RequestErrorRequest
	}

	return &wire.RequestError{Kind: kind, URL: &url, Message: message}
}

type timeoutError interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}
