package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/wire"
)

func TestRequest_MatchesSpecLiteral(t *testing.T) {
	req := wire.Request{Method: wire.MethodGet, URL: "https://example.com/"}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"Get","url":"https://example.com/","params":null,"data":null,"headers":null}`, string(data))
}

func TestMethod_HTTPVerb(t *testing.T) {
	cases := map[wire.Method]string{
		wire.MethodGet:    "GET",
		wire.MethodPost:   "POST",
		wire.MethodPut:    "PUT",
		wire.MethodPatch:  "PATCH",
		wire.MethodDelete: "DELETE",
	}
	for method, want := range cases {
		assert.Equal(t, want, method.HTTPVerb())
	}
}

func TestBody_RoundTrip(t *testing.T) {
	body := wire.Body{Form: map[string]string{"q": "search term"}}

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Form":{"q":"search term"}}`, string(data))

	var decoded wire.Body
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, body.Form, decoded.Form)
}

func TestHTTPResult_Ok_RoundTrip(t *testing.T) {
	headers := `{"Content-Type":"text/html"}`
	result := wire.HTTPResult{Ok: &wire.Response{Status: 200, Body: []byte("hi"), Headers: &headers}}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded wire.HTTPResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Ok)
	assert.Nil(t, decoded.Err)
	assert.Equal(t, 200, decoded.Ok.Status)
	assert.Equal(t, []byte("hi"), decoded.Ok.Body)

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Contains(t, generic, "Ok")
	assert.NotContains(t, generic, "Err")
}

func TestHTTPResult_Err_RoundTrip(t *testing.T) {
	url := "https://example.com/"
	result := wire.HTTPResult{Err: &wire.RequestError{
		Kind:    wire.RequestErrorStatus(404),
		URL:     &url,
		Message: "not found",
	}}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Err":{"kind":{"Status":404},"url":"https://example.com/","message":"not found"}}`, string(data))

	var decoded wire.HTTPResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Err)
	assert.Nil(t, decoded.Ok)
	assert.Equal(t, "Status(404)", decoded.Err.Kind.String())
}

func TestRequestErrorKind_BareVariants(t *testing.T) {
	for _, kind := range []wire.RequestErrorKind{
		wire.RequestErrorSerial,
		wire.RequestErrorRequest,
		wire.RequestErrorRedirect,
		wire.RequestErrorBody,
		wire.RequestErrorTimeout,
		wire.RequestErrorUnknown,
	} {
		data, err := json.Marshal(kind)
		require.NoError(t, err)
		assert.JSONEq(t, `"`+kind.Tag+`"`, string(data))

		var decoded wire.RequestErrorKind
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, kind, decoded)
	}
}

func TestRequestErrorKind_Status_RoundTrip(t *testing.T) {
	kind := wire.RequestErrorStatus(503)

	data, err := json.Marshal(kind)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Status":503}`, string(data))

	var decoded wire.RequestErrorKind
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, kind, decoded)
}

func TestHTTPResult_RejectsMissingTag(t *testing.T) {
	var result wire.HTTPResult
	err := json.Unmarshal([]byte(`{"status":200}`), &result)
	assert.Error(t, err)
}
