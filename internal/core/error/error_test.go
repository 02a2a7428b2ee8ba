package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUpstreamPreservesStatusAndBody(t *testing.T) {
	err := WrapUpstream(http.StatusBadGateway, `{"error":"boom"}`)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Equal(t, `{"error":"boom"}`, upstream.Body)

	// The raw body must not leak into the user-facing message
	assert.Equal(t, UpstreamErrorMessage, UserMessage(err))
	assert.NotContains(t, UserMessage(err), "boom")
}

func TestSentinelMatching(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		message  string
	}{
		{WrapAuth(errors.New("401")), ErrAuth, AuthErrorMessage},
		{WrapTimeout(errors.New("deadline")), ErrUpstreamTimeout, UpstreamTimeoutMessage},
		{WrapOrderNotFound("ORD-1"), ErrOrderNotFound, OrderNotFoundMessage},
		{WrapExtractionParse(errors.New("bad json")), ErrExtractionParse, ExtractionParseMessage},
		{WrapValidation("parcel.weight"), ErrValidation, ValidationErrorMessage},
	}

	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		assert.Equal(t, tc.message, UserMessage(tc.err))
	}
}

func TestSentinelSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("tool failed: %w", WrapOrderNotFound("ORD-2"))
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, OrderNotFoundMessage, UserMessage(err))
}

func TestUserMessageFallback(t *testing.T) {
	assert.Equal(t, SystemErrorMessage, UserMessage(errors.New("opaque")))
	assert.Equal(t, SystemErrorMessage, UserMessage(nil))
}

func TestAppErrorErrorString(t *testing.T) {
	err := New(errors.New("underlying"), http.StatusBadRequest, "message")
	assert.Equal(t, "message: underlying", err.Error())

	bare := New(nil, http.StatusBadRequest, "message only")
	assert.Equal(t, "message only", bare.Error())
}
