package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptOrdersByQuality(t *testing.T) {
	assert.Equal(t,
		[]string{"application/json", "text/plain", "text/html"},
		ParseAccept("text/html;q=0.8, application/json, text/plain;q=0.9"))
}

func TestParseAcceptKeepsHeaderOrderOnTies(t *testing.T) {
	assert.Equal(t,
		[]string{"text/html", "application/json", "text/plain"},
		ParseAccept("text/html, application/json;q=1, text/plain;q=0.5"))
}

func TestParseAcceptEmpty(t *testing.T) {
	assert.Equal(t, []string{}, ParseAccept(""))
	assert.Equal(t, []string{}, ParseAccept("   "))
}

func TestParseAcceptMalformedQuality(t *testing.T) {
	assert.Equal(t,
		[]string{"text/plain", "text/html"},
		ParseAccept("text/html;q=abc, text/plain;q=0.1"))
}

func TestParseAcceptIgnoresOtherParams(t *testing.T) {
	assert.Equal(t,
		[]string{"application/json", "text/html"},
		ParseAccept("text/html;level=1;q=0.5, application/json;charset=utf-8"))
}

func TestAcceptedContentTypesAbsentHeader(t *testing.T) {
	req := New(Props{Method: MethodGet, Endpoint: "/"})
	assert.Equal(t, []string{}, req.AcceptedContentTypes())
}

func TestAcceptedContentTypesHeaderCase(t *testing.T) {
	req := New(Props{
		Method:   MethodGet,
		Endpoint: "/",
		Headers:  map[string]string{"accept": "text/html;q=0.8, application/json"},
	})

	assert.Equal(t, []string{"application/json", "text/html"}, req.AcceptedContentTypes())
}
