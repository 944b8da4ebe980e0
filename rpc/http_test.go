package rpc

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRouter() *Router {
	router := NewRouter(RouterProps{
		Logger:        logger,
		ErrorResource: NewErrorResource(ErrorResourceProps{Logger: logger}),
	})

	router.Register("/echo", MethodPipelines{
		request.MethodGet: respond(pipeline.Map(func(req *request.Request, in pipeline.Values) (interface{}, error) {
			name, _ := req.Param("name")
			return map[string]string{
				"name":      name,
				"requestId": log.GetRequestID(req.Context()),
			}, nil
		})),
		request.MethodHead: respond(constant("head")),
		request.MethodPost: respond(pipeline.Map(func(req *request.Request, in pipeline.Values) (interface{}, error) {
			username, _ := req.PrivateParam("username")
			_, inQuery := req.Param("username")
			req.SetStatus(http.StatusCreated)
			return map[string]interface{}{"username": username, "inQuery": inQuery}, nil
		})),
	})

	return router
}

func newTestHandler(preProcessors ...HttpPreProcessor) *HttpHandler {
	return NewHttpHandler(HttpHandlerProps{
		Logger:        logger,
		Dispatcher:    echoRouter(),
		PreProcessors: preProcessors,
		BodyLimit:     64,
	})
}

func TestNewHttpHandlerRequiresDispatcher(t *testing.T) {
	assert.Panics(t, func() {
		NewHttpHandler(HttpHandlerProps{Logger: logger})
	})
}

func TestHttpHandlerQueryParams(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/echo/?name=north", nil)

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, negotiate.ContentTypeJSON, recorder.Header().Get("Content-Type"))

	requestID := recorder.Header().Get(HttpHeaderRequestID)
	_, err := uuid.Parse(requestID)
	assert.Nil(t, err)
	assert.JSONEq(t, `{"name":"north","requestId":"`+requestID+`"}`, recorder.Body.String())
}

func TestHttpHandlerConvertQueryOrderLastWins(t *testing.T) {
	r, err := newTestHandler().convert(httptest.NewRequest("GET", "/echo?b=x&a=1&c=y&a=2", nil))

	require.Nil(t, err)
	a, _ := r.Param("a")
	assert.Equal(t, "2", a)
	assert.Equal(t, []string{"b", "a", "c"}, r.Params().Keys())
}

func TestHttpHandlerConvertUnescapesQuery(t *testing.T) {
	r, err := newTestHandler().convert(httptest.NewRequest("GET", "/echo?full+name=north%20star&flag", nil))

	require.Nil(t, err)
	name, _ := r.Param("full name")
	assert.Equal(t, "north star", name)
	flag, ok := r.Param("flag")
	assert.True(t, ok)
	assert.Equal(t, "", flag)
}

func TestParseQueryMalformed(t *testing.T) {
	_, err := parseQuery("name=%zz")
	assert.Error(t, err)
}

func TestParseFormLastWins(t *testing.T) {
	params, err := parseForm("application/x-www-form-urlencoded", []byte("username=alice&username=bob"))

	require.Nil(t, err)
	assert.Equal(t, map[string]string{"username": "bob"}, params)
}

func TestHttpHandlerJoinsRepeatedHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Add("Accept", "application/xml")
	req.Header.Add("Accept", "text/plain")

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "text/plain; charset=utf-8", recorder.Header().Get("Content-Type"))
}

func TestHttpHandlerKeepsClientRequestID(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/echo", nil)
	req.Header.Set(HttpHeaderRequestID, "req-1234")

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, "req-1234", recorder.Header().Get(HttpHeaderRequestID))
	assert.JSONEq(t, `{"name":"","requestId":"req-1234"}`, recorder.Body.String())
}

func TestHttpHandlerFormParamsArePrivate(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/echo", strings.NewReader("username=alice&password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `{"username":"alice","inQuery":false}`, recorder.Body.String())
}

func TestHttpHandlerBodyLimit(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/echo", strings.NewReader("username="+strings.Repeat("a", 100)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"errorCode":2003`)
}

func TestHttpHandlerUnsupportedMethod(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("BREW", "/echo", nil)

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"errorCode":2004`)
}

func TestHttpHandlerNotFoundPerAccept(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set("Accept", "text/plain")

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "text/plain; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "5001 not_found: Resource not found.\n", recorder.Body.String())
}

func TestHttpHandlerHeadHasNoBody(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("HEAD", "/echo", nil)

	newTestHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, recorder.Body.Len())
}

func TestHttpHandlerOverServer(t *testing.T) {
	server := httptest.NewServer(newTestHandler())
	defer server.Close()

	res, err := http.Get(server.URL + "/echo?name=south")
	require.Nil(t, err)
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	require.Nil(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"name":"south"`)
}

func TestHttpCorsPreProcessorPreflight(t *testing.T) {
	cors := NewHttpCorsPreProcessor(HttpCorsPreProcessorProps{
		Enabled:        true,
		AllowedOrigins: []string{"https://garages.example"},
		AllowedMethods: []string{"GET", "POST"},
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/echo", nil)
	req.Header.Set("Origin", "https://garages.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	newTestHandler(cors).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "https://garages.example", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, recorder.Body.Len())
}

func TestHttpCorsPreProcessorActualRequest(t *testing.T) {
	cors := NewHttpCorsPreProcessor(HttpCorsPreProcessorProps{
		Enabled:        true,
		AllowedOrigins: []string{"https://garages.example"},
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/echo", nil)
	req.Header.Set("Origin", "https://garages.example")

	newTestHandler(cors).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "https://garages.example", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestHttpCorsPreProcessorDisabled(t *testing.T) {
	cors := NewHttpCorsPreProcessor(HttpCorsPreProcessorProps{Enabled: false})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/echo", nil)
	req.Header.Set("Origin", "https://garages.example")

	newTestHandler(cors).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}
