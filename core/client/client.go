// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast in-process access to a REST api

Instead of marshalling HTTP, the client talks directly to the router. The client
is perfectly suited for unit tests. With NewWithURL the same client talks to a
remote service.

Every response body is decoded into the result, also for error responses, so
callers can inspect the error envelope. Statuses of 400 and above are returned
as error in addition.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/crudkit/core/response"
)

// Client provides easy access to the REST API.
type Client struct {
	handler    http.Handler
	httpClient *http.Client
	url        string
	ctx        context.Context

	defaultHeaders map[string]string
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the router or any other handler
//
// WithContext() specifies a different base context all together.
func NewWithRouter(handler http.Handler) Client {
	return Client{
		handler:        handler,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := map[string]string{key: value}
	for k, v := range c.defaultHeaders {
		if k != key {
			headers[k] = v
		}
	}
	c.defaultHeaders = headers
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the request context of the client
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Response is a decoded response envelope. Data and Errors are kept raw, use
// DataAs and ErrorsAs to decode them.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *response.Meta  `json:"meta,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
}

// DataAs decodes the data of the envelope into v
func (r *Response) DataAs(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(r.Data, v)
}

// ErrorsAs decodes the errors of the envelope into v
func (r *Response) ErrorsAs(v any) error {
	if len(r.Errors) == 0 {
		return fmt.Errorf("response has no errors")
	}
	return json.Unmarshal(r.Errors, v)
}

// Raw makes a request with an optional JSON body. A []byte or string body is sent as is.
// The response body is decoded into result if result is not nil, a *[]byte result
// receives the raw body.
func (c Client) Raw(method, path string, body any, result any) (int, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = strings.NewReader(b)
	default:
		j, err := json.Marshal(body)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		reader = bytes.NewReader(j)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	if reader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Set(key, value)
	}

	var (
		status  int
		resBody []byte
	)
	if c.handler != nil {
		rec := httptest.NewRecorder()
		c.handler.ServeHTTP(rec, r)
		res := rec.Result()
		status = res.StatusCode
		resBody = rec.Body.Bytes()
	} else {
		res, err := c.httpClient.Do(r)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		defer res.Body.Close()
		status = res.StatusCode
		resBody, _ = io.ReadAll(res.Body)
	}

	if len(resBody) > 0 && result != nil {
		if raw, ok := result.(*[]byte); ok {
			*raw = resBody
		} else if err := json.Unmarshal(resBody, result); err != nil {
			return status, fmt.Errorf("cannot decode response of %s %s: %w", method, path, err)
		}
	}
	if status >= http.StatusBadRequest {
		return status, fmt.Errorf("%s %s returned status %d: %s", method, path, status, strings.TrimSpace(string(resBody)))
	}
	return status, nil
}

// RawGet makes a GET request
func (c Client) RawGet(path string, result any) (int, error) {
	return c.Raw(http.MethodGet, path, nil, result)
}

// RawPost makes a POST request
func (c Client) RawPost(path string, body any, result any) (int, error) {
	return c.Raw(http.MethodPost, path, body, result)
}

// RawPut makes a PUT request
func (c Client) RawPut(path string, body any, result any) (int, error) {
	return c.Raw(http.MethodPut, path, body, result)
}

// RawPatch makes a PATCH request
func (c Client) RawPatch(path string, body any, result any) (int, error) {
	return c.Raw(http.MethodPatch, path, body, result)
}

// RawDelete makes a DELETE request
func (c Client) RawDelete(path string, result any) (int, error) {
	return c.Raw(http.MethodDelete, path, nil, result)
}
