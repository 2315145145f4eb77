package request

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// RequestService defines the interface for calls to an upstream processor.
// Errors are transport-level only; status classification is the caller's job.
type RequestService interface {
	Post(ctx context.Context, uri string, body any, response any) (Response, error)
	Get(ctx context.Context, uri string, response any) (Response, error)
}

type requestService struct {
	baseURL string
	*options
}

type options struct {
	timeout          time.Duration
	afterRequestFunc afterRequest
}

type afterRequest func(success bool, took time.Duration)

// WithTimeout bounds every request issued by the service.
func WithTimeout(timeout time.Duration) func(*options) {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithAfterRequestFunc sets a function called after each attempted request
// with its outcome and duration.
func WithAfterRequestFunc(fn afterRequest) func(*options) {
	return func(opts *options) {
		opts.afterRequestFunc = fn
	}
}

// NewRequestService creates a new instance of requestService
func NewRequestService(baseURL string, opts ...func(*options)) RequestService {
	rs := &requestService{
		baseURL: baseURL,
		options: &options{},
	}
	for _, opt := range opts {
		opt(rs.options)
	}
	return rs
}

// Post sends a POST request to the specified URI with the given body
func (r *requestService) Post(ctx context.Context, uri string, body any, response any) (Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(http.MethodPost)
	req.Header.Set("content-type", "application/json")
	req.SetRequestURI(r.baseURL + uri)
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, err
	}
	req.SetBody(payload)

	if err := r.do(req, resp); err != nil {
		return Response{}, err
	}

	bodyResp := resp.Body()
	ret := Response{
		StatusCode: resp.StatusCode(),
		Message:    string(bodyResp),
	}

	if isSuccess(ret.StatusCode) && response != nil {
		if err := json.Unmarshal(bodyResp, response); err != nil {
			return ret, err
		}
	}
	return ret, nil
}

// Get sends a GET request to the specified URI
func (r *requestService) Get(ctx context.Context, uri string, response any) (Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(http.MethodGet)
	req.Header.Set("accept", "application/json")
	req.SetRequestURI(r.baseURL + uri)

	if err := r.do(req, resp); err != nil {
		return Response{}, err
	}

	bodyResp := resp.Body()
	ret := Response{
		StatusCode: resp.StatusCode(),
		Message:    string(bodyResp),
	}

	if isSuccess(ret.StatusCode) && response != nil {
		if err := json.Unmarshal(bodyResp, response); err != nil {
			return ret, err
		}
	}
	return ret, nil
}

// do issues the request, bounded by the configured timeout. The raw fasthttp
// error is returned unwrapped so callers can match fasthttp.ErrTimeout.
func (r *requestService) do(req *fasthttp.Request, resp *fasthttp.Response) error {
	start := time.Now()
	var err error
	if r.timeout > 0 {
		err = fasthttp.DoTimeout(req, resp, r.timeout)
	} else {
		err = fasthttp.Do(req, resp)
	}

	if r.afterRequestFunc != nil {
		r.afterRequestFunc(err == nil && isSuccess(resp.StatusCode()), time.Since(start))
	}
	return err
}

func isSuccess(statusCode int) bool {
	return statusCode/100 == 2
}
