package network

import (
	"fmt"
	"io"
	"net/http"
)

// Http is a thin wrapper around the http client so that network access can be
// mocked in tests.
type Http interface {
	Get(req *http.Request) ([]byte, error)
}

type DefaultHttp struct {
	client *http.Client
}

func NewHttp() Http {
	return &DefaultHttp{
		client: &http.Client{},
	}
}

// Get executes the request and returns the body. Any non-2xx status is an
// error since the fee sources signal failure through status codes.
func (d *DefaultHttp) Get(req *http.Request) ([]byte, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("request to %s failed with status %d", req.URL.String(), resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
