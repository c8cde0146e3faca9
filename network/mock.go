package network

import "net/http"

type MockHttp struct {
	GetFunc func(req *http.Request) ([]byte, error)

	// LastRequest records the most recent request for assertions on URL and
	// headers.
	LastRequest *http.Request
}

func (m *MockHttp) Get(req *http.Request) ([]byte, error) {
	m.LastRequest = req

	if m.GetFunc != nil {
		return m.GetFunc(req)
	}

	return nil, nil
}
