package compose

import (
	"context"
	"sync"

	"penpal/models"
)

type searchResult struct {
	resp *models.SearchUsersResponse
	err  error
}

// fakeSearcher answers searches from a script, repeating the last entry
type fakeSearcher struct {
	mu       sync.Mutex
	results  []searchResult
	requests []models.SearchUsersRequest
}

func (f *fakeSearcher) SearchUsers(_ context.Context, req models.SearchUsersRequest) (*models.SearchUsersResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	r := f.results[len(f.results)-1]
	if n := len(f.requests); n <= len(f.results) {
		r = f.results[n-1]
	}
	return r.resp, r.err
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeSender struct {
	mu       sync.Mutex
	requests []models.SendLetterRequest
	resp     *models.SendLetterResponse
	err      error
	entered  chan struct{}
	release  chan struct{}
}

func (f *fakeSender) SendLetter(_ context.Context, req models.SendLetterRequest) (*models.SendLetterResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

func (f *fakeSender) sent() []models.SendLetterRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SendLetterRequest(nil), f.requests...)
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []Toast
}

func (n *recordingNotifier) Notify(_ string, t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

func (n *recordingNotifier) keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var keys []string
	for _, t := range n.toasts {
		keys = append(keys, t.Key)
	}
	return keys
}

func searchResponse(items ...models.SearchUsersItem) *models.SearchUsersResponse {
	return &models.SearchUsersResponse{Count: len(items), Items: items}
}

func penPal(id, handle string) models.SearchUsersItem {
	return models.SearchUsersItem{
		UserProfile: models.UserProfile{UserID: id, AnonymousHandle: handle},
	}
}
