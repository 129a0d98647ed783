package birdsy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	bhttp "birdsync/http"
)

const testToken = "tok-123"

// fakeService is an in-memory Birdsy API.
type fakeService struct {
	mu sync.Mutex

	days      []Day
	episodes  map[string][]map[string]any // date -> raw episode resources
	pageSize  int
	daysCode  int         // non-zero forces a status for /days
	pageCodes map[int]int // page -> forced status
	failTimes map[int]int // page -> number of 500s before succeeding

	authCalls    int
	daysCalls    int
	pageCalls    map[int]int
	deleteBodies []string
}

func newFakeService() *fakeService {
	return &fakeService{
		episodes:  make(map[string][]map[string]any),
		pageSize:  10,
		pageCodes: make(map[int]int),
		failTimes: make(map[int]int),
		pageCalls: make(map[int]int),
	}
}

func episodeJSON(id int, favorite bool) map[string]any {
	return map[string]any{
		"id":   id,
		"type": "episode",
		"attributes": map[string]any{
			"favorite":              favorite,
			"title":                 fmt.Sprintf("Visit %d", id),
			"formatted_recorded_at": "2024-01-01 10:00",
			"duration":              30,
			"image_url":             fmt.Sprintf("http://cdn/%d.jpg", id),
			"video_url":             fmt.Sprintf("http://cdn/%d.mp4", id),
		},
	}
}

func (f *fakeService) addDay(date string, n int) {
	f.days = append(f.days, Day{Date: date, Count: n})
	for i := 0; i < n; i++ {
		f.episodes[date] = append(f.episodes[date], episodeJSON(len(f.episodes[date])+1, i%2 == 0))
	}
}

func (f *fakeService) totalPageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.pageCalls {
		n += c
	}
	return n
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/api/v1/auth" && r.Header.Get("authorization") != testToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/api/v1/auth":
		f.authCalls++
		var req authRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.GrantType != "password" || req.Email != "owl@example.com" || req.Password != "hoot" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"errors":[{"title":"invalid credentials"}]}`))
			return
		}
		fmt.Fprintf(w, `{"data":{"attributes":{"token":%q}}}`, testToken)

	case "/api/v2/episodes/days":
		f.daysCalls++
		if f.daysCode != 0 {
			w.WriteHeader(f.daysCode)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"meta": map[string]any{"days": f.days}})

	case "/api/v2/episodes":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		date := r.URL.Query().Get("date")
		f.pageCalls[page]++
		if code := f.pageCodes[page]; code != 0 {
			w.WriteHeader(code)
			return
		}
		if f.failTimes[page] > 0 {
			f.failTimes[page]--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		all := f.episodes[date]
		start := (page - 1) * f.pageSize
		end := min(start+f.pageSize, len(all))
		data := []map[string]any{}
		if start < len(all) {
			data = all[start:end]
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})

	case "/api/v2/episodes/group_actions/delete":
		var raw json.RawMessage
		json.NewDecoder(r.Body).Decode(&raw)
		f.deleteBodies = append(f.deleteBodies, string(raw))
		w.Write([]byte(`{}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeService) *Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	cfg := bhttp.DefaultConfig()
	cfg.RateLimiter.RPS = 0
	return New(Options{
		BaseURL:         server.URL,
		HTTP:            bhttp.New(cfg),
		MaxPageAttempts: 3,
		PagePause:       1,
	})
}
