// ABOUTME: In-process fake of the RSS server for client, CLI and TUI tests
// ABOUTME: Routes with gorilla/mux and records every mutation for assertions

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/poremland/open-rss-client/internal/client"
)

// Credentials accepted by the fake server
const (
	ValidOTP       = "123456"
	ValidToken     = "test-token"
	RefreshedToken = "refreshed-token"
)

// FakeAPI is a scripted RSS server
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	tokens     map[string]bool
	feeds      []client.Feed
	items      map[int64][]client.FeedItem
	read       map[int64]bool
	nextFeedID int64
	hits       map[string]int
	failStatus map[string]int
	dropConns  map[string]int
	expired    bool

	otpRequests  []string
	markedRead   []int64
	batchRead    map[int64][]int64
	removedFeeds []int64
	createdFeeds []client.NewFeed
}

// NewFakeAPI starts a fake server that is closed when the test ends
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		tokens:     map[string]bool{ValidToken: true},
		items:      map[int64][]client.FeedItem{},
		read:       map[int64]bool{},
		nextFeedID: 100,
		hits:       map[string]int{},
		failStatus: map[string]int{},
		dropConns:  map[string]int{},
		batchRead:  map[int64][]int64{},
	}
	f.Server = httptest.NewServer(f.router())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL
func (f *FakeAPI) URL() string { return f.Server.URL }

// AddFeed seeds a feed with its unread items. When items is empty, count is
// reported as the feed's unread count.
func (f *FakeAPI) AddFeed(feed client.Feed, items ...client.FeedItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = append(f.feeds, feed)
	for i := range items {
		items[i].FeedID = feed.ID
	}
	if len(items) > 0 {
		f.items[feed.ID] = items
	}
}

// Fail makes every request to path answer with status
func (f *FakeAPI) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus[path] = status
}

// DropConnections closes the connection without a response for the next n requests to path
func (f *FakeAPI) DropConnections(path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropConns[path] = n
}

// ExpireSession makes every authenticated call answer 401
func (f *FakeAPI) ExpireSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = true
}

// Hits returns how many requests reached path
func (f *FakeAPI) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// Feeds returns the feeds still subscribed
func (f *FakeAPI) Feeds() []client.Feed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.feeds)
}

// IsRead reports whether an item was marked read by either endpoint
func (f *FakeAPI) IsRead(itemID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read[itemID]
}

// OTPRequests returns the usernames that asked for a passcode
func (f *FakeAPI) OTPRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.otpRequests)
}

// MarkedRead returns item ids marked read one at a time
func (f *FakeAPI) MarkedRead() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.markedRead)
}

// BatchRead returns item ids marked read in bulk for a feed
func (f *FakeAPI) BatchRead(feedID int64) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.batchRead[feedID])
}

// RemovedFeeds returns deleted feed ids in arrival order
func (f *FakeAPI) RemovedFeeds() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.removedFeeds)
}

// CreatedFeeds returns every accepted create request
func (f *FakeAPI) CreatedFeeds() []client.NewFeed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.createdFeeds)
}

func (f *FakeAPI) router() http.Handler {
	r := mux.NewRouter()
	r.Use(f.record)

	r.HandleFunc(client.PathRequestOTP, f.handleRequestOTP).Methods(http.MethodPost)
	r.HandleFunc(client.PathLogin, f.handleLogin).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(f.requireAuth)
	authed.HandleFunc(client.PathRefreshToken, f.handleRefresh).Methods(http.MethodPost)
	authed.HandleFunc(client.PathFeedTree, f.handleTree).Methods(http.MethodGet)
	authed.HandleFunc(client.PathAllFeeds, f.handleAllFeeds).Methods(http.MethodGet)
	authed.HandleFunc(client.PathCreateFeed, f.handleCreate).Methods(http.MethodPost)
	authed.HandleFunc("/feeds/{id:[0-9]+}.json", f.handleFeedItems).Methods(http.MethodGet)
	authed.HandleFunc("/feed_items/{id:[0-9]+}.json", f.handleItem).Methods(http.MethodGet)
	authed.HandleFunc("/feed_items/mark_as_read/{id:[0-9]+}.json", f.handleMarkRead).Methods(http.MethodGet)
	authed.HandleFunc("/feeds/mark_items_as_read/{id:[0-9]+}", f.handleMarkItemsRead).Methods(http.MethodPost)
	authed.HandleFunc("/feeds/remove/{id:[0-9]+}", f.handleRemove).Methods(http.MethodGet)
	return r
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		drop := f.dropConns[r.URL.Path]
		if drop > 0 {
			f.dropConns[r.URL.Path] = drop - 1
		}
		status := f.failStatus[r.URL.Path]
		f.mu.Unlock()

		if drop > 0 {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
		}
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		token, found := bearer(r)
		ok := found && f.tokens[token] && !f.expired
		f.mu.Unlock()
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return "", false
	}
	return h[len(prefix):], true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (f *FakeAPI) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.otpRequests = append(f.otpRequests, r.PostFormValue("username"))
	f.mu.Unlock()
	writeJSON(w, map[string]string{"status": "sent"})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.PostFormValue("otp") != ValidOTP || r.PostFormValue("username") == "" {
		writeJSON(w, map[string]string{"error": "invalid otp"})
		return
	}
	writeJSON(w, map[string]string{"token": ValidToken})
}

func (f *FakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokens[RefreshedToken] = true
	f.mu.Unlock()
	writeJSON(w, map[string]string{"token": RefreshedToken})
}

func (f *FakeAPI) unreadLocked(feedID int64) []client.FeedItem {
	out := []client.FeedItem{}
	for _, it := range f.items[feedID] {
		if !f.read[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

func (f *FakeAPI) handleTree(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	entries := make([]client.FeedTreeEntry, 0, len(f.feeds))
	for _, feed := range f.feeds {
		if _, ok := f.items[feed.ID]; ok {
			feed.Count = len(f.unreadLocked(feed.ID))
		}
		if feed.Count == 0 {
			continue
		}
		entries = append(entries, client.FeedTreeEntry{Feed: &feed})
	}
	f.mu.Unlock()
	writeJSON(w, entries)
}

func (f *FakeAPI) handleAllFeeds(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	feeds := slices.Clone(f.feeds)
	f.mu.Unlock()
	if feeds == nil {
		feeds = []client.Feed{}
	}
	writeJSON(w, feeds)
}

func (f *FakeAPI) handleFeedItems(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	items := f.unreadLocked(pathID(r))
	f.mu.Unlock()
	writeJSON(w, items)
}

func (f *FakeAPI) handleItem(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, items := range f.items {
		for _, it := range items {
			if it.ID == id {
				writeJSON(w, it)
				return
			}
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

func (f *FakeAPI) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	f.mu.Lock()
	f.read[id] = true
	f.markedRead = append(f.markedRead, id)
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) handleMarkItemsRead(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := json.Unmarshal([]byte(r.PostFormValue("items")), &ids); err != nil {
		http.Error(w, "items must be a JSON array", http.StatusUnprocessableEntity)
		return
	}
	feedID := pathID(r)
	f.mu.Lock()
	for _, id := range ids {
		f.read[id] = true
	}
	f.batchRead[feedID] = append(f.batchRead[feedID], ids...)
	f.mu.Unlock()
	writeJSON(w, map[string]int{"marked": len(ids)})
}

func (f *FakeAPI) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = slices.DeleteFunc(f.feeds, func(feed client.Feed) bool { return feed.ID == id })
	delete(f.items, id)
	f.removedFeeds = append(f.removedFeeds, id)
	w.Write([]byte("OK"))
}

func (f *FakeAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	nf := client.NewFeed{
		URI:  r.PostFormValue("feed[uri]"),
		Name: r.PostFormValue("feed[name]"),
		User: r.PostFormValue("feed[user]"),
	}
	if nf.URI == "" {
		writeJSON(w, map[string]int64{"id": 0})
		return
	}
	f.mu.Lock()
	f.nextFeedID++
	id := f.nextFeedID
	f.feeds = append(f.feeds, client.Feed{ID: id, Name: nf.Name, URI: nf.URI, User: nf.User})
	f.createdFeeds = append(f.createdFeeds, nf)
	f.mu.Unlock()
	writeJSON(w, map[string]int64{"id": id})
}
