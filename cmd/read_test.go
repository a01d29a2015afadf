// ABOUTME: Tests for the read, add and remove commands
// ABOUTME: Verifies server mutations, argument validation and confirmation handling

package cmd

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/poremland/open-rss-client/internal/client"
)

func withReadFlags(t *testing.T, feed string, all bool) {
	t.Helper()
	readFeed, readAll = feed, all
	t.Cleanup(func() { readFeed, readAll = "", false })
}

func TestValidateReadArgs(t *testing.T) {
	tests := []struct {
		name    string
		feed    string
		all     bool
		args    []string
		wantErr bool
	}{
		{"single items", "", false, []string{"1"}, false},
		{"feed items", "1", false, []string{"11", "12"}, false},
		{"feed all", "1", true, nil, false},
		{"all without feed", "", true, nil, true},
		{"all with ids", "1", true, []string{"11"}, true},
		{"nothing", "", false, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withReadFlags(t, tt.feed, tt.all)
			err := validateReadArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateReadArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadCommand_Items(t *testing.T) {
	api, _ := setupCLI(t, true)
	seedFeeds(api)
	withReadFlags(t, "", false)

	var buf bytes.Buffer
	if code := runRead(context.Background(), &buf, []string{"11", "12"}); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if got := api.MarkedRead(); !slices.Equal(got, []int64{11, 12}) {
		t.Errorf("expected items marked one at a time, got %v", got)
	}
	if !strings.Contains(buf.String(), "Marked 2 item(s) as read") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestReadCommand_FeedAll(t *testing.T) {
	api, _ := setupCLI(t, true)
	seedFeeds(api)
	withReadFlags(t, "1", true)

	var buf bytes.Buffer
	if code := runRead(context.Background(), &buf, nil); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if got := api.BatchRead(1); !slices.Equal(got, []int64{11, 12}) {
		t.Errorf("expected bulk mark of all items, got %v", got)
	}
}

func TestReadCommand_FeedIDs(t *testing.T) {
	api, _ := setupCLI(t, true)
	seedFeeds(api)
	withReadFlags(t, "1", false)

	var buf bytes.Buffer
	if code := runRead(context.Background(), &buf, []string{"12"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if got := api.BatchRead(1); !slices.Equal(got, []int64{12}) {
		t.Errorf("expected [12], got %v", got)
	}
}

func TestAddCommand(t *testing.T) {
	api, _ := setupCLI(t, true)
	addName, addURI = "My Feed", "https://example.com/rss.xml"
	defer func() { addName, addURI = "", "" }()

	var buf bytes.Buffer
	if code := runAdd(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	want := client.NewFeed{URI: "https://example.com/rss.xml", Name: "My Feed", User: "alice"}
	if got := api.CreatedFeeds(); len(got) != 1 || got[0] != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if !strings.Contains(buf.String(), "Added feed") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestAddCommand_RequiresURI(t *testing.T) {
	setupCLI(t, true)

	var buf bytes.Buffer
	if code := runAdd(context.Background(), &buf); code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
}

func TestRemoveCommand(t *testing.T) {
	api, _ := setupCLI(t, true)
	seedFeeds(api)
	removeYes = true
	defer func() { removeYes = false }()

	var buf bytes.Buffer
	if code := runRemove(context.Background(), &buf, []string{"1", "2"}); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	got := api.RemovedFeeds()
	slices.Sort(got)
	if !slices.Equal(got, []int64{1, 2}) {
		t.Errorf("expected feeds 1 and 2 removed, got %v", got)
	}
}

func TestRemoveCommand_Cancelled(t *testing.T) {
	api, _ := setupCLI(t, true)
	seedFeeds(api)

	asked := 0
	prev := confirmRemove
	confirmRemove = func(n int) (bool, error) {
		asked = n
		return false, nil
	}
	defer func() { confirmRemove = prev }()

	var buf bytes.Buffer
	if code := runRemove(context.Background(), &buf, []string{"1"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if asked != 1 {
		t.Errorf("expected confirmation for 1 feed, got %d", asked)
	}
	if len(api.RemovedFeeds()) != 0 {
		t.Error("expected nothing removed")
	}
	if !strings.Contains(buf.String(), "Cancelled") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
