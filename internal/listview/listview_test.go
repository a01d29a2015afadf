// ABOUTME: Tests for the list controller
// ABOUTME: Covers rendering delegation, gestures, bulk actions, refresh and optimistic removal

package listview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRequester struct {
	bodies []string
	errs   []error
	calls  int
}

func (s *stubRequester) GetWithAuth(context.Context, string) (client.Body, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.bodies) {
		i = len(s.bodies) - 1
	}
	return client.Body(s.bodies[i]), nil
}

func (s *stubRequester) PostWithAuth(context.Context, string, any, client.ContentType) (client.Body, error) {
	return nil, errors.New("unexpected post")
}

const twoFeeds = `[{"id":1,"name":"Feed 1","count":10},{"id":2,"name":"Feed 2","count":5}]`

func feedID(f client.Feed) int64 { return f.ID }

func renderFeed(r Row[client.Feed]) string {
	mark := " "
	if r.IsItemSelected {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s (%d)", mark, r.Item.Name, r.Item.Count)
}

func newFeedList(t *testing.T, req *stubRequester, opts ...Option[client.Feed]) *Controller[client.Feed] {
	t.Helper()
	res := fetch.New[[]client.Feed](req, client.PathAllFeeds)
	c := New(res, feedID, append([]Option[client.Feed]{WithRender(renderFeed)}, opts...)...)
	_, err := c.Load(context.Background())
	require.NoError(t, err)
	return c
}

func TestRenderDelegation(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	assert.Equal(t, []string{"[ ] Feed 1 (10)", "[ ] Feed 2 (5)"}, c.Render())

	c.LongPress(1)
	assert.Equal(t, []string{"[ ] Feed 1 (10)", "[x] Feed 2 (5)"}, c.Render())
}

func TestRenderWithoutRenderer(t *testing.T) {
	res := fetch.New(&stubRequester{}, "/x", fetch.WithInitial([]client.Feed{{ID: 1}}))
	c := New(res, feedID)
	assert.Nil(t, c.Render())
	assert.Len(t, c.Rows(), 1)
}

func TestPressActivatesWhileBrowsing(t *testing.T) {
	var activated []int64
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}},
		OnActivate(func(f client.Feed) { activated = append(activated, f.ID) }))

	c.Press(0)
	assert.Equal(t, []int64{1}, activated)
	assert.False(t, c.Selecting())

	c.LongPress(0)
	c.Press(1)
	assert.Equal(t, []int64{1}, activated, "press never activates while selecting")
	assert.Equal(t, []int64{1, 2}, c.Selected())
}

func TestRowCallbacks(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	rows := c.Rows()
	rows[1].OnLongPress()
	assert.Equal(t, []int64{2}, c.Selected())
	rows[0].OnPress()
	assert.Equal(t, []int64{2, 1}, c.Selected())
}

func TestOutOfRangeGesturesIgnored(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	c.Press(5)
	c.LongPress(-1)
	assert.False(t, c.Selecting())
}

func TestSelectAllAndDone(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	c.LongPress(1)
	c.SelectAll()
	assert.Equal(t, []int64{1, 2}, c.Selected())

	c.Done()
	assert.Equal(t, selection.Browsing, c.Mode())
	assert.Empty(t, c.Selected())
}

func TestExitPolicyOption(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}},
		WithExitPolicy[client.Feed](selection.ExitWhenEmpty))
	c.LongPress(0)
	c.Press(0)
	assert.False(t, c.Selecting())

	d := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	d.LongPress(0)
	d.Press(0)
	assert.True(t, d.Selecting(), "default policy waits for Done")
}

func TestBulkAction(t *testing.T) {
	req := &stubRequester{bodies: []string{twoFeeds, `[{"id":2,"name":"Feed 2","count":5}]`}}
	c := newFeedList(t, req)
	c.LongPress(0)

	var got []int64
	err := c.BulkAction(context.Background(), func(_ context.Context, ids []int64) error {
		got = ids
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, got)
	assert.False(t, c.Selecting())
	assert.Equal(t, 2, req.calls, "refreshes after the action")
	assert.Len(t, c.Snapshot(), 1)
}

func TestBulkActionFailureKeepsSelection(t *testing.T) {
	req := &stubRequester{bodies: []string{twoFeeds}}
	c := newFeedList(t, req)
	c.SelectAll()

	err := c.BulkAction(context.Background(), func(context.Context, []int64) error {
		return errors.New("server down")
	})
	assert.EqualError(t, err, "server down")
	assert.Equal(t, []int64{1, 2}, c.Selected())
	assert.Equal(t, 2, req.calls, "refreshes after a failed action")
}

func TestBulkActionPartialFailurePrunesSelection(t *testing.T) {
	req := &stubRequester{bodies: []string{twoFeeds, `[{"id":2,"name":"Feed 2","count":5}]`}}
	c := newFeedList(t, req)
	c.SelectAll()

	err := c.BulkAction(context.Background(), func(context.Context, []int64) error {
		return errors.New("remove feed 2: 500")
	})
	assert.EqualError(t, err, "remove feed 2: 500")
	assert.Equal(t, []int64{2}, c.Selected(), "applied ids leave the selection")
	assert.True(t, c.Selecting())
	assert.Len(t, c.Snapshot(), 1)
}

func TestBulkActionFailedRefreshKeepsActionError(t *testing.T) {
	req := &stubRequester{
		bodies: []string{twoFeeds},
		errs:   []error{nil, errors.New("refresh down")},
	}
	c := newFeedList(t, req)
	c.SelectAll()

	err := c.BulkAction(context.Background(), func(context.Context, []int64) error {
		return errors.New("server down")
	})
	assert.EqualError(t, err, "server down")
	assert.Equal(t, []int64{1, 2}, c.Selected())
	assert.Equal(t, "refresh down", c.State().Error)
	assert.False(t, c.Refreshing())
}

func TestBulkActionNothingSelected(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	called := false
	require.NoError(t, c.BulkAction(context.Background(), func(context.Context, []int64) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestRefreshClearsFlagOnFailure(t *testing.T) {
	req := &stubRequester{bodies: []string{twoFeeds, twoFeeds}, errs: []error{nil, errors.New("offline")}}
	c := newFeedList(t, req)

	_, err := c.Refresh(context.Background())
	assert.Error(t, err)
	assert.False(t, c.Refreshing())
	assert.Equal(t, "offline", c.State().Error)
	assert.Len(t, c.Snapshot(), 2, "stale rows stay visible")
}

func TestRemoveOptimistically(t *testing.T) {
	req := &stubRequester{bodies: []string{twoFeeds}}
	c := newFeedList(t, req)
	c.SelectAll()

	assert.True(t, c.Remove(1))
	assert.Equal(t, []string{"[x] Feed 2 (5)"}, c.Render())
	assert.Equal(t, []int64{2}, c.Selected(), "removed id leaves the selection")
	assert.Equal(t, 1, req.calls, "no refetch")

	assert.False(t, c.Remove(42))
}

func TestReplaceAndSnapshot(t *testing.T) {
	c := newFeedList(t, &stubRequester{bodies: []string{twoFeeds}})
	c.Replace([]client.Feed{{ID: 9, Name: "Nine", Count: 1}})
	assert.Equal(t, 1, c.Len())

	snap := c.Snapshot()
	snap[0].Name = "changed"
	assert.Equal(t, "Nine", c.Snapshot()[0].Name, "snapshot is a copy")
}
