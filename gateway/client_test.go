package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmllt/kanvan/board"
)

func TestClientFetchKeepsOrder(t *testing.T) {
	f := &fakeTasks{cards: []board.Card{
		{ID: "2", Title: "b", Lane: board.Doing},
		{ID: "1", Title: "a", Lane: board.Todo},
	}}
	c := newFakeClient(t, f)

	cards, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.cards, cards)
}

func TestClientFetchRetriesServerErrors(t *testing.T) {
	f := &fakeTasks{failWith: http.StatusBadGateway}
	c := newFakeClient(t, f)

	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrRemoteRejected)
	assert.Equal(t, 3, f.count())
}

func TestClientFetchDoesNotRetryClientErrors(t *testing.T) {
	f := &fakeTasks{failWith: http.StatusForbidden}
	c := newFakeClient(t, f)

	_, err := c.Fetch(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Equal(t, 1, f.count())
}

func TestClientReportsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, time.Second, WithFetchRetries(0))
	require.NoError(t, err)

	err = c.Delete(context.Background(), "1")
	require.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.True(t, IsRemoteFailure(err))
}

func TestClientCreateReturnsRemoteRepresentation(t *testing.T) {
	f := &fakeTasks{}
	c := newFakeClient(t, f)

	got, err := c.Create(context.Background(), board.Card{ID: "x", Title: "t", Info: "i", Lane: board.Backlog})
	require.NoError(t, err)
	assert.Equal(t, "t (saved)", got.Title)
	assert.Equal(t, board.Backlog, got.Lane)
}

func TestClientDeleteMissingIsRejected(t *testing.T) {
	c := newFakeClient(t, &fakeTasks{})
	err := c.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, ErrRemoteRejected)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("", time.Second)
	require.Error(t, err)
}
