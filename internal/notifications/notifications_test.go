package notifications_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/crowdcade/internal/notifications"
)

type recorder struct {
	got []notifications.Notice
	err error
}

func (r *recorder) Notify(n notifications.Notice) error {
	r.got = append(r.got, n)
	return r.err
}

func TestBroadcasterDeliversToEverySubscriber(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	var bc notifications.Broadcaster
	bc.Subscribe(a)
	bc.Subscribe(b)

	require.NoError(t, bc.Notify(notifications.NotifyModeDemocracy))
	assert.Equal(t, []notifications.Notice{notifications.NotifyModeDemocracy}, a.got)
	assert.Equal(t, []notifications.Notice{notifications.NotifyModeDemocracy}, b.got)
}

func TestBroadcasterJoinsSubscriberErrorsWithoutStoppingDelivery(t *testing.T) {
	failing := &recorder{err: errors.New("boom")}
	ok := &recorder{}
	var bc notifications.Broadcaster
	bc.Subscribe(failing)
	bc.Subscribe(ok)

	err := bc.Notify(notifications.NotifySaveWritten)
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, ok.got, 1)
}

func TestBroadcasterCanSubscribeToAnotherBroadcaster(t *testing.T) {
	leaf := &recorder{}
	var inner notifications.Broadcaster
	inner.Subscribe(leaf)

	var outer notifications.Broadcaster
	outer.Subscribe(&inner)

	require.NoError(t, outer.Notify(notifications.NotifyClientJoined))
	assert.Equal(t, []notifications.Notice{notifications.NotifyClientJoined}, leaf.got)
}
