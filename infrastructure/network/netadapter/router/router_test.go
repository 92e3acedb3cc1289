package router

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRouteCapacity(t *testing.T) {
	route := NewRoute("test")
	for i := 0; i < DefaultMaxMessages; i++ {
		require.NoError(t, route.Enqueue(appmessage.NewMsgPing(uint64(i))))
	}

	err := route.Enqueue(appmessage.NewMsgPing(DefaultMaxMessages))
	require.True(t, errors.Is(err, ErrRouteCapacityReached), "unexpected error %+v", err)

	message, err := route.Dequeue()
	require.NoError(t, err)
	require.Equal(t, uint64(0), message.(*appmessage.MsgPing).Nonce)

	require.NoError(t, route.Enqueue(appmessage.NewMsgPing(DefaultMaxMessages)))
}

func TestRouteClose(t *testing.T) {
	route := NewRoute("test")
	require.NoError(t, route.Enqueue(appmessage.NewMsgVerAck()))
	route.Close()
	route.Close()

	err := route.Enqueue(appmessage.NewMsgVerAck())
	require.True(t, errors.Is(err, ErrRouteClosed))

	_, err = route.Dequeue()
	require.NoError(t, err)
	_, err = route.Dequeue()
	require.True(t, errors.Is(err, ErrRouteClosed))
}

func TestDequeueWithTimeout(t *testing.T) {
	route := NewRoute("test")
	_, err := route.DequeueWithTimeout(10 * time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout))
}

func TestRouterDispatch(t *testing.T) {
	router := NewRouter()
	pingRoute, err := router.AddIncomingRoute("ping", []appmessage.MessageCommand{appmessage.CmdPing})
	require.NoError(t, err)

	_, err = router.AddIncomingRoute("ping-again", []appmessage.MessageCommand{appmessage.CmdPing})
	require.Error(t, err)

	require.NoError(t, router.EnqueueIncomingMessage(appmessage.NewMsgPing(1)))
	require.Error(t, router.EnqueueIncomingMessage(appmessage.NewMsgPong(1)))

	message, err := pingRoute.Dequeue()
	require.NoError(t, err)
	require.Equal(t, appmessage.CmdPing, message.Command())

	require.NoError(t, router.RemoveRoute([]appmessage.MessageCommand{appmessage.CmdPing}))
	require.Error(t, router.EnqueueIncomingMessage(appmessage.NewMsgPing(2)))
	require.Error(t, router.RemoveRoute([]appmessage.MessageCommand{appmessage.CmdPing}))

	_, err = pingRoute.DequeueWithTimeout(time.Second)
	require.True(t, errors.Is(err, ErrRouteClosed), "unexpected error %+v", err)

	router.Close()
}

func TestRemoveRouteKeepsSharedRouteOpen(t *testing.T) {
	router := NewRouter()
	route, err := router.AddIncomingRoute("ping-pong",
		[]appmessage.MessageCommand{appmessage.CmdPing, appmessage.CmdPong})
	require.NoError(t, err)

	require.NoError(t, router.RemoveRoute([]appmessage.MessageCommand{appmessage.CmdPing}))
	require.NoError(t, router.EnqueueIncomingMessage(appmessage.NewMsgPong(1)))

	message, err := route.DequeueWithTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, appmessage.CmdPong, message.Command())

	require.NoError(t, router.RemoveRoute([]appmessage.MessageCommand{appmessage.CmdPong}))
	_, err = route.DequeueWithTimeout(time.Second)
	require.True(t, errors.Is(err, ErrRouteClosed), "unexpected error %+v", err)
}

func TestRemoveRouteAfterClose(t *testing.T) {
	router := NewRouter()
	_, err := router.AddIncomingRoute("ping", []appmessage.MessageCommand{appmessage.CmdPing})
	require.NoError(t, err)

	router.Close()
	require.NoError(t, router.RemoveRoute([]appmessage.MessageCommand{appmessage.CmdPing}))
}
