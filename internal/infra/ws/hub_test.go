package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
	"gigchat/internal/infra/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, *memory.MessageRepository, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewMessageRepository()
	hub := NewHub(repo, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", Serve(hub))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hub, repo, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialRoom(t *testing.T, url, conversationID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	join, err := dto.NewEvent(dto.EventJoinRoom, dto.JoinRoom{ConversationID: conversationID})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(join))
	return conn
}

func readNewMessage(t *testing.T, conn *websocket.Conn) dto.ChatMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event dto.Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, dto.EventNewMessage, event.Event)
	var wire dto.ChatMessage
	require.NoError(t, json.Unmarshal(event.Data, &wire))
	return wire
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "expected no delivery outside the room")
}

func sendText(t *testing.T, conn *websocket.Conn, conversationID, body string) {
	t.Helper()
	event, err := dto.NewEvent(dto.EventSendMessage, dto.ChatMessage{
		ConversationID: conversationID,
		SenderID:       "u1",
		SenderRole:     string(chat.RoleClient),
		Kind:           string(chat.KindText),
		Body:           body,
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(event))
}

func TestBroadcastScopedToRoom(t *testing.T) {
	_, repo, url := startHub(t)

	alice := dialRoom(t, url, "42")
	bob := dialRoom(t, url, "42")
	carol := dialRoom(t, url, "43")

	sendText(t, alice, "42", "Hello")

	for _, conn := range []*websocket.Conn{alice, bob} {
		got := readNewMessage(t, conn)
		assert.Equal(t, "Hello", got.Body)
		assert.Equal(t, "42", got.ConversationID)
		assert.NotEmpty(t, got.ID, "server must assign an id")
		assert.False(t, got.Timestamp.IsZero(), "server must assign a timestamp")
	}
	expectSilence(t, carol)

	stored, err := repo.ListByConversation(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Hello", stored[0].Body)
}

func TestSenderReceivesOwnRebroadcast(t *testing.T) {
	_, _, url := startHub(t)
	alice := dialRoom(t, url, "42")

	sendText(t, alice, "42", "echo me")
	got := readNewMessage(t, alice)
	assert.Equal(t, "echo me", got.Body)
}

func TestInvalidMessageNotBroadcastOrStored(t *testing.T) {
	_, repo, url := startHub(t)
	alice := dialRoom(t, url, "42")
	bob := dialRoom(t, url, "42")

	sendText(t, alice, "42", "   ")
	expectSilence(t, bob)

	stored, err := repo.ListByConversation(context.Background(), "42")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestExternalBroadcastReachesRoom(t *testing.T) {
	hub, _, url := startHub(t)
	alice := dialRoom(t, url, "42")

	// Round-trip one message first so the join is known to be processed
	// before the relay broadcast lands.
	sendText(t, alice, "42", "warmup")
	readNewMessage(t, alice)

	hub.Broadcast(&chat.Message{
		ID:             "remote-1",
		ConversationID: "42",
		SenderID:       "u9",
		SenderRole:     chat.RoleFreelancer,
		Kind:           chat.KindText,
		Body:           "from another node",
		Timestamp:      time.Now().UTC(),
	})

	got := readNewMessage(t, alice)
	assert.Equal(t, "remote-1", got.ID)
	assert.Equal(t, "from another node", got.Body)
}

func TestMessagesDeliveredInOrder(t *testing.T) {
	_, _, url := startHub(t)
	alice := dialRoom(t, url, "42")
	bob := dialRoom(t, url, "42")

	bodies := []string{"one", "two", "three", "four", "five"}
	for _, body := range bodies {
		sendText(t, alice, "42", body)
	}
	for i := range bodies {
		got := readNewMessage(t, bob)
		assert.Equal(t, bodies[i], got.Body)
	}
}
