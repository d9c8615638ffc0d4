package forumfeed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/rabbitmq"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantErr    bool
		wantReject bool
		wantTitle  string
	}{
		{
			name:      "reply",
			body:      `{"user_uid":"u1","kind":"reply","content":"Sam replied to your post"}`,
			wantTitle: "New reply to your post",
		},
		{
			name:      "mention",
			body:      `{"user_uid":"u1","kind":"mention","content":"@you look at this"}`,
			wantTitle: "You were mentioned",
		},
		{
			name:       "invalid json",
			body:       `{"user_uid":`,
			wantErr:    true,
			wantReject: true,
		},
		{
			name:       "missing user",
			body:       `{"kind":"reply","content":"x"}`,
			wantErr:    true,
			wantReject: true,
		},
		{
			name:       "unknown kind",
			body:       `{"user_uid":"u1","kind":"poke","content":"x"}`,
			wantErr:    true,
			wantReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			registry := notification.NewRegistry(notification.MemoryFactory(), "", 0, newNoopLogger(), nil)
			feed := New(registry, newNoopLogger())

			err := feed.Handle(ctx, []byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantReject, errors.Is(err, rabbitmq.ErrReject))
				assert.Empty(t, registry.For("u1").List(ctx))
				return
			}
			require.NoError(t, err)

			list := registry.For("u1").List(ctx)
			require.Len(t, list, 1)
			assert.Equal(t, tt.wantTitle, list[0].Title)
			assert.Equal(t, models.NotificationInfo, list[0].Type)
			require.NotNil(t, list[0].Action)
			assert.Equal(t, notification.ForumPath, list[0].Action.URL)
		})
	}
}

type brokenStorage struct{}

func (brokenStorage) Read(context.Context) ([]byte, error) { return nil, nil }
func (brokenStorage) Write(context.Context, []byte) error  { return errors.New("redis down") }

func TestHandle_StorageFailureIsRetried(t *testing.T) {
	registry := notification.NewRegistry(func(string) notification.Storage { return brokenStorage{} },
		"", 0, newNoopLogger(), nil)
	feed := New(registry, newNoopLogger())

	err := feed.Handle(context.Background(), []byte(`{"user_uid":"u1","kind":"reaction","content":"+1"}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, rabbitmq.ErrReject))
}
