package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/notification"
)

func TestService_NotifyAdmins(t *testing.T) {
	sender := uuid.New()
	expenseID := uuid.New()
	admins := []*identity.User{{ID: uuid.New()}, {ID: uuid.New()}}

	type testCase struct {
		name      string
		setupMock func(r *notification.MockRepository, d *notification.MockAdminDirectory, tr *notification.MockTransport)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "OnePerAdmin",
			setupMock: func(r *notification.MockRepository, d *notification.MockAdminDirectory, tr *notification.MockTransport) {
				d.EXPECT().Admins(gomock.Any()).Return(admins, nil)
				r.EXPECT().
					CreateNotifications(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, ns []*notification.Notification) error {
						require.Len(t, ns, 2)

						for i, n := range ns {
							assert.Equal(t, sender, n.SenderID)
							assert.Equal(t, admins[i].ID, n.RecipientID)
							assert.Equal(t, &expenseID, n.ExpenseID)
						}

						return nil
					})
				tr.EXPECT().Send(gomock.Any(), admins[0].ID, "hello").Return(nil)
				tr.EXPECT().Send(gomock.Any(), admins[1].ID, "hello").Return(nil)
			},
		},
		{
			name: "TransportFailureIgnored",
			setupMock: func(r *notification.MockRepository, d *notification.MockAdminDirectory, tr *notification.MockTransport) {
				d.EXPECT().Admins(gomock.Any()).Return(admins[:1], nil)
				r.EXPECT().CreateNotifications(gomock.Any(), gomock.Any()).Return(nil)
				tr.EXPECT().Send(gomock.Any(), admins[0].ID, "hello").Return(errors.New("offline"))
			},
		},
		{
			name: "NoAdmins",
			setupMock: func(_ *notification.MockRepository, d *notification.MockAdminDirectory, _ *notification.MockTransport) {
				d.EXPECT().Admins(gomock.Any()).Return(nil, nil)
			},
		},
		{
			name: "StoreError",
			setupMock: func(r *notification.MockRepository, d *notification.MockAdminDirectory, _ *notification.MockTransport) {
				d.EXPECT().Admins(gomock.Any()).Return(admins, nil)
				r.EXPECT().CreateNotifications(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := notification.NewMockRepository(ctrl)
			dir := notification.NewMockAdminDirectory(ctrl)
			tr := notification.NewMockTransport(ctrl)
			tt.setupMock(repo, dir, tr)

			svc := notification.NewService(repo, dir, tr)
			err := svc.NotifyAdmins(context.Background(), sender, &expenseID, "hello")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_NotifyAdmins_SharedPushDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	admins := []*identity.User{{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}}

	repo := notification.NewMockRepository(ctrl)
	dir := notification.NewMockAdminDirectory(ctrl)
	tr := notification.NewMockTransport(ctrl)

	dir.EXPECT().Admins(gomock.Any()).Return(admins, nil)
	repo.EXPECT().CreateNotifications(gomock.Any(), gomock.Any()).Return(nil)

	var deadlines []time.Time

	tr.EXPECT().
		Send(gomock.Any(), gomock.Any(), "hello").
		DoAndReturn(func(ctx context.Context, _ uuid.UUID, _ string) error {
			d, ok := ctx.Deadline()
			require.True(t, ok)
			deadlines = append(deadlines, d)

			<-ctx.Done()

			return ctx.Err()
		}).
		Times(3)

	svc := notification.NewService(repo, dir, tr).WithPushTimeout(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, svc.NotifyAdmins(context.Background(), uuid.New(), nil, "hello"))

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, deadlines, 3)
	assert.Equal(t, deadlines[0], deadlines[1])
	assert.Equal(t, deadlines[0], deadlines[2])
}

func TestService_NotifyUser_TruncatesMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	recipient := uuid.New()
	long := strings.Repeat("x", 300)

	repo := notification.NewMockRepository(ctrl)
	repo.EXPECT().
		CreateNotifications(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ns []*notification.Notification) error {
			assert.Len(t, ns[0].Message, notification.MaxMessageLen)
			return nil
		})

	svc := notification.NewService(repo, nil, nil)
	require.NoError(t, svc.NotifyUser(context.Background(), uuid.New(), recipient, nil, long))
}

func TestService_Get_OtherRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	me := &identity.User{ID: uuid.New()}

	repo := notification.NewMockRepository(ctrl)
	repo.EXPECT().GetNotification(gomock.Any(), id).Return(&notification.Notification{ID: id, RecipientID: uuid.New()}, nil)

	_, err := notification.NewService(repo, nil, nil).Get(context.Background(), me, id)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_MarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	me := &identity.User{ID: uuid.New()}

	repo := notification.NewMockRepository(ctrl)
	repo.EXPECT().GetNotification(gomock.Any(), id).Return(&notification.Notification{ID: id, RecipientID: me.ID}, nil)
	repo.EXPECT().SetRead(gomock.Any(), id, true).Return(nil)

	got, err := notification.NewService(repo, nil, nil).MarkRead(context.Background(), me, id, true)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestWebhookTransport_Send(t *testing.T) {
	recipient := uuid.New()

	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := notification.NewWebhookTransport(srv.URL, time.Second)
	require.NoError(t, tr.Send(context.Background(), recipient, "verified"))
	assert.Equal(t, recipient.String(), got["recipient"])
	assert.Equal(t, "verified", got["message"])
}

func TestWebhookTransport_Send_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := notification.NewWebhookTransport(srv.URL, time.Second)
	assert.Error(t, tr.Send(context.Background(), uuid.New(), "x"))
}
