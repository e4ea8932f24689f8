package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"carwash-backend/internal/db"
	"carwash-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

const (
	subscriptionsQuery = `SELECT .* FROM "push_subscriptions".*JOIN ticket_watches tw .*WHERE tw\.ticket = \$1`
	clearWatchesExec   = `DELETE FROM "ticket_watches" WHERE ticket = \$1`
)

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch("ticket-123")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "ticket-123", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDoesNotBlockWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(wp.jobs)+3; i++ {
			wp.Dispatch(fmt.Sprintf("ticket-%d", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Len(t, wp.jobs, cap(wp.jobs))
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Equal(t, "Your car is ready! (ticket 9b2f64c1)", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		ticket := "9b2f64c1-7d0e-4f4a-9a55-0d7f3c1e2b11"
		mock.ExpectQuery(subscriptionsQuery).
			WithArgs(ticket).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(clearWatchesExec).
			WithArgs(ticket).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		wp.Dispatch(ticket)
		wg.Wait()
		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("expired-ticket").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "test_p256dh_expired", "test_auth_expired", time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "ticket_watches" WHERE endpoint = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(clearWatchesExec).
			WithArgs("expired-ticket").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		wp.Dispatch("expired-ticket")

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("no subscribers sends nothing", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("sender must not be called without subscribers")
				return nil, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("lonely-ticket").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		wp.Dispatch("lonely-ticket")

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})
}

func TestWorkerPool_NotifiesOnlyWatchers(t *testing.T) {
	gormDB, err := gorm.Open(sqlite.Open("file:notify_watchers?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	const alice, bob = "https://push.example.com/alice", "https://push.example.com/bob"
	require.NoError(t, gormDB.Create(&[]model.PushSubscription{
		{Endpoint: alice, P256DH: "alice_p256dh", Auth: "alice_auth"},
		{Endpoint: bob, P256DH: "bob_p256dh", Auth: "bob_auth"},
	}).Error)
	require.NoError(t, gormDB.Create(&[]model.TicketWatch{
		{Ticket: "ticket-a", Endpoint: alice},
		{Ticket: "ticket-b", Endpoint: bob},
	}).Error)

	var sentTo []string
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			sentTo = append(sentTo, sub.Endpoint)
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	wp.notifyWashFinished(context.Background(), "ticket-a")
	assert.Equal(t, []string{alice}, sentTo)

	var left []model.TicketWatch
	require.NoError(t, gormDB.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "ticket-b", left[0].Ticket)

	// a ticket finishes once; a repeated job reaches nobody
	wp.notifyWashFinished(context.Background(), "ticket-a")
	assert.Equal(t, []string{alice}, sentTo)

	wp.notifyWashFinished(context.Background(), "ticket-b")
	assert.Equal(t, []string{alice, bob}, sentTo)
}

func TestShortTicket(t *testing.T) {
	assert.Equal(t, "9b2f64c1", shortTicket("9b2f64c1-7d0e-4f4a-9a55-0d7f3c1e2b11"))
	assert.Equal(t, "abc", shortTicket("abc"))
}
