package logging

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockHandler(t *testing.T) (*PGHandler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewPGHandler(db), mock
}

func authFailureRecord(msg string) slog.Record {
	record := slog.NewRecord(time.Now(), slog.LevelError, msg, 0)
	record.AddAttrs(
		slog.String("kind", "CREDENTIALS_INVALID"),
		slog.String("user_id", "2dd929f2-8d0a-4b3e-9a3f-0f4f4f6d8e11"),
		slog.String("email", "dana@example.com"),
		slog.String("provider", "google"),
		slog.String("route", "/api/auth/login"),
		slog.String("error", "crypto/bcrypt: hashedPassword is not the hash of the given password"),
		slog.Int("attempt", 3),
	)
	return record
}

func discardBufferAndStop(h *PGHandler) {
	h.mu.Lock()
	h.buffer = nil
	h.mu.Unlock()
	h.Stop()
}

func TestPGHandlerOnlyErrorAndAbove(t *testing.T) {
	h, _ := newMockHandler(t)
	defer discardBufferAndStop(h)

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPGHandlerExtractsAuthColumns(t *testing.T) {
	h, _ := newMockHandler(t)
	defer discardBufferAndStop(h)

	require.NoError(t, h.Handle(context.Background(), authFailureRecord("sign-in rejected")))

	require.Len(t, h.buffer, 1)
	entry := h.buffer[0]
	assert.Equal(t, "sign-in rejected", entry.Message)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "CREDENTIALS_INVALID", entry.Kind)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "2dd929f2-8d0a-4b3e-9a3f-0f4f4f6d8e11", *entry.UserID)
	assert.Equal(t, "dana@example.com", entry.Email)
	assert.Equal(t, "google", entry.Provider)
	assert.Equal(t, "/api/auth/login", entry.Route)
	assert.Contains(t, entry.Error, "bcrypt")
	// Unrecognized attrs land in the jsonb extra column.
	assert.JSONEq(t, `{"attempt":3}`, string(entry.Extra))
}

func TestPGHandlerBuffersUntilStop(t *testing.T) {
	h, mock := newMockHandler(t)

	require.NoError(t, h.Handle(context.Background(), authFailureRecord("sign-in rejected")))
	require.NoError(t, h.Handle(context.Background(), authFailureRecord("role update rejected")))

	// Nothing hits the database while buffered.
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "auth_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "extra"}).
			AddRow(uuid.New(), []byte("{}")).
			AddRow(uuid.New(), []byte("{}")))
	mock.ExpectCommit()

	h.Stop()

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, h.buffer)
}

func TestPGHandlerStopWithEmptyBufferSkipsDatabase(t *testing.T) {
	h, mock := newMockHandler(t)

	h.Stop()

	require.NoError(t, mock.ExpectationsWereMet())
}
