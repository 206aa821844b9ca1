package pencatatan

import (
	"context"
	"regexp"
	"testing"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewStore(db, logger.Noop()), mock
}

func TestDelete_OwnerPredicateInSQL(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pencatatan" WHERE user_id = $1 AND id = $2`)).
		WithArgs(7, 42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), &models.User{ID: 7}, 42)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_OwnerPredicateInSQL(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pencatatan" WHERE user_id = $1 ORDER BY created_at desc,id desc`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "jumlah", "tipe", "user_id", "kategori_id"}).
			AddRow(1, 100, "pemasukan", 7, 2))

	list, err := s.List(context.Background(), &models.User{ID: 7}, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint(7), list[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}
