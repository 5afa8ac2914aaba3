package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/freshtally/freshtally/internal/core/aggregation"
)

func TestStoreIndexAdapter_StoresForProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	index := NewStoreIndexAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(queryStoresForProduct)).
		WithArgs("P-1").
		WillReturnRows(sqlmock.NewRows([]string{"store_id"}).AddRow("S-1").AddRow("S-2")).
		RowsWillBeClosed()

	stores, err := index.StoresForProduct(context.Background(), "P-1")
	require.NoError(t, err)
	require.Equal(t, []string{"S-1", "S-2"}, stores)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreIndexAdapter_TrackAndPairs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	index := NewStoreIndexAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(queryTrackStore)).
		WithArgs("P-1", "S-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(queryIndexPairs)).
		WillReturnRows(sqlmock.NewRows([]string{"store_id", "product_id"}).
			AddRow("S-1", "P-1").
			AddRow("S-3", "P-1"))

	require.NoError(t, index.Track(context.Background(), "P-1", "S-3"))

	pairs, err := index.Pairs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []aggregation.Key{
		{StoreID: "S-1", ProductID: "P-1"},
		{StoreID: "S-3", ProductID: "P-1"},
	}, pairs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreIndexAdapter_Rebuild(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	index := NewStoreIndexAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(queryRebuildStoreIndex)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	added, err := index.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), added)
	require.NoError(t, mock.ExpectationsWereMet())
}
