package store

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

func TestWithTx(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()

	require.NoError(t, WithTx(db, func(tx *leveldb.Transaction) error {
		return tx.Put([]byte("a"), []byte("1"), nil)
	}))
	v, err := db.Get([]byte("a"), nil)
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	failure := errors.New("nope")
	err = WithTx(db, func(tx *leveldb.Transaction) error {
		if err := tx.Put([]byte("b"), []byte("2"), nil); err != nil {
			return err
		}
		return failure
	})
	require.Equal(t, failure, err)
	_, err = db.Get([]byte("b"), nil)
	require.Equal(t, leveldb.ErrNotFound, err)
}

func TestPrefixer(t *testing.T) {
	p := Prefixer("captures")
	require.Equal(t, []byte("captures"), p())
	require.Equal(t, []byte("captures/packet/x"), p("packet", "x"))
}
