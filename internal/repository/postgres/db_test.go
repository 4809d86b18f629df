package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn counts transaction lifecycle calls so the tests can observe what
// WithTx did without a live database.
type stubConn struct {
	begun      int
	committed  int
	rolledBack int
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	c.begun++
	return &stubTx{conn: c}, nil
}

func (c *stubConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}

type stubTx struct{ conn *stubConn }

func (t *stubTx) Commit() error   { t.conn.committed++; return nil }
func (t *stubTx) Rollback() error { t.conn.rolledBack++; return nil }

type stubConnector struct{ conn *stubConn }

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *stubConnector) Driver() driver.Driver                        { return stubDriver{conn: c.conn} }

type stubDriver struct{ conn *stubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func newStubDB(t *testing.T) (*DB, *stubConn) {
	t.Helper()
	conn := &stubConn{}
	db := sqlx.NewDb(sql.OpenDB(&stubConnector{conn: conn}), "postgres")
	t.Cleanup(func() { db.Close() })
	return Wrap(db), conn
}

func TestWithTxCommits(t *testing.T) {
	db, conn := newStubDB(t)

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE product_variants SET is_active = true")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, conn.begun)
	assert.Equal(t, 1, conn.committed)
	assert.Equal(t, 0, conn.rolledBack)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, conn := newStubDB(t)
	boom := errors.New("write failed")

	err := db.WithTx(context.Background(), func(*sql.Tx) error { return boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, conn.begun)
	assert.Equal(t, 0, conn.committed)
	assert.Equal(t, 1, conn.rolledBack)
}

func TestWithTxChecksGateBeforeBeginning(t *testing.T) {
	db, conn := newStubDB(t)

	require.NoError(t, db.sem.Acquire(context.Background(), maxConcurrentWrites))
	defer db.sem.Release(maxConcurrentWrites)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.WithTx(ctx, func(*sql.Tx) error { return nil })

	require.ErrorContains(t, err, "could not acquire semaphore")
	assert.Equal(t, 0, conn.begun)
}
