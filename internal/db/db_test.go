package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriversRegistered(t *testing.T) {
	assert.Contains(t, sql.Drivers(), DriverPostgres)
	assert.Contains(t, sql.Drivers(), DriverMySQL)
}

func TestOpen_BothDrivers(t *testing.T) {
	pg, err := Open(DriverPostgres, "postgres://u:p@127.0.0.1:5432/transit?sslmode=disable")
	require.NoError(t, err)
	defer pg.Close()
	assert.Equal(t, DriverPostgres, pg.DriverName())

	my, err := Open(DriverMySQL, "u:p@tcp(127.0.0.1:3306)/transit")
	require.NoError(t, err)
	defer my.Close()
	assert.Equal(t, DriverMySQL, my.DriverName())
}
