package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGetDialector_KnownDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres"} {
		dialector, err := GetDialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, dialector, driver)
	}
}

func TestGetDialector_UnknownDriver(t *testing.T) {
	_, err := GetDialector("oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestRegisterDriver(t *testing.T) {
	RegisterDriver("custom", func(dsn string) gorm.Dialector {
		return sqlite.Open(dsn)
	})
	t.Cleanup(func() {
		delete(driverFactories, "custom")
	})

	dialector, err := GetDialector("custom", ":memory:")
	require.NoError(t, err)
	assert.NotNil(t, dialector)
}
