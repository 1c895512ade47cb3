package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsDriver(t *testing.T) {
	c, err := New(DriverNone, nil, "")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(DriverValkey, []string{"127.0.0.1:6379"}, "")
	require.NoError(t, err)
	assert.IsType(t, &Valkey{}, c)
	c.Close()

	c, err = New(DriverMemcached, nil, "127.0.0.1:11211")
	require.NoError(t, err)
	assert.IsType(t, &Memcached{}, c)
}

func TestNewRejectsMisconfiguration(t *testing.T) {
	_, err := New(DriverValkey, nil, "")
	assert.Error(t, err)

	_, err = New(DriverMemcached, nil, "")
	assert.Error(t, err)

	_, err = New("etcd", nil, "")
	assert.Error(t, err)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "stats:sensor:4", SnapshotKey(4))
}
