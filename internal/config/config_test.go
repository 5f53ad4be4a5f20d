package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "redis.conf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConf(t, "address = 127.0.0.1:7000\ncluster_address = 127.0.0.1:17000\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Address)
	assert.Equal(t, "127.0.0.1:7000", cfg.PublicAddress, "public_address should default to address")
	assert.Equal(t, "master", cfg.Role)
	assert.EqualValues(t, 0, cfg.SlotStart)
	assert.EqualValues(t, 16384, cfg.SlotEnd)
}

func TestLoadParsesUsersSlotRangeAndAESKey(t *testing.T) {
	path := writeConf(t, `
address = 127.0.0.1:7000
cluster_address = 127.0.0.1:17000
slot_range = 0-5460
role = replica
replicaof = 127.0.0.1:7001
aes_key = 000102030405060708090a0b0c0d0e0f
user = alice:s3cret
user = bob:hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, cfg.SlotStart)
	assert.EqualValues(t, 5460, cfg.SlotEnd)
	assert.Equal(t, "replica", cfg.Role)
	assert.Equal(t, "127.0.0.1:7001", cfg.ReplicaOf)
	require.Len(t, cfg.AESKey, 16)
	require.Len(t, cfg.Users, 2)
	assert.Equal(t, User{Name: "alice", Password: "s3cret"}, cfg.Users[0])
	assert.Equal(t, User{Name: "bob", Password: "hunter2"}, cfg.Users[1])
}

func TestLoadMissingRequiredFields(t *testing.T) {
	path := writeConf(t, "role = master\n")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrMissingRequired)
}

func TestLoadMalformedSlotRange(t *testing.T) {
	path := writeConf(t, "address = 127.0.0.1:7000\ncluster_address = 127.0.0.1:17000\nslot_range = nonsense\n")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrBadSlotRange)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.conf"))
	assert.Error(t, err)
}
