package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const realLookingKey = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.anon"

func TestIsBackendConfigured(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		want bool
	}{
		{"valid", "https://abcd1234.supabase.co", realLookingKey, true},
		{"empty url", "", realLookingKey, false},
		{"empty key", "https://abcd1234.supabase.co", "", false},
		{"placeholder url", "https://YOUR_PROJECT_ID.supabase.co", realLookingKey, false},
		{"placeholder key", "https://abcd1234.supabase.co", "YOUR_PUBLIC_ANON_KEY_GOES_HERE_123", false},
		{"plain http", "http://abcd1234.supabase.co", realLookingKey, false},
		{"wrong host", "https://api.other-backend.io", realLookingKey, false},
		{"not a url", "abcd1234.supabase.co", realLookingKey, false},
		{"short key", "https://abcd1234.supabase.co", "short-key", false},
		{"key of exactly twenty characters", "https://abcd1234.supabase.co", "abcdefghijklmnopqrst", false},
		{"key is a url", "https://abcd1234.supabase.co", "https://abcd1234.supabase.co/key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBackendConfigured(tt.url, tt.key, "supabase"))
		})
	}
}

func TestCheckBackendWithoutHostPattern(t *testing.T) {
	assert.NoError(t, CheckBackend("https://db.eastatwest.com", realLookingKey, ""))
}

func TestIsEmailConfigured(t *testing.T) {
	tests := []struct {
		name string
		key  string
		from string
		want bool
	}{
		{"valid", "re_1234567890abcdefghijkl", "East At West <reservations@eastatwest.com>", true},
		{"bare sender", "re_1234567890abcdefghijkl", "reservations@eastatwest.com", true},
		{"missing key", "", "reservations@eastatwest.com", false},
		{"placeholder key", "your_resend_api_key_here", "reservations@eastatwest.com", false},
		{"missing sender", "re_1234567890abcdefghijkl", "", false},
		{"sender without at sign", "re_1234567890abcdefghijkl", "reservations", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmailConfigured(tt.key, tt.from))
		})
	}
}

func TestIsDatabaseConfigured(t *testing.T) {
	assert.True(t, IsDatabaseConfigured(StoreSQLite, "file::memory:?cache=shared"))
	assert.True(t, IsDatabaseConfigured(StoreMySQL, "app:secret@tcp(127.0.0.1:3306)/eastatwest?parseTime=true"))
	assert.False(t, IsDatabaseConfigured(StoreHosted, "anything"))
	assert.False(t, IsDatabaseConfigured(StorePostgres, ""))
	assert.False(t, IsDatabaseConfigured(StorePostgres, "postgres://<user>:<password>@localhost/db"))
}

func TestStoreConfigured(t *testing.T) {
	cfg := &Config{Store: StoreHosted, Backend: BackendConfig{
		URL:         "https://abcd1234.supabase.co",
		AnonKey:     realLookingKey,
		HostPattern: "supabase",
	}}
	assert.True(t, cfg.StoreConfigured())

	cfg.Backend.AnonKey = ""
	assert.False(t, cfg.StoreConfigured())

	cfg = &Config{Store: StoreSQLite, DatabaseDSN: "eastatwest.db"}
	assert.True(t, cfg.StoreConfigured())
}
