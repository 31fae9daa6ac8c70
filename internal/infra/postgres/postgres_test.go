package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symph-co/shorturl/config"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.PostgresConfig{User: "symph", Database: "symph"},
			want: "postgres://symph@localhost:5432/symph?sslmode=disable",
		},
		{
			name: "password is escaped",
			cfg: config.PostgresConfig{
				Host: "db", Port: 6543, User: "app", Password: "p@ss/word",
				Database: "links", SSLMode: "require",
			},
			want: "postgres://app:p@ss%2Fword@db:6543/links?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnString(tt.cfg))
		})
	}
}

func TestTunePool(t *testing.T) {
	poolCfg, err := pgxpool.ParseConfig("postgres://u@localhost:5432/db")
	require.NoError(t, err)

	tunePool(poolCfg, config.PostgresConfig{
		MaxConns:        8,
		MaxConnLifetime: "10m",
		MaxConnIdleTime: "not-a-duration",
	})

	assert.Equal(t, int32(8), poolCfg.MaxConns)
	assert.Equal(t, 10*time.Minute, poolCfg.MaxConnLifetime)
}
