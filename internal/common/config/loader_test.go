package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: visa-locker
  environment: test
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: locker
    user: locker
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
portal:
  base_url: ${LOCKER_TEST_PORTAL}
locker:
  booking_exempt_countries: ["Germany", " Austria "]
workers:
  assess-readiness:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("LOCKER_TEST_PORTAL", "https://portal.example.com/api")

	cfg, err := LoadFromFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.com/api", cfg.Portal.BaseURL)
	assert.Equal(t, 35, cfg.Locker.ProgressSyncThreshold)
	assert.Equal(t, "applicant-record-locked", cfg.Camunda.SubmissionMessage)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, "applicant-summaries", cfg.Database.Elasticsearch.SummaryIndex)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 3, cfg.Locker.Autosave.MaxRetries)

	wcfg := GetWorkerConfig(cfg, "assess-readiness")
	assert.Equal(t, 5, wcfg.MaxJobsActive)
	assert.Equal(t, 30*time.Second, GetDuration(wcfg.Timeout))

	assert.Equal(t, map[string]bool{"germany": true, "austria": true}, cfg.Locker.ExemptCountrySet())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address",
		},
		{
			name: "missing redis",
			body: `
camunda: {broker_address: x}
database:
  postgres: {host: h, database: d, user: u}
  elasticsearch: {url: "http://es"}
`,
			wantErr: "database.redis.address",
		},
		{
			name: "threshold out of range",
			body: `
camunda: {broker_address: x}
database:
  postgres: {host: h, database: d, user: u}
  elasticsearch: {url: "http://es"}
  redis: {address: r}
locker: {progress_sync_threshold: 120}
`,
			wantErr: "progress_sync_threshold",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultExemptCountries(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.Equal(t, map[string]bool{"germany": true, "switzerland": true}, cfg.Locker.ExemptCountrySet())
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "locker", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=locker sslmode=disable", p.GetDSN())
}

func TestAPIAndAutosaveDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8081, cfg.API.Port)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.API.SessionIdle))
	assert.Equal(t, int64(20<<20), cfg.API.MaxUpload)
	assert.Equal(t, 500*time.Millisecond, GetDuration(cfg.Locker.Autosave.BaseDelay))
	assert.Equal(t, 10*time.Second, GetDuration(cfg.Locker.Autosave.Timeout))
}
