package runner

import (
	"testing"
	"time"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/fgeck/dbbackup/internal/retention"
	"github.com/fgeck/dbbackup/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var planNow = time.Date(2024, time.June, 12, 6, 0, 0, 0, time.UTC)

func TestNewPlan_Defaults(t *testing.T) {
	global := map[string]string{"backuppath": "/backups", "timezone": "UTC"}
	sec := models.Section{Name: "Shop_DB-2", Settings: map[string]string{
		"database": "shop",
		"username": "app",
		"password": "secret",
	}}

	plan, err := NewPlan(global, sec, planNow)

	require.NoError(t, err)
	assert.Equal(t, "/backups/", plan.BackupPath)
	assert.Equal(t, "ShopDB", plan.FileBase)
	assert.Equal(t, ".sql.gz", plan.Extension)
	assert.Equal(t, "ShopDB-20240612060000.sql.gz", plan.FileName)
	assert.Equal(t, "/backups/ShopDB-20240612060000.sql.gz", plan.FilePath)
	assert.Equal(t,
		"mysqldump -h localhost -u app -psecret  shop | gzip > /backups/ShopDB-20240612060000.sql.gz",
		plan.Command)
	assert.False(t, plan.Policy.Configured())
	assert.Nil(t, plan.Wake)
	assert.Nil(t, plan.Shutdown)
}

func TestNewPlan_ComputedSettings(t *testing.T) {
	global := map[string]string{
		"backuppath": "/srv/dumps/$section/",
		"timezone":   "UTC",
		"command":    "pg_dump $database > $backup_file_path # $timestamp $backup_filename",
	}
	sec := models.Section{Name: "crm", Settings: map[string]string{
		"database":      "crm",
		"filebase":      "crm-$database",
		"fileextension": ".dump",
	}}

	plan, err := NewPlan(global, sec, planNow)

	require.NoError(t, err)
	assert.Equal(t, "/srv/dumps/crm/", plan.BackupPath)
	assert.Equal(t, "crm-crm-20240612060000.dump", plan.FileName)
	assert.Equal(t,
		"pg_dump crm > /srv/dumps/crm/crm-crm-20240612060000.dump # 20240612060000 crm-crm-20240612060000.dump",
		plan.Command)

	v, err := plan.Resolver.Resolve("section")
	require.NoError(t, err)
	assert.Equal(t, "crm", v)
}

func TestNewPlan_Timezone(t *testing.T) {
	global := map[string]string{"backuppath": "/b", "command": "true", "timezone": "Europe/Berlin"}

	plan, err := NewPlan(global, models.Section{Name: "db"}, planNow)

	require.NoError(t, err)
	assert.Equal(t, "db-20240612080000.sql.gz", plan.FileName)
	assert.Equal(t, "Europe/Berlin", plan.Location.String())
}

func TestNewPlan_Limits(t *testing.T) {
	global := map[string]string{
		"backuppath":  "/b",
		"command":     "true",
		"keepyearly":  "*",
		"keepmonthly": "$months",
		"months":      "6",
		"keepweekly":  "0",
		"keepdaily":   "soon",
	}

	plan, err := NewPlan(global, models.Section{Name: "db"}, planNow)

	require.NoError(t, err)
	assert.Equal(t, retention.Unlimited(), plan.Policy.Yearly)
	assert.Equal(t, retention.Keep(6), plan.Policy.Monthly)
	assert.False(t, plan.Policy.Weekly.Enabled())
	assert.False(t, plan.Policy.Daily.Enabled())
	assert.Len(t, plan.Warnings, 1)
}

func TestNewPlan_LimitWarnings(t *testing.T) {
	global := map[string]string{
		"backuppath":  "/b",
		"command":     "true",
		"keepyearly":  "*",
		"keepmonthly": "0",
		"keepweekly":  "",
		"keepdaily":   "7 ; one week",
	}

	plan, err := NewPlan(global, models.Section{Name: "db"}, planNow)

	require.NoError(t, err)
	assert.False(t, plan.Policy.Daily.Enabled())
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], `keepdaily = "7 ; one week"`)
	assert.Contains(t, plan.Warnings[0], "limit disabled")
}

func TestNewPlan_Hooks(t *testing.T) {
	global := map[string]string{"backuppath": "/b", "command": "true"}
	sec := models.Section{Name: "db", Settings: map[string]string{
		"host":          "db01.lan",
		"wakemac":       "AA:BB:CC:DD:EE:FF",
		"wakepollurl":   "tcp://$host:3306",
		"shutdownhost":  "$host",
		"shutdownkey":   "/root/.ssh/id_ed25519",
		"shutdowndelay": "0",
	}}

	plan, err := NewPlan(global, sec, planNow)

	require.NoError(t, err)
	require.NotNil(t, plan.Wake)
	assert.Equal(t, "tcp://db01.lan:3306", plan.Wake.PollURL)
	require.NotNil(t, plan.Shutdown)
	assert.Equal(t, "db01.lan", plan.Shutdown.Host)
	assert.Equal(t, 0, plan.Shutdown.ShutdownDelay)
}

func TestNewPlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		global  map[string]string
		section models.Section
		wantErr string
	}{
		{
			name:    "missing backuppath",
			global:  map[string]string{},
			section: models.Section{Name: "db"},
			wantErr: "backuppath is required",
		},
		{
			name:    "empty backuppath",
			global:  map[string]string{"backuppath": "  "},
			section: models.Section{Name: "db"},
			wantErr: "backuppath is empty",
		},
		{
			name:    "no letters in section name",
			global:  map[string]string{"backuppath": "/b", "command": "true"},
			section: models.Section{Name: "2024"},
			wantErr: "filebase is required",
		},
		{
			name:    "unknown timezone",
			global:  map[string]string{"backuppath": "/b", "command": "true", "timezone": "Mars/Olympus"},
			section: models.Section{Name: "db"},
			wantErr: "timezone",
		},
		{
			name:    "shutdown without key",
			global:  map[string]string{"backuppath": "/b", "command": "true", "shutdownhost": "db01"},
			section: models.Section{Name: "db"},
			wantErr: "shutdownkey is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.global, tt.section, planNow)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewPlan_ReferenceErrors(t *testing.T) {
	global := map[string]string{"backuppath": "/b", "command": "dump $a", "a": "$b", "b": "$a"}

	_, err := NewPlan(global, models.Section{Name: "db"}, planNow)

	var cyclic *settings.CyclicReferenceError
	require.ErrorAs(t, err, &cyclic)

	global = map[string]string{"backuppath": "$nowhere"}
	_, err = NewPlan(global, models.Section{Name: "db"}, planNow)

	var unresolved *settings.UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "nowhere", unresolved.Reference)
}
