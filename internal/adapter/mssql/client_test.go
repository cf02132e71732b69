package mssql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    ClientOptions
		wantErr bool
	}{
		{
			name:    "missing server",
			opts:    ClientOptions{},
			wantErr: true,
		},
		{
			name:    "invalid port",
			opts:    ClientOptions{Server: "db01", Port: 70000},
			wantErr: true,
		},
		{
			name: "defaults applied",
			opts: ClientOptions{Server: "db01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), ErrMSSQLConnect)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)

			impl := c.(*client)
			assert.Equal(t, 1433, impl.opts.Port)
			assert.Equal(t, "master", impl.opts.Database)
			assert.Equal(t, 30*time.Second, impl.opts.Timeout)
			assert.True(t, impl.opts.Encrypt)
		})
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := &client{}
	ctx := context.Background()

	assert.Error(t, c.Ping(ctx))

	_, err := c.ReadBackupHeader(ctx, backup.FileRef{Path: `D:\bak\x.bak`})
	assert.Error(t, err)

	_, err = c.GetContinuationState(ctx, "shop")
	assert.Error(t, err)

	_, err = c.ListMarks(ctx, "shop")
	assert.Error(t, err)

	assert.Error(t, c.Execute(ctx, "shop", chain.Step{}, ExecuteOptions{}))
	assert.NoError(t, c.Close())
}

func TestClient_GetContinuationState(t *testing.T) {
	tests := []struct {
		name      string
		stateDesc string
		standby   bool
		lastLSN   string
		want      *chain.Continuation
	}{
		{
			name:      "online database has no continuation",
			stateDesc: "ONLINE",
			want:      nil,
		},
		{
			name:      "restoring database",
			stateDesc: "RESTORING",
			lastLSN:   "230",
			want:      &chain.Continuation{AlreadyAppliedLastLSN: 230, Mode: chain.StateRestoring},
		},
		{
			name:      "standby database",
			stateDesc: "ONLINE",
			standby:   true,
			lastLSN:   "230",
			want:      &chain.Continuation{AlreadyAppliedLastLSN: 230, Mode: chain.StateStandby},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close() //nolint:errcheck

			mock.ExpectQuery("SELECT state_desc, is_in_standby FROM sys.databases").
				WithArgs("shop").
				WillReturnRows(sqlmock.NewRows([]string{"state_desc", "is_in_standby"}).
					AddRow(tt.stateDesc, tt.standby))

			if tt.stateDesc == "RESTORING" || tt.standby {
				mock.ExpectQuery("FROM msdb.dbo.restorehistory").
					WithArgs("shop").
					WillReturnRows(sqlmock.NewRows([]string{"last_lsn"}).AddRow(tt.lastLSN))
			}

			c := &client{db: db}
			got, err := c.GetContinuationState(context.Background(), "shop")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestClient_GetContinuationState_UnknownDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectQuery("SELECT state_desc, is_in_standby FROM sys.databases").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"state_desc", "is_in_standby"}))

	c := &client{db: db}
	got, err := c.GetContinuationState(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_ListMarks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	markTime := time.Date(2024, 5, 17, 8, 12, 0, 0, time.UTC)
	mock.ExpectQuery("FROM msdb.dbo.logmarkhistory").
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"mark_name", "lsn", "mark_time"}).
			AddRow("before_migration", "220", markTime).
			AddRow("deploy", "240", markTime.Add(time.Hour)))

	c := &client{db: db}
	marks, err := c.ListMarks(context.Background(), "shop")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, backup.Mark{Name: "before_migration", LSN: 220, Time: markTime}, marks[0])
	assert.Equal(t, backup.LSN(240), marks[1].LSN)
}

func TestClient_Execute(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectExec(`RESTORE DATABASE \[shop\] FROM DISK = N'D:\\bak\\full\.bak' WITH NORECOVERY;`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	set := &backup.SetDescriptor{
		BackupType: backup.TypeFull,
		Files:      []backup.FileRef{{Path: `D:\bak\full.bak`, Device: backup.DeviceDisk}},
	}
	c := &client{db: db}
	err = c.Execute(context.Background(), "shop", chain.Step{Set: set, Recovery: chain.RecoveryNoRecovery}, ExecuteOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseLSN(t *testing.T) {
	lsn, err := parseLSN("123000000456700001")
	require.NoError(t, err)
	assert.Equal(t, backup.LSN(123000000456700001), lsn)

	_, err = parseLSN("not-a-number")
	assert.Error(t, err)

	// numeric(25,0) шире uint64: переполнение — повреждённый заголовок.
	_, err = parseLSN("1234567890123456789012345")
	assert.Error(t, err)
}

func TestMapHeaderRow(t *testing.T) {
	start := time.Date(2024, 5, 17, 7, 55, 0, 0, time.UTC)
	finish := start.Add(5 * time.Minute)
	row := map[string]any{
		"DatabaseName":         "shop",
		"BackupSetGUID":        "A1B2C3",
		"BackupType":           int64(1),
		"FirstLSN":             []byte("100"),
		"LastLSN":              []byte("200"),
		"CheckpointLSN":        []byte("150"),
		"DatabaseBackupLSN":    []byte("0"),
		"BackupStartDate":      start,
		"BackupFinishDate":     finish,
		"IsCopyOnly":           false,
		"SoftwareVersionMajor": int64(16),
		"SoftwareVersionMinor": int64(0),
		"SoftwareVersionBuild": int64(4095),
	}
	file := backup.FileRef{Path: `D:\bak\full.bak`, FamilySequence: 1, FamilyCount: 1}

	rec, err := mapHeaderRow(row, file)
	require.NoError(t, err)
	assert.Equal(t, "shop", rec.DatabaseName)
	assert.Equal(t, "A1B2C3", rec.BackupSetID)
	assert.Equal(t, backup.TypeFull, rec.BackupType)
	assert.Equal(t, backup.LSN(100), rec.FirstLSN)
	assert.Equal(t, backup.LSN(200), rec.LastLSN)
	assert.Equal(t, backup.LSN(150), rec.CheckpointLSN)
	assert.Equal(t, "16.0.4095", rec.SoftwareVersionTag)
	assert.Equal(t, file, rec.File)
}

func TestMapHeaderRow_UnknownType(t *testing.T) {
	row := map[string]any{
		"BackupType": int64(4),
		"FirstLSN":   []byte("100"),
		"LastLSN":    []byte("200"),
	}
	_, err := mapHeaderRow(row, backup.FileRef{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BackupType")
}
