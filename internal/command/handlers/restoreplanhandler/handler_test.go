package restoreplanhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql/mssqltest"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/testutil"
)

func testConfig(files ...string) *config.Config {
	return &config.Config{
		OutputFormat: output.FormatJSON,
		Server: config.ServerConfig{
			Host: "sql01", Port: 1433, User: "sa", Password: "pw",
			Database: "master", Timeout: 30 * time.Second,
		},
		Restore: config.RestoreConfig{
			Database:    "shop",
			Target:      "latest",
			Finish:      config.FinishRecovery,
			BackupFiles: files,
		},
	}
}

// header возвращает запись заголовка single-family набора для мока.
func header(file backup.FileRef, setID string, bt backup.Type, first, last backup.LSN) backup.HeaderRecord {
	file.FamilySequence = 1
	file.FamilyCount = 1
	return backup.HeaderRecord{
		File:          file,
		DatabaseName:  "shop",
		BackupSetID:   setID,
		BackupType:    bt,
		FirstLSN:      first,
		LastLSN:       last,
		CheckpointLSN: first,
		StartTime:     time.Date(2024, 5, 17, 1, 0, 0, 0, time.UTC),
		FinishTime:    time.Date(2024, 5, 17, 1, 10, 0, 0, time.UTC),
	}
}

// chainClient возвращает мок с непрерывной цепочкой full → log → log.
func chainClient() *mssqltest.MockMSSQLClient {
	return &mssqltest.MockMSSQLClient{
		ReadBackupHeaderFunc: func(_ context.Context, file backup.FileRef) ([]backup.HeaderRecord, error) {
			switch filepath.Base(strings.ReplaceAll(file.Path, `\`, "/")) {
			case "full.bak":
				return []backup.HeaderRecord{header(file, "set-full", backup.TypeFull, 100, 200)}, nil
			case "log1.trn":
				return []backup.HeaderRecord{header(file, "set-log1", backup.TypeLog, 200, 250)}, nil
			case "log2.trn":
				return []backup.HeaderRecord{header(file, "set-log2", backup.TypeLog, 250, 300)}, nil
			}
			return nil, fmt.Errorf("неизвестный файл %s", file.Path)
		},
		RenderFunc: func(database string, step chain.Step, _ mssql.ExecuteOptions) string {
			if step.Set == nil {
				return "RESTORE DATABASE [" + database + "] WITH NORECOVERY;"
			}
			return fmt.Sprintf("RESTORE ... FROM %s;", step.Set.BackupSetID)
		},
	}
}

func TestPlanHandler_Name(t *testing.T) {
	h := &PlanHandler{}
	assert.Equal(t, constants.ActRestorePlan, h.Name())
}

func TestPlanHandler_Execute_MissingFiles(t *testing.T) {
	h := &PlanHandler{}
	cfg := testConfig()

	var err error
	testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrPlanConfigMissing)
}

func TestPlanHandler_Execute_InvalidTarget(t *testing.T) {
	h := &PlanHandler{}
	cfg := testConfig(`D:\bak\full.bak`)
	cfg.Restore.Target = "yesterday around noon"

	var err error
	testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrPlanTargetInvalid)
}

func TestPlanHandler_Execute_VerifiedChain(t *testing.T) {
	h := &PlanHandler{mssqlClient: chainClient()}
	cfg := testConfig(`D:\bak\full.bak`, `D:\bak\log1.trn`, `D:\bak\log2.trn`)

	var err error
	out := testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, err)

	var result struct {
		Status string   `json:"status"`
		Data   PlanData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, output.StatusSuccess, result.Status)
	assert.Equal(t, "shop", result.Data.Database)
	assert.True(t, result.Data.Verified)
	require.Len(t, result.Data.Steps, 3)

	// Порядок: полная копия, затем журналы по возрастанию LSN
	assert.Equal(t, "Full", result.Data.Steps[0].Type)
	assert.Equal(t, "Log", result.Data.Steps[1].Type)
	assert.Equal(t, "Log", result.Data.Steps[2].Type)
	assert.Equal(t, "set-full", result.Data.Steps[0].BackupSetID)

	// Режим завершения только на последнем шаге
	assert.Equal(t, "NORECOVERY", result.Data.Steps[0].Recovery)
	assert.Equal(t, "NORECOVERY", result.Data.Steps[1].Recovery)
	assert.Equal(t, "RECOVERY", result.Data.Steps[2].Recovery)

	// T-SQL текст присутствует на каждом шаге
	for _, s := range result.Data.Steps {
		assert.NotEmpty(t, s.SQL)
	}
}

func TestPlanHandler_Execute_ChainGap(t *testing.T) {
	h := &PlanHandler{mssqlClient: chainClient()}
	// log1 пропущен: разрыв LSN между full (200) и log2 (250)
	cfg := testConfig(`D:\bak\full.bak`, `D:\bak\log2.trn`)

	var err error
	out := testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), chain.RejectChainGap)

	var result struct {
		Status string            `json:"status"`
		Data   PlanData          `json:"data"`
		Error  *output.ErrorInfo `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, output.StatusError, result.Status)
	assert.False(t, result.Data.Verified)
	require.NotNil(t, result.Data.Reject)
	assert.Equal(t, chain.RejectChainGap, result.Data.Reject.Code)
	require.NotNil(t, result.Error)
	assert.Equal(t, chain.RejectChainGap, result.Error.Code)
}

func TestPlanHandler_Execute_ScriptExport(t *testing.T) {
	h := &PlanHandler{mssqlClient: chainClient()}
	cfg := testConfig(`D:\bak\full.bak`, `D:\bak\log1.trn`, `D:\bak\log2.trn`)
	cfg.Restore.ScriptPath = filepath.Join(t.TempDir(), "restore.sql")

	var err error
	out := testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, err)

	var result struct {
		Data PlanData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, cfg.Restore.ScriptPath, result.Data.ScriptPath)

	script, err := os.ReadFile(cfg.Restore.ScriptPath)
	require.NoError(t, err)
	assert.Contains(t, string(script), "set-full")
	assert.Contains(t, string(script), "set-log2")
}

func TestPlanHandler_Execute_ScriptExportUTF16(t *testing.T) {
	h := &PlanHandler{mssqlClient: chainClient()}
	cfg := testConfig(`D:\bak\full.bak`, `D:\bak\log1.trn`, `D:\bak\log2.trn`)
	cfg.Restore.ScriptPath = filepath.Join(t.TempDir(), "restore.sql")
	cfg.Restore.ScriptUTF16 = true

	var err error
	testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, err)

	script, err := os.ReadFile(cfg.Restore.ScriptPath)
	require.NoError(t, err)
	// UTF-16LE BOM
	require.GreaterOrEqual(t, len(script), 2)
	assert.Equal(t, []byte{0xFF, 0xFE}, script[:2])
}

func TestPlanHandler_Execute_TextFormat(t *testing.T) {
	h := &PlanHandler{mssqlClient: chainClient()}
	cfg := testConfig(`D:\bak\full.bak`, `D:\bak\log1.trn`, `D:\bak\log2.trn`)
	cfg.OutputFormat = output.FormatText

	var err error
	out := testutil.CaptureStdout(t, func() {
		err = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, err)

	assert.Contains(t, out, "План восстановления базы shop")
	assert.Contains(t, out, "set-full")
}
