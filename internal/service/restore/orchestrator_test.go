package restore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql/mssqltest"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 17, hour, minute, 0, 0, time.UTC)
}

func testCatalog() []backup.SetDescriptor {
	return []backup.SetDescriptor{
		{
			DatabaseName: "shop", BackupSetID: "full", BackupType: backup.TypeFull,
			FirstLSN: 100, LastLSN: 200, CheckpointLSN: 150,
			FinishTime: at(8, 0),
			Files:      []backup.FileRef{{Path: `D:\bak\full.bak`}},
		},
		{
			DatabaseName: "shop", BackupSetID: "log1", BackupType: backup.TypeLog,
			FirstLSN: 200, LastLSN: 210,
			StartTime: at(8, 4), FinishTime: at(8, 5),
			Files: []backup.FileRef{{Path: `D:\bak\log1.trn`}},
		},
	}
}

func TestRun_PlanOnly(t *testing.T) {
	executor := &mssqltest.MockMSSQLClient{}
	o := New(nil, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog:      testCatalog(),
		Targets:      []chain.Target{{DatabaseName: "shop", Kind: chain.TargetLatest}},
		ChainOptions: chain.Options{Finish: chain.RecoveryRecover},
		PlanOnly:     true,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Result.Verified)
	assert.Len(t, outcomes[0].Result.Plan, 2)
	// Plan-only: ни один шаг не выполнен.
	assert.Empty(t, executor.ExecutedSteps)
	assert.Zero(t, outcomes[0].ExecutedSteps)
}

func TestRun_ExecutesPlanInOrder(t *testing.T) {
	executor := &mssqltest.MockMSSQLClient{}
	o := New(nil, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog:      testCatalog(),
		Targets:      []chain.Target{{DatabaseName: "shop", Kind: chain.TargetLatest}},
		ChainOptions: chain.Options{Finish: chain.RecoveryRecover},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 2, outcomes[0].ExecutedSteps)
	assert.Nil(t, outcomes[0].StepError)

	require.Len(t, executor.ExecutedSteps, 2)
	assert.Equal(t, "full", executor.ExecutedSteps[0].Set.BackupSetID)
	assert.Equal(t, "log1", executor.ExecutedSteps[1].Set.BackupSetID)
	assert.Equal(t, chain.RecoveryRecover, executor.ExecutedSteps[1].Recovery)
}

func TestRun_StepFailureStopsDatabase(t *testing.T) {
	wantErr := errors.New("device offline")
	executor := &mssqltest.MockMSSQLClient{
		ExecuteFunc: func(_ context.Context, _ string, step chain.Step, _ mssql.ExecuteOptions) error {
			if step.Set != nil && step.Set.BackupType == backup.TypeLog {
				return wantErr
			}
			return nil
		},
	}
	o := New(nil, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog:      testCatalog(),
		Targets:      []chain.Target{{DatabaseName: "shop", Kind: chain.TargetLatest}},
		ChainOptions: chain.Options{Finish: chain.RecoveryRecover},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	// База остаётся в состоянии последнего успешного шага.
	assert.Equal(t, 1, outcomes[0].ExecutedSteps)
	require.NotNil(t, outcomes[0].StepError)
	assert.Equal(t, 1, outcomes[0].StepError.StepIndex)
	assert.Equal(t, "shop", outcomes[0].StepError.Database)
	assert.ErrorIs(t, outcomes[0].StepError, wantErr)
	assert.Contains(t, outcomes[0].StepError.Error(), ErrRestoreFailed)
}

func TestRun_PartialFailureAcrossDatabases(t *testing.T) {
	catalog := testCatalog()
	crm := backup.SetDescriptor{
		DatabaseName: "crm", BackupSetID: "crm-log", BackupType: backup.TypeLog,
		FirstLSN: 10, LastLSN: 20,
		StartTime: at(8, 0), FinishTime: at(8, 1),
	}
	catalog = append(catalog, crm) // у crm нет полной копии

	executor := &mssqltest.MockMSSQLClient{}
	o := New(nil, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog: catalog,
		Targets: []chain.Target{
			{DatabaseName: "crm", Kind: chain.TargetLatest},
			{DatabaseName: "shop", Kind: chain.TargetLatest},
		},
		ChainOptions: chain.Options{Finish: chain.RecoveryRecover},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// Отказ crm не мешает shop.
	assert.False(t, outcomes[0].Result.Verified)
	assert.Equal(t, chain.RejectNoUsableFull, outcomes[0].Result.Reject.Code)
	assert.True(t, outcomes[1].Result.Verified)
	assert.Equal(t, 2, outcomes[1].ExecutedSteps)
}

func TestRun_UsesContinuation(t *testing.T) {
	inspector := &mssqltest.MockMSSQLClient{
		GetContinuationStateFunc: func(_ context.Context, database string) (*chain.Continuation, error) {
			return &chain.Continuation{AlreadyAppliedLastLSN: 200, Mode: chain.StateRestoring}, nil
		},
	}
	executor := &mssqltest.MockMSSQLClient{}
	o := New(inspector, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog:         testCatalog(),
		Targets:         []chain.Target{{DatabaseName: "shop", Kind: chain.TargetLatest}},
		ChainOptions:    chain.Options{Finish: chain.RecoveryRecover},
		UseContinuation: true,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Result.Verified)

	// Продолжение: базовые копии не перенакатываются.
	require.Len(t, outcomes[0].Result.Plan, 1)
	assert.Equal(t, "log1", outcomes[0].Result.Plan[0].Set.BackupSetID)
}

func TestRun_ContinuationAllAppliedExecutesFinish(t *testing.T) {
	// Повторный запуск после того, как все журналы уже применены:
	// остаётся единственный шаг завершения с запрошенным режимом.
	inspector := &mssqltest.MockMSSQLClient{
		GetContinuationStateFunc: func(context.Context, string) (*chain.Continuation, error) {
			return &chain.Continuation{AlreadyAppliedLastLSN: 210, Mode: chain.StateRestoring}, nil
		},
	}
	executor := &mssqltest.MockMSSQLClient{}
	o := New(inspector, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog:         testCatalog(),
		Targets:         []chain.Target{{DatabaseName: "shop", Kind: chain.TargetLatest}},
		ChainOptions:    chain.Options{Finish: chain.RecoveryRecover},
		UseContinuation: true,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Result.Verified)

	require.Len(t, executor.ExecutedSteps, 1)
	assert.True(t, executor.ExecutedSteps[0].Transition)
	assert.Equal(t, chain.RecoveryRecover, executor.ExecutedSteps[0].Recovery)
}

func TestRun_InspectorErrorFailsOnlyThatDatabase(t *testing.T) {
	wantErr := errors.New("msdb unavailable")
	inspector := &mssqltest.MockMSSQLClient{
		GetContinuationStateFunc: func(_ context.Context, database string) (*chain.Continuation, error) {
			if database == "crm" {
				return nil, wantErr
			}
			return nil, nil
		},
	}
	catalog := append(testCatalog(), backup.SetDescriptor{
		DatabaseName: "crm", BackupSetID: "crm-full", BackupType: backup.TypeFull,
		FirstLSN: 10, LastLSN: 20, CheckpointLSN: 15,
		FinishTime: at(8, 0),
		Files:      []backup.FileRef{{Path: `D:\bak\crm.bak`}},
	})
	executor := &mssqltest.MockMSSQLClient{}
	o := New(inspector, executor, logging.NewNopLogger(), nil)

	outcomes, err := o.Run(context.Background(), Request{
		Catalog: catalog,
		Targets: []chain.Target{
			{DatabaseName: "crm", Kind: chain.TargetLatest},
			{DatabaseName: "shop", Kind: chain.TargetLatest},
		},
		ChainOptions:    chain.Options{Finish: chain.RecoveryRecover},
		UseContinuation: true,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// Сбой опроса crm не мешает восстановлению shop.
	assert.False(t, outcomes[0].Result.Verified)
	require.NotNil(t, outcomes[0].Result.Reject)
	assert.Equal(t, ErrContinuationProbe, outcomes[0].Result.Reject.Code)
	assert.Contains(t, outcomes[0].Result.Reject.Detail, "msdb unavailable")
	assert.True(t, outcomes[1].Result.Verified)
	assert.Equal(t, 2, outcomes[1].ExecutedSteps)
}

func TestResolveBatch_OrderMatchesTargets(t *testing.T) {
	catalog := testCatalog()
	results := chain.ResolveBatch(catalog, []chain.Target{
		{DatabaseName: "ghost", Kind: chain.TargetLatest},
		{DatabaseName: "shop", Kind: chain.TargetLatest},
	}, nil, chain.Options{Finish: chain.RecoveryRecover})

	require.Len(t, results, 2)
	assert.False(t, results[0].Verified)
	assert.True(t, results[1].Verified)
}
