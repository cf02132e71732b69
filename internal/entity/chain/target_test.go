package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	after := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		spec    string
		want    Target
		wantErr bool
	}{
		{
			name: "empty means latest",
			spec: "",
			want: Target{DatabaseName: "shop", Kind: TargetLatest},
		},
		{
			name: "latest keyword case-insensitive",
			spec: "Latest",
			want: Target{DatabaseName: "shop", Kind: TargetLatest},
		},
		{
			name: "rfc3339 point in time",
			spec: "2024-05-17T08:20:00Z",
			want: Target{
				DatabaseName: "shop",
				Kind:         TargetPointInTime,
				PointInTime:  time.Date(2024, 5, 17, 8, 20, 0, 0, time.UTC),
			},
		},
		{
			name: "sql style point in time",
			spec: "2024-05-17 08:20:00",
			want: Target{
				DatabaseName: "shop",
				Kind:         TargetPointInTime,
				PointInTime:  time.Date(2024, 5, 17, 8, 20, 0, 0, time.UTC),
			},
		},
		{
			name: "mark",
			spec: "mark:before_migration",
			want: Target{
				DatabaseName: "shop",
				Kind:         TargetMark,
				MarkName:     "before_migration",
				MarkAfter:    after,
			},
		},
		{
			name: "mark-before",
			spec: "mark-before:before_migration",
			want: Target{
				DatabaseName: "shop",
				Kind:         TargetMark,
				MarkName:     "before_migration",
				StopBefore:   true,
				MarkAfter:    after,
			},
		},
		{
			name:    "empty mark name",
			spec:    "mark:",
			wantErr: true,
		},
		{
			name:    "garbage",
			spec:    "yesterday evening",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget("shop", tt.spec, after)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), ErrTargetParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecoveryModeString(t *testing.T) {
	assert.Equal(t, "NORECOVERY", RecoveryNoRecovery.String())
	assert.Equal(t, "RECOVERY", RecoveryRecover.String())
	assert.Equal(t, "STANDBY", RecoveryStandby.String())
}
