package hr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-go/internal/hr"
	"hr-go/internal/testutil"
)

func TestRegister_Initialize(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Register.Initialize(ctx, hr.DefaultSeed("changeme")))

	users, err := env.Register.Records.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "changeme", users[0].Password)
	assert.Equal(t, hr.RoleAdmin, users[0].Role)
	assert.True(t, users[0].Active)

	raw, err := env.KV.Get(ctx, hr.CollectionHindrances)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	project, err := env.Register.Settings.ProjectConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Construction Project", project.ProjectName)

	system, err := env.Register.Settings.SystemConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INR", system.Currency)
	assert.True(t, system.AutoBackup)

	assert.Equal(t, 1, env.Logs.FilterMessage("storage initialized").Len())
}

func TestRegister_InitializeKeepsExistingData(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.Initialize(t)
	ctx := context.Background()

	_, err := env.Register.Records.Create(ctx, hr.Fields{"nature": "Rain"})
	require.NoError(t, err)
	require.NoError(t, env.Register.Settings.SaveSystemConfig(ctx, &hr.SystemConfig{SLAThresholdDays: 9}))

	require.NoError(t, env.Register.Initialize(ctx, hr.DefaultSeed("other")))

	hs, err := env.Register.Records.List(ctx)
	require.NoError(t, err)
	assert.Len(t, hs, 1)

	sla, err := env.Register.Settings.SLAThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, sla)

	u, err := env.Register.Records.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin123", u.Password)
}

func TestRegister_Views(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.Initialize(t)
	ctx := context.Background()

	young, err := env.Register.Records.Create(ctx, hr.Fields{"startDate": "2024-01-14"})
	require.NoError(t, err)
	_, err = env.Register.Records.Create(ctx, hr.Fields{"startDate": "2024-01-01", "status": "Pending Approval"})
	require.NoError(t, err)

	views, err := env.Register.Views(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, hr.StatusActive, views[0].EffectiveStatus)
	assert.Equal(t, 1, views[0].DaysPending)
	assert.Equal(t, hr.StatusPendingApproval, views[1].EffectiveStatus)
	assert.Equal(t, 14, views[1].DaysPending)

	// status follows the clock and the configured threshold, never the stored value
	env.Clock.AdvanceDays(10)
	v, err := env.Register.View(ctx, young.ID)
	require.NoError(t, err)
	assert.Equal(t, hr.StatusOverdue, v.EffectiveStatus)
	assert.Equal(t, hr.StatusActive, v.Record.Status)

	require.NoError(t, env.Register.Settings.SaveSystemConfig(ctx, &hr.SystemConfig{SLAThresholdDays: 30}))
	v, err = env.Register.View(ctx, young.ID)
	require.NoError(t, err)
	assert.Equal(t, hr.StatusActive, v.EffectiveStatus)

	missing, err := env.Register.View(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRegister_Stats(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.Initialize(t)
	ctx := context.Background()

	_, err := env.Register.Records.Create(ctx, hr.Fields{"startDate": "2024-01-01", "nature": "Rain"})
	require.NoError(t, err)

	st, err := env.Register.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Overdue)
	assert.Equal(t, "Rain", st.MostCommonNature)
}
