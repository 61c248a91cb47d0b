package hr_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-go/internal/hr"
	"hr-go/internal/testutil"
)

func TestRecordStore_Create(t *testing.T) {
	t.Run("assigns system fields", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := hr.WithActor(context.Background(), "site.engineer")

		h, err := env.Register.Records.Create(ctx, hr.Fields{
			"id":             "caller-id",
			"srNo":           "HR-999",
			"createdBy":      "mallory",
			"dateOccurrence": "2024-01-10",
			"startDate":      "2024-01-10",
			"nature":         "Drawing delay",
			"estimatedDelay": 4,
		})
		require.NoError(t, err)

		assert.Equal(t, "id-1", h.ID)
		assert.Equal(t, "HR-001", h.SrNo)
		assert.Equal(t, "site.engineer", h.CreatedBy)
		assert.Equal(t, env.Clock.Now(), h.CreatedAt)
		assert.Equal(t, hr.StatusActive, h.Status)
		assert.JSONEq(t, `4`, string(h.Raw("estimatedDelay")))
		assert.Equal(t, "Drawing delay", h.Text(hr.FieldNature))
	})

	t.Run("numbers sequentially", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		for i := 1; i <= 3; i++ {
			h, err := env.Register.Records.Create(ctx, hr.Fields{"startDate": "2024-01-10"})
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("HR-%03d", i), h.SrNo)
		}
	})

	t.Run("without actor stamps system", func(t *testing.T) {
		env := testutil.NewTestEnv(t)

		h, err := env.Register.Records.Create(context.Background(), hr.Fields{})
		require.NoError(t, err)
		assert.Equal(t, hr.SystemActor, h.CreatedBy)
	})

	t.Run("writes a create audit entry", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := hr.WithActor(context.Background(), "alice")

		h, err := env.Register.Records.Create(ctx, hr.Fields{"nature": "Site access"})
		require.NoError(t, err)

		entries, err := env.Register.Audit.ListForEntity(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		e := entries[0]
		assert.Equal(t, hr.ActionCreate, e.Action)
		assert.Equal(t, hr.EntityHindrance, e.Entity)
		assert.Equal(t, "alice", e.User)
		assert.False(t, e.HasOldValue())
		require.True(t, e.HasNewValue())

		var snap hr.Hindrance
		require.NoError(t, json.Unmarshal(e.NewValue, &snap))
		assert.Equal(t, h.SrNo, snap.SrNo)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		env := testutil.NewTestEnv(t)

		_, err := env.Register.Records.Create(context.Background(), hr.Fields{"startDate": 20240110})
		assert.ErrorIs(t, err, hr.ErrInvalidFormat)
	})

	t.Run("keeps unknown fields", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		h, err := env.Register.Records.Create(ctx, hr.Fields{"siteZone": "North", "startDate": "2024-01-10"})
		require.NoError(t, err)

		_, err = env.Register.Records.Update(ctx, h.ID, hr.Fields{"remarks": "checked"})
		require.NoError(t, err)

		got, err := env.Register.Records.GetByID(ctx, h.ID)
		require.NoError(t, err)
		data, err := json.Marshal(got)
		require.NoError(t, err)

		var obj map[string]any
		require.NoError(t, json.Unmarshal(data, &obj))
		assert.Equal(t, "North", obj["siteZone"])
		assert.Equal(t, "checked", obj["remarks"])
	})
}

func TestRecordStore_SrNoAfterDelete(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		h, err := env.Register.Records.Create(ctx, hr.Fields{})
		require.NoError(t, err)
		ids = append(ids, h.ID)
	}

	// deleting a middle record leaves the sequence alone
	ok, err := env.Register.Records.Delete(ctx, ids[1])
	require.NoError(t, err)
	require.True(t, ok)
	h, err := env.Register.Records.Create(ctx, hr.Fields{})
	require.NoError(t, err)
	assert.Equal(t, "HR-004", h.SrNo)

	// deleting the highest record frees its number
	ok, err = env.Register.Records.Delete(ctx, h.ID)
	require.NoError(t, err)
	require.True(t, ok)
	h, err = env.Register.Records.Create(ctx, hr.Fields{})
	require.NoError(t, err)
	assert.Equal(t, "HR-004", h.SrNo)
}

func TestRecordStore_Update(t *testing.T) {
	t.Run("merges fields and stamps update", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		h, err := env.Register.Records.Create(ctx, hr.Fields{"startDate": "2024-01-01", "nature": "Rain", "severity": "Low"})
		require.NoError(t, err)

		env.Clock.AdvanceDays(1)
		updated, err := env.Register.Records.Update(hr.WithActor(ctx, "bob"), h.ID, hr.Fields{
			"severity":  "High",
			"srNo":      "HR-777",
			"createdBy": "mallory",
			"updatedAt": "2000-01-01T00:00:00Z",
		})
		require.NoError(t, err)

		assert.Equal(t, "High", updated.Text(hr.FieldSeverity))
		assert.Equal(t, "Rain", updated.Text(hr.FieldNature))
		assert.Equal(t, h.SrNo, updated.SrNo)
		assert.Equal(t, h.CreatedBy, updated.CreatedBy)
		assert.Equal(t, h.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "bob", updated.UpdatedBy)
		assert.Equal(t, env.Clock.Now(), updated.UpdatedAt)
	})

	t.Run("audit carries old and new values", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		h, err := env.Register.Records.Create(ctx, hr.Fields{"severity": "Low"})
		require.NoError(t, err)
		_, err = env.Register.Records.Update(ctx, h.ID, hr.Fields{"severity": "High"})
		require.NoError(t, err)

		entries, err := env.Register.Audit.ListForEntity(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, hr.ActionUpdate, entries[0].Action)

		var before, after hr.Hindrance
		require.NoError(t, json.Unmarshal(entries[0].OldValue, &before))
		require.NoError(t, json.Unmarshal(entries[0].NewValue, &after))
		assert.Equal(t, "Low", before.Text(hr.FieldSeverity))
		assert.Equal(t, "High", after.Text(hr.FieldSeverity))
	})

	t.Run("removal date resolves and nil clears it", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		h, err := env.Register.Records.Create(ctx, hr.Fields{"startDate": "2023-12-01"})
		require.NoError(t, err)

		v, err := env.Register.View(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, hr.StatusOverdue, v.EffectiveStatus)

		_, err = env.Register.Records.Update(ctx, h.ID, hr.Fields{"removalDate": "2023-12-04"})
		require.NoError(t, err)
		v, err = env.Register.View(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, hr.StatusResolved, v.EffectiveStatus)
		assert.Equal(t, 3, v.DaysPending)

		_, err = env.Register.Records.Update(ctx, h.ID, hr.Fields{"removalDate": nil})
		require.NoError(t, err)
		v, err = env.Register.View(ctx, h.ID)
		require.NoError(t, err)
		assert.Nil(t, v.Record.RemovalDate)
		assert.Equal(t, hr.StatusOverdue, v.EffectiveStatus)
	})

	t.Run("unknown id", func(t *testing.T) {
		env := testutil.NewTestEnv(t)

		_, err := env.Register.Records.Update(context.Background(), "missing", hr.Fields{"severity": "High"})
		assert.ErrorIs(t, err, hr.ErrNotFound)

		entries, err := env.Register.Audit.Entries(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("concurrent updates keep both writes", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		h, err := env.Register.Records.Create(ctx, hr.Fields{})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, patch := range []hr.Fields{{"severity": "High"}, {"remarks": "escalated"}} {
			wg.Add(1)
			go func(p hr.Fields) {
				defer wg.Done()
				_, err := env.Register.Records.Update(ctx, h.ID, p)
				errs <- err
			}(patch)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := env.Register.Records.GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "High", got.Text(hr.FieldSeverity))
		assert.Equal(t, "escalated", got.Text(hr.FieldRemarks))
	})
}

func TestRecordStore_ConcurrentCreates(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Register.Records.Create(ctx, hr.Fields{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := env.Register.Records.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, n)

	seen := map[string]bool{}
	for _, h := range list {
		assert.False(t, seen[h.SrNo], "duplicate %s", h.SrNo)
		seen[h.SrNo] = true
	}
}

func TestRecordStore_WriteFailure(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	h, err := env.Register.Records.Create(ctx, hr.Fields{"severity": "Low"})
	require.NoError(t, err)

	env.KV.FailWrites(hr.CollectionHindrances)

	_, err = env.Register.Records.Create(ctx, hr.Fields{})
	assert.ErrorIs(t, err, hr.ErrWriteFailure)
	assert.ErrorIs(t, err, testutil.ErrInjected)

	_, err = env.Register.Records.Update(ctx, h.ID, hr.Fields{"severity": "High"})
	assert.ErrorIs(t, err, hr.ErrWriteFailure)

	ok, err := env.Register.Records.Delete(ctx, h.ID)
	assert.ErrorIs(t, err, hr.ErrWriteFailure)
	assert.False(t, ok)

	env.KV.Heal()
	list, err := env.Register.Records.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Low", list[0].Text(hr.FieldSeverity))

	entries, err := env.Register.Audit.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the first create is audited")
}

func TestRecordStore_AuditFailureIsLogged(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	env.KV.FailWrites(hr.CollectionAuditLog)
	h, err := env.Register.Records.Create(ctx, hr.Fields{})
	require.NoError(t, err)

	got, err := env.Register.Records.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	logged := env.Logs.FilterMessage("audit append failed").All()
	require.Len(t, logged, 1)
	assert.Equal(t, h.ID, logged[0].ContextMap()["id"])
}

func TestRecordStore_Delete(t *testing.T) {
	t.Run("cascades to attachments", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		doomed, err := env.Register.Records.Create(ctx, hr.Fields{})
		require.NoError(t, err)
		kept, err := env.Register.Records.Create(ctx, hr.Fields{})
		require.NoError(t, err)

		for _, owner := range []string{doomed.ID, doomed.ID, kept.ID} {
			_, err := env.Register.Attachments.Save(ctx, &hr.Attachment{
				HindranceID: owner,
				Name:        "site.png",
				MimeType:    "image/png",
				Data:        hr.EncodeDataURI("image/png", []byte{0x89, 'P', 'N', 'G'}),
			})
			require.NoError(t, err)
		}

		ok, err := env.Register.Records.Delete(ctx, doomed.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		left, err := env.Register.Attachments.ListByOwner(ctx, doomed.ID)
		require.NoError(t, err)
		assert.Empty(t, left)

		others, err := env.Register.Attachments.ListByOwner(ctx, kept.ID)
		require.NoError(t, err)
		assert.Len(t, others, 1)

		entries, err := env.Register.Audit.ListForEntity(ctx, doomed.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, hr.ActionDelete, entries[0].Action)
		assert.True(t, entries[0].HasOldValue())
		assert.False(t, entries[0].HasNewValue())
	})

	t.Run("cascade failure keeps the delete", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		h, err := env.Register.Records.Create(ctx, hr.Fields{})
		require.NoError(t, err)
		require.NoError(t, env.Attachments.Close())

		ok, err := env.Register.Records.Delete(ctx, h.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := env.Register.Records.GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 1, env.Logs.FilterMessage("attachment cascade failed").Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		ctx := context.Background()

		ok, err := env.Register.Records.Delete(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		entries, err := env.Register.Audit.Entries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRecordStore_Lookups(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	h, err := env.Register.Records.Create(ctx, hr.Fields{"nature": "Rain"})
	require.NoError(t, err)

	byID, err := env.Register.Records.GetByID(ctx, h.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Rain", byID.Text(hr.FieldNature))

	bySrNo, err := env.Register.Records.GetBySrNo(ctx, "HR-001")
	require.NoError(t, err)
	require.NotNil(t, bySrNo)
	assert.Equal(t, h.ID, bySrNo.ID)

	missing, err := env.Register.Records.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = env.Register.Records.GetBySrNo(ctx, "HR-404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// returned records are copies
	byID.Extra[hr.FieldNature] = json.RawMessage(`"changed"`)
	again, err := env.Register.Records.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rain", again.Text(hr.FieldNature))
}

func TestRecordStore_WorkAffectedAsString(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.KV.Set(ctx, hr.CollectionHindrances,
		[]byte(`[{"id":"legacy","srNo":"HR-001","workAffected":"Roofing","startDate":"2024-01-14"}]`)))

	h, err := env.Register.Records.GetByID(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []string{"Roofing"}, h.WorkPhases())

	next, err := env.Register.Records.Create(ctx, hr.Fields{"workAffected": []string{"Finishing", "MEP"}})
	require.NoError(t, err)
	assert.Equal(t, "HR-002", next.SrNo)
	assert.Equal(t, []string{"Finishing", "MEP"}, next.WorkPhases())
}

func TestRecordStore_UninterpretedFieldsPassThrough(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	h, err := env.Register.Records.Create(ctx, hr.Fields{
		"startDate":      "2024-01-10",
		"estimatedDelay": "3",
		"costImpact":     "12,000",
		"severity":       3,
	})
	require.NoError(t, err)

	_, err = env.Register.Records.Update(ctx, h.ID, hr.Fields{"affectedWorkforce": 2.5, "remarks": "checked"})
	require.NoError(t, err)

	check := func(t *testing.T, got *hr.Hindrance) {
		t.Helper()
		require.NotNil(t, got)
		assert.Equal(t, `"3"`, string(got.Raw("estimatedDelay")))
		assert.Equal(t, `"12,000"`, string(got.Raw("costImpact")))
		assert.Equal(t, `3`, string(got.Raw("severity")))
		assert.Equal(t, `2.5`, string(got.Raw("affectedWorkforce")))
		assert.Equal(t, "checked", got.Text(hr.FieldRemarks))
	}

	stored, err := env.Register.Records.GetByID(ctx, h.ID)
	require.NoError(t, err)
	check(t, stored)

	views, err := env.Register.Views(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	_, err = env.Register.Stats(ctx)
	require.NoError(t, err)

	b, err := env.Register.Backups.CreateSnapshot(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(b)
	require.NoError(t, err)

	fresh := testutil.NewTestEnv(t)
	parsed, err := hr.ParseBackup(bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, fresh.Register.Backups.Restore(ctx, parsed))

	restored, err := fresh.Register.Records.GetByID(ctx, h.ID)
	require.NoError(t, err)
	check(t, restored)
}

func TestRecordStore_RestoresForeignFieldTypes(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	b, err := hr.ParseBackup(strings.NewReader(
		`{"data":{"hindrances":[{"id":"x","srNo":"HR-001","startDate":"2024-01-10","estimatedDelay":"3","workAffected":{"phase":"MEP"}}]}}`))
	require.NoError(t, err)
	require.NoError(t, env.Register.Backups.Restore(ctx, b))

	v, err := env.Register.View(ctx, "x")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 3.0, v.Record.Number("estimatedDelay"))
	assert.Empty(t, v.Record.WorkPhases())
	assert.JSONEq(t, `{"phase":"MEP"}`, string(v.Record.Raw(hr.FieldWorkAffected)))
}
