package database

import (
	"context"
	"testing"
	"time"

	"vestry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)

			member := models.Member{
				ID:         "m1",
				FirstName:  "Anna",
				LastName:   "Ivanova",
				Email:      "anna@example.org",
				Membership: models.MembershipActive,
				JoinedAt:   "2024-03-10",
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			require.NoError(t, store.SaveMember(ctx, member))

			got, err := store.GetMember(ctx, "m1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Anna", got.FirstName)
			assert.Equal(t, "2024-03-10", got.JoinedAt)

			// Upsert by id.
			member.Phone = "+1 555 0100"
			require.NoError(t, store.SaveMember(ctx, member))
			all, err := store.GetAllMembers(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "+1 555 0100", all[0].Phone)

			require.NoError(t, store.DeleteMember(ctx, "m1"))
			got, err = store.GetMember(ctx, "m1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestGetAllMembersSorted(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, m := range []models.Member{
				{ID: "m1", FirstName: "Boris", LastName: "Petrov"},
				{ID: "m2", FirstName: "Anna", LastName: "Ivanova"},
				{ID: "m3", FirstName: "Vera", LastName: "Ivanova"},
			} {
				require.NoError(t, store.SaveMember(ctx, m))
			}

			all, err := store.GetAllMembers(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "Anna", all[0].FirstName)
			assert.Equal(t, "Vera", all[1].FirstName)
			assert.Equal(t, "Boris", all[2].FirstName)
		})
	}
}

func TestContributionRange(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, c := range []models.Contribution{
				{ID: "c1", Fund: models.FundGeneral, AmountCents: 1000, Date: "2026-08-02", Method: models.MethodCash},
				{ID: "c2", Fund: models.FundMissions, AmountCents: 2000, Date: "2026-08-16", Method: models.MethodCheck},
				{ID: "c3", Fund: models.FundGeneral, AmountCents: 3000, Date: "2026-09-06", Method: models.MethodOnline},
			} {
				require.NoError(t, store.SaveContribution(ctx, c))
			}

			august, err := store.GetContributions(ctx, "2026-08-01", "2026-08-31")
			require.NoError(t, err)
			require.Len(t, august, 2)
			assert.Equal(t, "c2", august[0].ID, "newest first")

			all, err := store.GetContributions(ctx, "", "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			onlyAfter, err := store.GetContributions(ctx, "2026-09-01", "")
			require.NoError(t, err)
			require.Len(t, onlyAfter, 1)
			assert.Equal(t, "c3", onlyAfter[0].ID)

			require.NoError(t, store.DeleteContribution(ctx, "c1"))
			all, err = store.GetContributions(ctx, "", "")
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestAttendanceRange(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, rec := range []models.AttendanceRecord{
				{ID: "a1", ServiceDate: "2026-08-02", ServiceType: models.ServiceSundayMorning, Adults: 40, Children: 12},
				{ID: "a2", ServiceDate: "2026-08-05", ServiceType: models.ServiceMidweek, Adults: 15},
			} {
				require.NoError(t, store.SaveAttendance(ctx, rec))
			}

			records, err := store.GetAttendance(ctx, "2026-08-01", "2026-08-31")
			require.NoError(t, err)
			require.Len(t, records, 2)

			midweek, err := store.GetAttendance(ctx, "2026-08-03", "")
			require.NoError(t, err)
			require.Len(t, midweek, 1)
			assert.Equal(t, models.ServiceMidweek, midweek[0].ServiceType)
		})
	}
}
