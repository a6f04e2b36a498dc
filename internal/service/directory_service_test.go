package service

import (
	"context"
	"io"
	"testing"

	"vestry/internal/database"
	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirectoryService(t *testing.T) (*DirectoryService, database.Store) {
	t.Helper()
	store := database.NewMemoryStore()
	logger := zerolog.New(io.Discard)
	return NewDirectoryService(store, &logger), store
}

func TestSaveMember(t *testing.T) {
	svc, _ := newDirectoryService(t)
	ctx := context.Background()

	saved, err := svc.SaveMember(ctx, models.Member{FirstName: " Anna ", LastName: "Ivanova"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Anna", saved.FirstName)
	assert.Equal(t, models.MembershipActive, saved.Membership, "membership defaults to active")
	assert.False(t, saved.CreatedAt.IsZero())

	// Re-saving keeps the original creation time.
	saved.Phone = "+1 555 0100"
	resaved, err := svc.SaveMember(ctx, *saved)
	require.NoError(t, err)
	assert.Equal(t, saved.CreatedAt, resaved.CreatedAt)
	assert.Equal(t, "+1 555 0100", resaved.Phone)

	_, err = svc.SaveMember(ctx, models.Member{})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = svc.SaveMember(ctx, models.Member{FirstName: "X", Membership: "honorary"})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "membership", validation.Field)
}

func TestRecordContribution(t *testing.T) {
	svc, _ := newDirectoryService(t)
	ctx := context.Background()

	member, err := svc.SaveMember(ctx, models.Member{FirstName: "Anna", LastName: "Ivanova"})
	require.NoError(t, err)

	c, err := svc.RecordContribution(ctx, models.Contribution{
		MemberID:    member.ID,
		AmountCents: 2500,
		Date:        "2026-08-30",
		Fund:        models.FundMissions,
		Method:      models.MethodCheck,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	// Anonymous cash gift with defaults.
	c, err = svc.RecordContribution(ctx, models.Contribution{AmountCents: 100})
	require.NoError(t, err)
	assert.Equal(t, models.FundGeneral, c.Fund)
	assert.Equal(t, models.MethodCash, c.Method)
	assert.NotEmpty(t, c.Date)

	_, err = svc.RecordContribution(ctx, models.Contribution{AmountCents: 0})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = svc.RecordContribution(ctx, models.Contribution{AmountCents: 100, MemberID: "ghost"})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	list, err := svc.GetContributions(ctx, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.GetContributions(ctx, "yesterday", "")
	require.ErrorAs(t, err, &validation)
}

func TestContributionSummary(t *testing.T) {
	svc, _ := newDirectoryService(t)
	ctx := context.Background()

	for _, c := range []models.Contribution{
		{AmountCents: 1000, Date: "2026-08-02", Fund: models.FundGeneral},
		{AmountCents: 500, Date: "2026-08-09", Fund: models.FundGeneral},
		{AmountCents: 2500, Date: "2026-08-16", Fund: models.FundBuilding},
		{AmountCents: 700, Date: "2026-09-06", Fund: models.FundGeneral},
	} {
		_, err := svc.RecordContribution(ctx, c)
		require.NoError(t, err)
	}

	totals, err := svc.ContributionSummary(ctx, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), totals[models.FundGeneral])
	assert.Equal(t, int64(2500), totals[models.FundBuilding])

	totals, err = svc.ContributionSummary(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2200), totals[models.FundGeneral])
}

func TestRecordAttendance(t *testing.T) {
	svc, _ := newDirectoryService(t)
	ctx := context.Background()

	rec, err := svc.RecordAttendance(ctx, models.AttendanceRecord{
		ServiceDate: "2026-08-30",
		Adults:      45,
		Children:    12,
		Visitors:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ServiceSundayMorning, rec.ServiceType)
	assert.Equal(t, 60, rec.Total())

	_, err = svc.RecordAttendance(ctx, models.AttendanceRecord{ServiceDate: ""})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = svc.RecordAttendance(ctx, models.AttendanceRecord{ServiceDate: "2026-08-30", Adults: -1})
	require.ErrorAs(t, err, &validation)
}
