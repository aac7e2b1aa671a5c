package deletion

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/models"
)

type fakeCampaigns struct {
	refs          []models.CampaignRef
	listErr       error
	getErr        error
	deleteErr     error
	deleteAllErr  error
	deletedIDs    []string
	deletedOwners []string
}

func (f *fakeCampaigns) GetRefByName(_ context.Context, _, name string) (*models.CampaignRef, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, ref := range f.refs {
		if ref.Name == name {
			r := ref
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeCampaigns) ListRefs(_ context.Context, _ string) ([]models.CampaignRef, error) {
	return f.refs, f.listErr
}

func (f *fakeCampaigns) DeleteByID(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeCampaigns) DeleteAllForUser(_ context.Context, userID string) error {
	if f.deleteAllErr != nil {
		return f.deleteAllErr
	}
	f.deletedOwners = append(f.deletedOwners, userID)
	return nil
}

type fakeLeads struct {
	deletedCampaigns [][]string
	err              error
}

func (f *fakeLeads) DeleteByCampaignID(ctx context.Context, campaignID string) error {
	return f.DeleteByCampaignIDs(ctx, []string{campaignID})
}

func (f *fakeLeads) DeleteByCampaignIDs(_ context.Context, ids []string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedCampaigns = append(f.deletedCampaigns, ids)
	return nil
}

type fakeRuns struct {
	deletedRunIDs []string
	deletedNames  [][]string
	err           error
}

func (f *fakeRuns) DeleteByRunID(_ context.Context, _, runID string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedRunIDs = append(f.deletedRunIDs, runID)
	return nil
}

func (f *fakeRuns) DeleteByCampaignNames(_ context.Context, _ string, names []string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedNames = append(f.deletedNames, names)
	return nil
}

type fakeRefresher struct {
	refreshed []*dashboard.Session
}

func (f *fakeRefresher) Refresh(_ context.Context, session *dashboard.Session) {
	f.refreshed = append(f.refreshed, session)
}

type fixture struct {
	campaigns *fakeCampaigns
	leads     *fakeLeads
	runs      *fakeRuns
	refresher *fakeRefresher
	service   *Service
}

func newFixture(refs ...models.CampaignRef) *fixture {
	f := &fixture{
		campaigns: &fakeCampaigns{refs: refs},
		leads:     &fakeLeads{},
		runs:      &fakeRuns{},
		refresher: &fakeRefresher{},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	f.service = NewService(f.campaigns, f.leads, f.runs, f.refresher, logger)
	return f
}

func hasNotice(notices []models.Notice, title string) bool {
	for _, n := range notices {
		if n.Title == title {
			return true
		}
	}
	return false
}

func TestDeleteCampaign(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes run, leads, then campaign", func(t *testing.T) {
		f := newFixture(models.CampaignRef{ID: "camp-1", Name: "Spring"})

		result, err := f.service.DeleteCampaign(ctx, "user-1", "Spring", "run-1", nil)
		require.NoError(t, err)
		assert.True(t, result.Deleted)
		assert.Equal(t, []string{"run-1"}, f.runs.deletedRunIDs)
		assert.Equal(t, [][]string{{"camp-1"}}, f.leads.deletedCampaigns)
		assert.Equal(t, []string{"camp-1"}, f.campaigns.deletedIDs)
		assert.True(t, hasNotice(result.Notices, "Campaign Deleted"))
	})

	t.Run("missing campaign reports not found and stops", func(t *testing.T) {
		f := newFixture()

		result, err := f.service.DeleteCampaign(ctx, "user-1", "Ghost", "run-1", nil)
		require.NoError(t, err)
		assert.False(t, result.Deleted)
		assert.True(t, hasNotice(result.Notices, "Campaign Not Found"))
		assert.Empty(t, f.runs.deletedRunIDs)
		assert.Empty(t, f.campaigns.deletedIDs)
	})

	t.Run("run and lead failures do not stop the campaign delete", func(t *testing.T) {
		f := newFixture(models.CampaignRef{ID: "camp-1", Name: "Spring"})
		f.runs.err = errors.New("store down")
		f.leads.err = errors.New("store down")

		result, err := f.service.DeleteCampaign(ctx, "user-1", "Spring", "run-1", nil)
		require.NoError(t, err)
		assert.True(t, result.Deleted)
		assert.Equal(t, []string{"camp-1"}, f.campaigns.deletedIDs)
	})

	t.Run("final campaign delete failure is surfaced", func(t *testing.T) {
		f := newFixture(models.CampaignRef{ID: "camp-1", Name: "Spring"})
		f.campaigns.deleteErr = errors.New("store down")

		result, err := f.service.DeleteCampaign(ctx, "user-1", "Spring", "run-1", nil)
		require.NoError(t, err)
		assert.False(t, result.Deleted)
		assert.True(t, hasNotice(result.Notices, "Delete Failed"))
	})

	t.Run("session is optimistically updated then refreshed", func(t *testing.T) {
		f := newFixture(models.CampaignRef{ID: "camp-1", Name: "Spring"})

		registry := dashboard.NewRegistry()
		session := registry.Open("user-1")
		session.SetRuns([]models.RunView{
			{Run: models.Run{RunID: "run-1"}},
			{Run: models.Run{RunID: "run-2"}},
		})

		_, err := f.service.DeleteCampaign(ctx, "user-1", "Spring", "run-1", session)
		require.NoError(t, err)

		snap := session.Snapshot()
		require.Len(t, snap.Runs, 1)
		assert.Equal(t, "run-2", snap.Runs[0].RunID)
		assert.Equal(t, []*dashboard.Session{session}, f.refresher.refreshed)
	})
}

func TestDeleteAllCampaigns(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes runs by name, leads by id, then campaigns by owner", func(t *testing.T) {
		f := newFixture(
			models.CampaignRef{ID: "camp-1", Name: "Spring"},
			models.CampaignRef{ID: "camp-2", Name: "Summer"},
		)

		result, err := f.service.DeleteAllCampaigns(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.True(t, result.Deleted)
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, [][]string{{"Spring", "Summer"}}, f.runs.deletedNames)
		assert.Equal(t, [][]string{{"camp-1", "camp-2"}}, f.leads.deletedCampaigns)
		assert.Equal(t, []string{"user-1"}, f.campaigns.deletedOwners)
	})

	t.Run("nothing to delete is an ordinary outcome", func(t *testing.T) {
		f := newFixture()

		result, err := f.service.DeleteAllCampaigns(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.False(t, result.Deleted)
		assert.True(t, hasNotice(result.Notices, "No Campaigns"))
		assert.Empty(t, f.campaigns.deletedOwners)
	})

	t.Run("final delete failure is surfaced", func(t *testing.T) {
		f := newFixture(models.CampaignRef{ID: "camp-1", Name: "Spring"})
		f.campaigns.deleteAllErr = errors.New("store down")

		result, err := f.service.DeleteAllCampaigns(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.False(t, result.Deleted)
		assert.True(t, hasNotice(result.Notices, "Delete Failed"))
	})

	t.Run("session is cleared and refreshed on success", func(t *testing.T) {
		f := newFixture(models.CampaignRef{ID: "camp-1", Name: "Spring"})

		registry := dashboard.NewRegistry()
		session := registry.Open("user-1")
		session.SetRuns([]models.RunView{{Run: models.Run{RunID: "run-1"}}})
		session.SetStats(models.ClientStats{MoneySaved: 9})

		_, err := f.service.DeleteAllCampaigns(ctx, "user-1", session)
		require.NoError(t, err)

		snap := session.Snapshot()
		assert.Empty(t, snap.Runs)
		assert.Equal(t, models.ClientStats{}, snap.Stats)
		assert.Len(t, f.refresher.refreshed, 1)
	})
}
