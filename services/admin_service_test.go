package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/anleague/tournament-engine/models"
)

type adminFixture struct {
	svc       AdminService
	userRepo  *fakeUserRepo
	teamRepo  *fakeTeamRepo
	matchRepo *fakeMatchRepo
	uploader  *fakeUploader
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	userRepo := newFakeUserRepo()
	teamRepo := newFakeTeamRepo()
	matchRepo := newFakeMatchRepo()
	tournamentRepo := newFakeTournamentRepo()
	pastRepo := newFakePastTournamentRepo()
	uploader := newFakeUploader()
	svc := NewAdminService(userRepo, teamRepo, matchRepo, tournamentRepo, pastRepo, uploader, testLogger())
	return &adminFixture{
		svc:       svc,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
		uploader:  uploader,
	}
}

func TestDataOverview(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	user := &models.User{Username: "admin", Email: "a@example.com", PasswordHash: "secret", Role: models.RoleAdmin}
	if err := f.userRepo.Create(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	team := &models.Team{Country: "Ghana", Manager: "M", Squad: fullSquad()}
	if err := f.teamRepo.Create(ctx, team); err != nil {
		t.Fatalf("seed team: %v", err)
	}

	overview, err := f.svc.DataOverview(ctx)
	if err != nil {
		t.Fatalf("DataOverview returned error: %v", err)
	}
	if len(overview.Users) != 1 || len(overview.Teams) != 1 {
		t.Errorf("overview sizes: users=%d teams=%d", len(overview.Users), len(overview.Teams))
	}
	if overview.Users[0].PasswordHash != "" {
		t.Error("overview must not expose password hashes")
	}
	// No active tournament is not an error for the overview.
	if overview.Tournament != nil {
		t.Errorf("tournament: got %+v, want nil", overview.Tournament)
	}
}

func TestExportSnapshotUploadsJSON(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	team := &models.Team{Country: "Senegal", Manager: "M", Squad: fullSquad()}
	if err := f.teamRepo.Create(ctx, team); err != nil {
		t.Fatalf("seed team: %v", err)
	}

	location, err := f.svc.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot returned error: %v", err)
	}
	if !strings.Contains(location, "exports/") || !strings.HasSuffix(location, ".json") {
		t.Errorf("snapshot location: %q", location)
	}

	if len(f.uploader.objects) != 1 {
		t.Fatalf("uploaded objects: got %d, want 1", len(f.uploader.objects))
	}
	for _, data := range f.uploader.objects {
		var overview models.AdminDataOverview
		if err := json.Unmarshal(data, &overview); err != nil {
			t.Fatalf("snapshot is not valid JSON: %v", err)
		}
		if len(overview.Teams) != 1 || overview.Teams[0].Country != "Senegal" {
			t.Errorf("snapshot teams: %+v", overview.Teams)
		}
	}
}

func TestExportSnapshotWithoutUploader(t *testing.T) {
	f := newAdminFixture(t)
	svc := NewAdminService(f.userRepo, f.teamRepo, f.matchRepo, newFakeTournamentRepo(), newFakePastTournamentRepo(), nil, testLogger())
	if _, err := svc.ExportSnapshot(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("got %v, want ErrStorageUnavailable", err)
	}
}

func TestPurgeTournamentMatches(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		m := &models.Match{TournamentID: 1, Stage: models.StageQuarterfinal, Team1ID: 1, Team2ID: 2, Status: models.MatchStatusCompleted}
		if err := f.matchRepo.Create(ctx, nil, m); err != nil {
			t.Fatalf("seed match: %v", err)
		}
	}
	other := &models.Match{TournamentID: 2, Stage: models.StageFinal, Team1ID: 3, Team2ID: 4, Status: models.MatchStatusPending}
	if err := f.matchRepo.Create(ctx, nil, other); err != nil {
		t.Fatalf("seed match: %v", err)
	}

	deleted, err := f.svc.PurgeTournamentMatches(ctx, 1)
	if err != nil {
		t.Fatalf("PurgeTournamentMatches returned error: %v", err)
	}
	if deleted != 4 {
		t.Errorf("deleted: got %d, want 4", deleted)
	}
	remaining, _ := f.matchRepo.Count(ctx)
	if remaining != 1 {
		t.Errorf("remaining matches: got %d, want 1", remaining)
	}
}

func TestDeleteEndpointsMapNotFound(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	if err := f.svc.DeleteMatch(ctx, 99); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("delete match: got %v, want ErrMatchNotFound", err)
	}
	if err := f.svc.DeleteTeam(ctx, 99); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("delete team: got %v, want ErrTeamNotFound", err)
	}
	if err := f.svc.DeleteUser(ctx, 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("delete user: got %v, want ErrUserNotFound", err)
	}
}
