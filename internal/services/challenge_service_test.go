package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"challenge-arena/internal/models"
	"challenge-arena/internal/repository"
)

type serviceFixture struct {
	db      *gorm.DB
	service *ChallengeService
	space   models.Space
	admin   models.User
	member  models.User
}

// newServiceFixture creates a space with two members: admin created the
// space, member joined it.
func newServiceFixture(t *testing.T) *serviceFixture {
	db := setupLifecycleDB(t)

	admin := models.User{Email: "admin@example.com", PasswordHash: "x", FullName: "Admin"}
	member := models.User{Email: "member@example.com", PasswordHash: "x", FullName: "Member"}
	for _, u := range []*models.User{&admin, &member} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	}

	space := models.Space{Name: "test space", InvitationToken: "tok-service"}
	if err := db.Create(&space).Error; err != nil {
		t.Fatalf("failed to create space: %v", err)
	}
	memberships := []models.SpaceMember{
		{SpaceID: space.ID, UserID: admin.ID, IsAdministrator: true},
		{SpaceID: space.ID, UserID: member.ID},
	}
	if err := db.Create(&memberships).Error; err != nil {
		t.Fatalf("failed to create space members: %v", err)
	}

	engine := NewLifecycleEngine(repository.NewRepository(db))
	service := NewChallengeService(db, NewSpaceService(db), engine)

	return &serviceFixture{db: db, service: service, space: space, admin: admin, member: member}
}

func (f *serviceFixture) createChallenge(t *testing.T, req models.CreateChallengeRequest) *models.Challenge {
	if req.Name == "" {
		req.Name = "test challenge"
	}
	if req.ResultsAggregationStrategy == "" {
		req.ResultsAggregationStrategy = models.AggregationSum
	}
	if req.PrizeDeterminationFn == "" {
		req.PrizeDeterminationFn = models.SelectionTail
		req.PrizeDeterminationArgument = 1
	}
	challenge, err := f.service.CreateChallenge(f.admin.ID, f.space.ID, &req)
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}
	return challenge
}

func TestCreateChallengeAddsCreatorMember(t *testing.T) {
	f := newServiceFixture(t)

	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt: time.Now().Add(-time.Hour),
	})

	var m models.ChallengeMember
	err := f.db.Where("challenge_id = ? AND user_id = ?", challenge.ID, f.admin.ID).First(&m).Error
	if err != nil {
		t.Fatalf("expected creator membership: %v", err)
	}
	if !m.IsAdministrator || !m.IsParticipant {
		t.Errorf("expected creator to be administrator and participant, got %+v", m)
	}
}

func TestCreateChallengeRequiresSpaceMembership(t *testing.T) {
	f := newServiceFixture(t)

	outsider := models.User{Email: "outsider@example.com", PasswordHash: "x", FullName: "Outsider"}
	if err := f.db.Create(&outsider).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := f.service.CreateChallenge(outsider.ID, f.space.ID, &models.CreateChallengeRequest{
		Name:                       "nope",
		StartsAt:                   time.Now(),
		ResultsAggregationStrategy: models.AggregationSum,
		PrizeDeterminationFn:       models.SelectionTail,
		PrizeDeterminationArgument: 1,
	})
	if !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestJoinChallengeTwice(t *testing.T) {
	f := newServiceFixture(t)
	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt: time.Now().Add(-time.Hour),
	})

	if _, err := f.service.JoinChallenge(f.member.ID, f.space.ID, challenge.ID); err != nil {
		t.Fatalf("JoinChallenge failed: %v", err)
	}
	_, err := f.service.JoinChallenge(f.member.ID, f.space.ID, challenge.ID)
	if !errors.Is(err, models.ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}
}

func TestSubmitResultAdvancesLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	fn, arg := higherThan(200)
	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt:                    time.Now().Add(-time.Hour),
		EndsAtDeterminationFn:       fn,
		EndsAtDeterminationArgument: arg,
	})

	_, err := f.service.SubmitResult(context.Background(), f.admin.ID, f.space.ID, challenge.ID,
		&models.SubmitResultRequest{SubmittedValue: 10})
	if err != nil {
		t.Fatalf("SubmitResult failed: %v", err)
	}

	var reloaded models.Challenge
	if err := f.db.First(&reloaded, challenge.ID).Error; err != nil {
		t.Fatalf("failed to reload challenge: %v", err)
	}
	if reloaded.CachedCurrentProgress != 5 {
		t.Errorf("expected progress 5 after submission, got %d", reloaded.CachedCurrentProgress)
	}
}

func TestSubmitResultRejectsFinishedChallenge(t *testing.T) {
	f := newServiceFixture(t)
	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt: time.Now().Add(-time.Hour),
	})
	if err := f.db.Model(&models.Challenge{}).Where("id = ?", challenge.ID).
		Update("cached_current_progress", 100).Error; err != nil {
		t.Fatalf("failed to finish challenge: %v", err)
	}

	_, err := f.service.SubmitResult(context.Background(), f.admin.ID, f.space.ID, challenge.ID,
		&models.SubmitResultRequest{SubmittedValue: 10})
	if !errors.Is(err, models.ErrChallengeFinished) {
		t.Errorf("expected ErrChallengeFinished, got %v", err)
	}
}

func TestSubmitResultRequiresParticipantRole(t *testing.T) {
	f := newServiceFixture(t)
	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt: time.Now().Add(-time.Hour),
	})

	// A space member who never joined the challenge cannot submit.
	_, err := f.service.SubmitResult(context.Background(), f.member.ID, f.space.ID, challenge.ID,
		&models.SubmitResultRequest{SubmittedValue: 10})
	if !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestEstimateResultRequiresRefereeRole(t *testing.T) {
	f := newServiceFixture(t)
	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt:             time.Now().Add(-time.Hour),
		IsEstimationRequired: true,
	})
	ctx := context.Background()

	result, err := f.service.SubmitResult(ctx, f.admin.ID, f.space.ID, challenge.ID,
		&models.SubmitResultRequest{SubmittedValue: 10})
	if err != nil {
		t.Fatalf("SubmitResult failed: %v", err)
	}

	if _, err := f.service.JoinChallenge(f.member.ID, f.space.ID, challenge.ID); err != nil {
		t.Fatalf("JoinChallenge failed: %v", err)
	}
	_, err = f.service.EstimateResult(ctx, f.member.ID, result.ID, 8)
	if !errors.Is(err, models.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for non-referee, got %v", err)
	}

	if err := f.db.Model(&models.ChallengeMember{}).
		Where("challenge_id = ? AND user_id = ?", challenge.ID, f.member.ID).
		Update("is_referee", true).Error; err != nil {
		t.Fatalf("failed to grant referee role: %v", err)
	}

	if _, err := f.service.EstimateResult(ctx, f.member.ID, result.ID, 8); err != nil {
		t.Fatalf("EstimateResult failed: %v", err)
	}

	var reloaded models.ChallengeResult
	if err := f.db.First(&reloaded, result.ID).Error; err != nil {
		t.Fatalf("failed to reload result: %v", err)
	}
	if reloaded.EstimationValue == nil || *reloaded.EstimationValue != 8 {
		t.Errorf("expected estimation value 8, got %v", reloaded.EstimationValue)
	}
}

func TestGetLeaderboardOrdering(t *testing.T) {
	f := newServiceFixture(t)
	challenge := f.createChallenge(t, models.CreateChallengeRequest{
		StartsAt: time.Now().Add(-time.Hour),
	})
	ctx := context.Background()

	if _, err := f.service.JoinChallenge(f.member.ID, f.space.ID, challenge.ID); err != nil {
		t.Fatalf("JoinChallenge failed: %v", err)
	}
	if _, err := f.service.SubmitResult(ctx, f.admin.ID, f.space.ID, challenge.ID,
		&models.SubmitResultRequest{SubmittedValue: 10}); err != nil {
		t.Fatalf("SubmitResult failed: %v", err)
	}
	if _, err := f.service.SubmitResult(ctx, f.member.ID, f.space.ID, challenge.ID,
		&models.SubmitResultRequest{SubmittedValue: 25}); err != nil {
		t.Fatalf("SubmitResult failed: %v", err)
	}

	entries, err := f.service.GetLeaderboard(f.admin.ID, f.space.ID, challenge.ID)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != f.member.ID || entries[0].Score != 25 || entries[0].Rank != 1 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].UserID != f.admin.ID || entries[1].Score != 10 || entries[1].Rank != 2 {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestGetChallengesStateFilter(t *testing.T) {
	f := newServiceFixture(t)

	f.createChallenge(t, models.CreateChallengeRequest{
		Name:     "running",
		StartsAt: time.Now().Add(-time.Hour),
	})
	f.createChallenge(t, models.CreateChallengeRequest{
		Name:     "upcoming",
		StartsAt: time.Now().Add(time.Hour),
	})

	state := models.ChallengeStateScheduled
	challenges, err := f.service.GetChallenges(f.admin.ID, f.space.ID, &state)
	if err != nil {
		t.Fatalf("GetChallenges failed: %v", err)
	}
	if len(challenges) != 1 || challenges[0].Name != "upcoming" {
		t.Errorf("expected only the upcoming challenge, got %+v", challenges)
	}

	all, err := f.service.GetChallenges(f.admin.ID, f.space.ID, nil)
	if err != nil {
		t.Fatalf("GetChallenges failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 challenges, got %d", len(all))
	}
}
