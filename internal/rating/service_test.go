package rating

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/findone/findone-backend/internal/activity"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&UserRating{}, &activity.Activity{}, &activity.AttendanceRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepository(db), nil), db
}

const target = "bruno@example.com"

func seedActivityWithAttendance(t *testing.T, db *gorm.DB, attended, onTime bool) uint {
	t.Helper()

	a := activity.Activity{
		CreatorID:    1,
		CreatorEmail: "ana@example.com",
		CreatorName:  "Ana García",
		Title:        "Pádel en Palermo",
		Category:     activity.CategorySports,
		Subcategory:  "Pádel",
		Location:     "Palermo",
		Spots:        2,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	rec := activity.AttendanceRecord{
		ActivityID: a.ID,
		UserEmail:  target,
		UserName:   "Bruno Díaz",
		Attended:   attended,
		OnTime:     onTime,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed attendance: %v", err)
	}
	return a.ID
}

func rater(email string) Rater {
	return Rater{ID: 1, Email: email, Name: "Ana García"}
}

func TestRateUserGuards(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	activityID := seedActivityWithAttendance(t, db, true, true)

	if _, err := svc.RateUser(ctx, rater("ana@example.com"), RateInput{ActivityID: activityID, TargetEmail: target, Score: 7}, "ip"); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}
	if _, err := svc.RateUser(ctx, rater(target), RateInput{ActivityID: activityID, TargetEmail: target, Score: 4}, "ip"); !errors.Is(err, ErrSelfRating) {
		t.Fatalf("expected ErrSelfRating, got %v", err)
	}
	if _, err := svc.RateUser(ctx, rater("ana@example.com"), RateInput{ActivityID: activityID, TargetEmail: "nobody@example.com", Score: 4}, "ip"); !errors.Is(err, ErrNotRatable) {
		t.Fatalf("expected ErrNotRatable, got %v", err)
	}

	created, err := svc.RateUser(ctx, rater("ana@example.com"), RateInput{ActivityID: activityID, TargetEmail: target, Score: 4, Comment: "buen compañero"}, "ip")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if created.ActivityTitle != "Pádel en Palermo" || !created.Attended || !created.OnTime {
		t.Fatalf("unexpected rating: %+v", created)
	}

	// Same rater, same activity: blocked by the rater ledger.
	if _, err := svc.RateUser(ctx, rater("ana@example.com"), RateInput{ActivityID: activityID, TargetEmail: target, Score: 5}, "ip"); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
}

func TestStatsDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.GetStats(context.Background(), "fresh@example.com")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.AverageRating != 0 || stats.RatingCount != 0 {
		t.Fatalf("expected empty rating aggregate: %+v", stats)
	}
	if stats.AttendanceRate != 100 || stats.PunctualityRate != 100 {
		t.Fatalf("expected 100%% defaults: %+v", stats)
	}
}

func TestStatsAggregation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Three activities: attended+on-time, attended+late, no-show.
	scenarios := []struct {
		attended, onTime bool
		raterEmail       string
		score            int
	}{
		{true, true, "ana@example.com", 5},
		{true, false, "carla@example.com", 4},
		{false, false, "diego@example.com", 2},
	}
	for _, sc := range scenarios {
		activityID := seedActivityWithAttendance(t, db, sc.attended, sc.onTime)
		if _, err := svc.RateUser(ctx, rater(sc.raterEmail), RateInput{ActivityID: activityID, TargetEmail: target, Score: sc.score}, "ip"); err != nil {
			t.Fatalf("rate: %v", err)
		}
	}

	stats, err := svc.GetStats(ctx, target)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.RatingCount != 3 {
		t.Fatalf("expected 3 ratings, got %d", stats.RatingCount)
	}
	if want := (5.0 + 4.0 + 2.0) / 3.0; stats.AverageRating != want {
		t.Fatalf("average = %f, want %f", stats.AverageRating, want)
	}
	// 2 of 3 attended.
	if stats.AttendanceRate != 67 {
		t.Fatalf("attendance = %d, want 67", stats.AttendanceRate)
	}
	// 1 of the 2 attended was on time; the no-show must not count.
	if stats.PunctualityRate != 50 {
		t.Fatalf("punctuality = %d, want 50", stats.PunctualityRate)
	}

	avg, err := svc.AverageFor(ctx, target)
	if err != nil || avg != stats.AverageRating {
		t.Fatalf("AverageFor = %f, %v", avg, err)
	}
}

func TestListRatingsNewestFirst(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first := seedActivityWithAttendance(t, db, true, true)
	second := seedActivityWithAttendance(t, db, true, true)
	if _, err := svc.RateUser(ctx, rater("ana@example.com"), RateInput{ActivityID: first, TargetEmail: target, Score: 3}, "ip"); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.RateUser(ctx, rater("carla@example.com"), RateInput{ActivityID: second, TargetEmail: target, Score: 5}, "ip"); err != nil {
		t.Fatalf("rate: %v", err)
	}

	ratings, err := svc.ListRatings(ctx, target)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected 2 ratings, got %d", len(ratings))
	}
}
