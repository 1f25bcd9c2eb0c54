package activity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/findone/findone-backend/internal/auditlog"
	"github.com/findone/findone-backend/internal/notification"
)

type capturingSink struct {
	events []ActivityEvent
}

func (s *capturingSink) Publish(_ context.Context, event ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fixedRatings struct{ avg float64 }

func (f fixedRatings) AverageFor(context.Context, string) (float64, error) { return f.avg, nil }

func newTestService(t *testing.T) (*Service, *capturingSink, notification.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Activity{}, &JoinRequest{}, &AttendanceRecord{}, &notification.InAppNotification{}, &auditlog.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sink := &capturingSink{}
	notifRepo := notification.NewRepository(db)
	svc := NewService(
		NewRepository(db),
		auditlog.NewService(auditlog.NewRepository(db)),
		notification.NewService(notifRepo),
		sink,
		fixedRatings{avg: 4.2},
	)
	return svc, sink, notifRepo
}

var (
	organizer = Actor{ID: 1, Email: "ana@example.com", Name: "Ana García", Avatar: ""}
	joiner    = Actor{ID: 2, Email: "bruno@example.com", Name: "Bruno Díaz", Avatar: ""}
	third     = Actor{ID: 3, Email: "carla@example.com", Name: "Carla López", Avatar: ""}
)

func sportsInput(spots int) CreateActivityInput {
	level := 3
	return CreateActivityInput{
		Title:       "Pádel en Palermo",
		Category:    CategorySports,
		Subcategory: "Pádel",
		TimeLabel:   "Sábado 10:00",
		Location:    "Palermo, Buenos Aires",
		Lat:         -34.5889,
		Lng:         -58.4306,
		Spots:       spots,
		SkillLevel:  &level,
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateActivityInput
	}{
		{"unknown category", CreateActivityInput{Title: "x", Category: "cooking", Subcategory: "Pádel", Location: "BA", Spots: 2}},
		{"foreign subcategory", CreateActivityInput{Title: "x", Category: CategoryLeisure, Subcategory: "Pádel", Location: "BA", Spots: 2}},
		{"zero spots", func() CreateActivityInput { in := sportsInput(0); return in }()},
		{"sports without skill", CreateActivityInput{Title: "x", Category: CategorySports, Subcategory: "Pádel", Location: "BA", Spots: 2}},
		{"skill on leisure", func() CreateActivityInput {
			lvl := 2
			return CreateActivityInput{Title: "x", Category: CategoryLeisure, Subcategory: "Cine", Location: "BA", Spots: 2, SkillLevel: &lvl}
		}()},
		{"age range out of bounds", func() CreateActivityInput {
			in := sportsInput(2)
			min, max := 15, 30
			in.AgeMin, in.AgeMax = &min, &max
			return in
		}()},
		{"age min above max", func() CreateActivityInput {
			in := sportsInput(2)
			min, max := 40, 30
			in.AgeMin, in.AgeMax = &min, &max
			return in
		}()},
		{"half age range", func() CreateActivityInput {
			in := sportsInput(2)
			min := 20
			in.AgeMin = &min
			return in
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, organizer, tc.input, "127.0.0.1")
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateStoresActivity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, organizer, sportsInput(4), "127.0.0.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if a.CreatorEmail != organizer.Email {
		t.Fatalf("creator snapshot missing: %+v", a)
	}

	available, err := svc.AvailableSpots(ctx, a.ID)
	if err != nil {
		t.Fatalf("available spots: %v", err)
	}
	if available != 4 {
		t.Fatalf("expected 4 spots, got %d", available)
	}
}

func TestRequestToJoinGuards(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, organizer, sportsInput(2), "ip")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.RequestToJoin(ctx, a.ID, organizer, "ip"); !errors.Is(err, ErrSelfJoin) {
		t.Fatalf("expected ErrSelfJoin, got %v", err)
	}
	if _, err := svc.RequestToJoin(ctx, 9999, joiner, "ip"); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}

	req, err := svc.RequestToJoin(ctx, a.ID, joiner, "ip")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.UserRating != 4.2 {
		t.Fatalf("expected rating snapshot 4.2, got %f", req.UserRating)
	}

	if _, err := svc.RequestToJoin(ctx, a.ID, joiner, "ip"); !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected ErrAlreadyRequested, got %v", err)
	}

	if _, err := svc.Approve(ctx, a.ID, req.ID, organizer, "ip"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.RequestToJoin(ctx, a.ID, joiner, "ip"); !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("expected ErrAlreadyParticipant, got %v", err)
	}
}

func TestSingleSpotFlow(t *testing.T) {
	svc, sink, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, organizer, sportsInput(1), "ip")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.RequestToJoin(ctx, a.ID, joiner, "ip")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	second, err := svc.RequestToJoin(ctx, a.ID, third, "ip")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if _, err := svc.Approve(ctx, a.ID, first.ID, organizer, "ip"); err != nil {
		t.Fatalf("approve first: %v", err)
	}

	// The spot is gone: approving the second pending request must fail
	// inside the transaction even though it was created while space existed.
	if _, err := svc.Approve(ctx, a.ID, second.ID, organizer, "ip"); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	available, err := svc.AvailableSpots(ctx, a.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if available != 0 {
		t.Fatalf("expected 0 spots, got %d", available)
	}

	// New users are told the activity is full before a row is created.
	if _, err := svc.RequestToJoin(ctx, a.ID, Actor{ID: 4, Email: "dani@example.com", Name: "Dani"}, "ip"); !errors.Is(err, ErrNoSpots) {
		t.Fatalf("expected ErrNoSpots, got %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected one approval event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.Type != EventRequestApproved || event.ParticipantEmail != joiner.Email {
		t.Fatalf("unexpected event: %+v", event)
	}

	// Withdrawing frees the spot again.
	if err := svc.Withdraw(ctx, a.ID, joiner, "ip"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	available, _ = svc.AvailableSpots(ctx, a.ID)
	if available != 1 {
		t.Fatalf("expected freed spot, got %d", available)
	}
}

func TestRejectKeepsRow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, organizer, sportsInput(2), "ip")
	req, _ := svc.RequestToJoin(ctx, a.ID, joiner, "ip")

	if _, err := svc.Reject(ctx, a.ID, req.ID, joiner, "ip"); !errors.Is(err, ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer, got %v", err)
	}

	rejected, err := svc.Reject(ctx, a.ID, req.ID, organizer, "ip")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.RespondedAt == nil {
		t.Fatalf("unexpected state: %+v", rejected)
	}

	status, err := svc.RequestStatusFor(ctx, a.ID, joiner.Email)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusRejected {
		t.Fatalf("expected rejected, got %q", status)
	}

	if _, err := svc.Approve(ctx, a.ID, req.ID, organizer, "ip"); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending, got %v", err)
	}
}

func TestCompletedActivityRejectsJoins(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, organizer, sportsInput(3), "ip")

	if _, err := svc.Complete(ctx, a.ID, joiner, "ip"); !errors.Is(err, ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer, got %v", err)
	}
	if _, err := svc.Complete(ctx, a.ID, organizer, "ip"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.RequestToJoin(ctx, a.ID, joiner, "ip"); !errors.Is(err, ErrActivityCompleted) {
		t.Fatalf("expected ErrActivityCompleted, got %v", err)
	}
}

func TestMarkAttendance(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, organizer, sportsInput(2), "ip")
	req, _ := svc.RequestToJoin(ctx, a.ID, joiner, "ip")
	if _, err := svc.Approve(ctx, a.ID, req.ID, organizer, "ip"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	input := MarkAttendanceInput{UserEmail: joiner.Email, Attended: true, OnTime: false}
	if _, err := svc.MarkAttendance(ctx, a.ID, joiner, input, "ip"); !errors.Is(err, ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer, got %v", err)
	}
	if _, err := svc.MarkAttendance(ctx, a.ID, organizer, MarkAttendanceInput{UserEmail: third.Email, Attended: true}, "ip"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	rec, err := svc.MarkAttendance(ctx, a.ID, organizer, input, "ip")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !rec.Attended || rec.OnTime {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Second call updates the same row instead of inserting a duplicate.
	input.OnTime = true
	rec2, err := svc.MarkAttendance(ctx, a.ID, organizer, input, "ip")
	if err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	if !rec2.OnTime {
		t.Fatalf("expected on_time updated: %+v", rec2)
	}

	recs, err := svc.Attendance(ctx, a.ID, organizer)
	if err != nil {
		t.Fatalf("attendance: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
}

func TestJoinNotifiesOrganizer(t *testing.T) {
	svc, _, notifRepo := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, organizer, sportsInput(2), "ip")
	if _, err := svc.RequestToJoin(ctx, a.ID, joiner, "ip"); err != nil {
		t.Fatalf("request: %v", err)
	}

	count, err := notifRepo.CountUnread(ctx, organizer.Email)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one notification for organizer, got %d", count)
	}
}

func TestMineAndPendingQueries(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, organizer, sportsInput(2), "ip")
	b, _ := svc.Create(ctx, organizer, sportsInput(3), "ip")
	req, _ := svc.RequestToJoin(ctx, a.ID, joiner, "ip")
	if _, err := svc.RequestToJoin(ctx, b.ID, joiner, "ip"); err != nil {
		t.Fatalf("request b: %v", err)
	}
	if _, err := svc.Approve(ctx, a.ID, req.ID, organizer, "ip"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	created, err := svc.CreatedBy(ctx, organizer.ID)
	if err != nil {
		t.Fatalf("created by: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 created, got %d", len(created))
	}

	joined, err := svc.JoinedBy(ctx, joiner.Email)
	if err != nil {
		t.Fatalf("joined by: %v", err)
	}
	if len(joined) != 1 || joined[0].ID != a.ID {
		t.Fatalf("unexpected joined list: %+v", joined)
	}

	pending, err := svc.PendingForMyActivities(ctx, organizer.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ActivityID != b.ID {
		t.Fatalf("unexpected pending list: %+v", pending)
	}

	mine, err := svc.MyRequests(ctx, joiner.Email)
	if err != nil {
		t.Fatalf("my requests: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(mine))
	}
}

func TestListNearestOrdersByDistance(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	far := sportsInput(2)
	far.Title = "Tenis en La Plata"
	far.Lat, far.Lng = -34.9215, -57.9545
	near := sportsInput(2)
	near.Title = "Tenis en Palermo"
	near.Lat, near.Lng = -34.5889, -58.4306

	if _, err := svc.Create(ctx, organizer, far, "ip"); err != nil {
		t.Fatalf("create far: %v", err)
	}
	if _, err := svc.Create(ctx, organizer, near, "ip"); err != nil {
		t.Fatalf("create near: %v", err)
	}

	lat, lng := -34.6037, -58.3816 // Obelisco
	list, err := svc.List(ctx, ListFilter{Lat: &lat, Lng: &lng, Nearest: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(list))
	}
	if list[0].Title != "Tenis en Palermo" {
		t.Fatalf("expected nearest first, got %q", list[0].Title)
	}
	if list[0].Distance == nil || list[0].DistanceLabel == "" {
		t.Fatalf("expected distance annotation: %+v", list[0])
	}
	if *list[0].Distance >= *list[1].Distance {
		t.Fatalf("distances not ascending: %f %f", *list[0].Distance, *list[1].Distance)
	}
}
