package activity

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/findone/findone-backend/internal/auditlog"
	"github.com/findone/findone-backend/internal/geo"
	"github.com/findone/findone-backend/internal/notification"
)

var (
	ErrActivityNotFound   = errors.New("activity not found")
	ErrRequestNotFound    = errors.New("join request not found")
	ErrNotOrganizer       = errors.New("only the organizer can perform this action")
	ErrNotRequester       = errors.New("only the requester can withdraw a request")
	ErrAlreadyRequested   = errors.New("a request for this activity already exists")
	ErrAlreadyParticipant = errors.New("user already participates in this activity")
	ErrNoSpots            = errors.New("no available spots")
	ErrCapacityExceeded   = errors.New("activity is already full")
	ErrActivityCompleted  = errors.New("activity is completed")
	ErrRequestNotPending  = errors.New("request is not pending")
	ErrSelfJoin           = errors.New("organizer cannot request to join their own activity")
	ErrNotParticipant     = errors.New("user is not a participant of this activity")
)

// ValidationError marks input errors so handlers can map them to 400.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return ValidationError{Msg: msg} }

// Actor identifies the authenticated user driving an operation.
type Actor struct {
	ID     uint
	Email  string
	Name   string
	Avatar string
}

// RatingSource supplies the requester's average rating snapshot.
type RatingSource interface {
	AverageFor(ctx context.Context, email string) (float64, error)
}

type Service struct {
	Repo    Repository
	Audit   auditlog.Service
	Notif   notification.Service
	Sink    EventSink
	Ratings RatingSource
}

func NewService(repo Repository, audit auditlog.Service, notif notification.Service, sink EventSink, ratings RatingSource) *Service {
	return &Service{Repo: repo, Audit: audit, Notif: notif, Sink: sink, Ratings: ratings}
}

// Create validates and persists a new activity.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateActivityInput, ip string) (*Activity, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	a := &Activity{
		CreatorID:     actor.ID,
		CreatorEmail:  actor.Email,
		CreatorName:   actor.Name,
		CreatorAvatar: actor.Avatar,
		Title:         input.Title,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		TimeLabel:     input.TimeLabel,
		ScheduledAt:   input.ScheduledAt,
		Location:      input.Location,
		Lat:           input.Lat,
		Lng:           input.Lng,
		Spots:         input.Spots,
		SkillLevel:    input.SkillLevel,
		AgeMin:        input.AgeMin,
		AgeMax:        input.AgeMax,
		Notes:         input.Notes,
	}

	if err := s.Repo.CreateActivity(ctx, a); err != nil {
		s.audit(ctx, &actor.ID, nil, auditlog.ActionActivityCreate, map[string]interface{}{"title": input.Title}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, &actor.ID, &a.ID, auditlog.ActionActivityCreate, map[string]interface{}{"title": a.Title, "category": a.Category}, ip, "success")
	return a, nil
}

func validateInput(input CreateActivityInput) error {
	if !ValidCategory(input.Category) {
		return invalid("unknown category")
	}
	if !ValidSubcategory(input.Category, input.Subcategory) {
		return invalid("subcategory does not belong to category")
	}
	if input.Spots < 1 {
		return invalid("spots must be at least 1")
	}
	if input.Category == CategorySports {
		if input.SkillLevel == nil {
			return invalid("sports activities require a skill level")
		}
		if *input.SkillLevel < 1 || *input.SkillLevel > 5 {
			return invalid("skill level must be between 1 and 5")
		}
	} else if input.SkillLevel != nil {
		return invalid("skill level only applies to sports activities")
	}
	if (input.AgeMin == nil) != (input.AgeMax == nil) {
		return invalid("age range requires both bounds")
	}
	if input.AgeMin != nil {
		if *input.AgeMin < AgeRangeMin || *input.AgeMax > AgeRangeMax {
			return invalid("age range must be within 18-99")
		}
		if *input.AgeMin > *input.AgeMax {
			return invalid("age minimum cannot exceed maximum")
		}
	}
	return nil
}

// List returns activities matching the filter. When caller coordinates are
// present each item is annotated with its Haversine distance, and Nearest
// switches the order from newest-first to closest-first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ActivityResponse, error) {
	activities, err := s.Repo.ListActivities(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		resp, err := s.buildResponse(ctx, a)
		if err != nil {
			return nil, err
		}
		if filter.Lat != nil && filter.Lng != nil {
			d := geo.Distance(*filter.Lat, *filter.Lng, a.Lat, a.Lng)
			resp.Distance = &d
			resp.DistanceLabel = geo.FormatDistance(d)
		}
		out = append(out, *resp)
	}

	if filter.Nearest && filter.Lat != nil && filter.Lng != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].Distance < *out[j].Distance
		})
	}

	return out, nil
}

// GetByID returns one activity with its participants and spot count.
func (s *Service) GetByID(ctx context.Context, id uint) (*ActivityResponse, error) {
	a, err := s.Repo.GetActivityByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return s.buildResponse(ctx, *a)
}

func (s *Service) buildResponse(ctx context.Context, a Activity) (*ActivityResponse, error) {
	participants, err := s.Repo.ApprovedRequests(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	available := a.Spots - len(participants)
	if available < 0 {
		available = 0
	}
	return &ActivityResponse{
		Activity:       a,
		Participants:   participants,
		AvailableSpots: available,
	}, nil
}

// AvailableSpots reports the remaining capacity of an activity.
func (s *Service) AvailableSpots(ctx context.Context, activityID uint) (int, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrActivityNotFound
		}
		return 0, err
	}
	approved, err := s.Repo.CountApproved(ctx, activityID)
	if err != nil {
		return 0, err
	}
	available := a.Spots - int(approved)
	if available < 0 {
		available = 0
	}
	return available, nil
}

// RequestToJoin appends a pending request for the actor.
func (s *Service) RequestToJoin(ctx context.Context, activityID uint, actor Actor, ip string) (*JoinRequest, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if a.IsCompleted {
		return nil, ErrActivityCompleted
	}
	if a.CreatorID == actor.ID {
		return nil, ErrSelfJoin
	}

	existing, err := s.Repo.RequestByActivityAndEmail(ctx, activityID, actor.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == StatusApproved {
			return nil, ErrAlreadyParticipant
		}
		return nil, ErrAlreadyRequested
	}

	available, err := s.AvailableSpots(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return nil, ErrNoSpots
	}

	var rating float64
	if s.Ratings != nil {
		rating, _ = s.Ratings.AverageFor(ctx, actor.Email)
	}

	req := &JoinRequest{
		ActivityID: activityID,
		UserID:     actor.ID,
		UserEmail:  actor.Email,
		UserName:   actor.Name,
		UserAvatar: actor.Avatar,
		UserRating: rating,
		Status:     StatusPending,
	}
	if err := s.Repo.CreateRequest(ctx, req); err != nil {
		s.audit(ctx, &actor.ID, &activityID, auditlog.ActionJoinRequest, nil, ip, "failure")
		return nil, err
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionJoinRequest, map[string]interface{}{"request_id": req.ID}, ip, "success")
	s.notify(ctx, a.CreatorEmail, "New join request",
		actor.Name+" wants to join \""+a.Title+"\"", "request")
	return req, nil
}

// Approve transitions a pending request to approved. The capacity check
// runs inside the transaction against a row-locked activity, so two
// concurrent approvals cannot oversubscribe the last spot.
func (s *Service) Approve(ctx context.Context, activityID, requestID uint, actor Actor, ip string) (*JoinRequest, error) {
	var approved *JoinRequest
	var event ActivityEvent

	err := s.Repo.WithTx(func(tx Repository) error {
		a, err := tx.GetActivityForUpdate(ctx, activityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return err
		}
		if a.CreatorID != actor.ID {
			return ErrNotOrganizer
		}
		if a.IsCompleted {
			return ErrActivityCompleted
		}

		req, err := tx.GetRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.ActivityID != activityID {
			return ErrRequestNotFound
		}
		if req.Status != StatusPending {
			return ErrRequestNotPending
		}

		count, err := tx.CountApproved(ctx, activityID)
		if err != nil {
			return err
		}
		if int(count) >= a.Spots {
			return ErrCapacityExceeded
		}

		now := time.Now()
		req.Status = StatusApproved
		req.RespondedAt = &now
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		approved = req
		event = ActivityEvent{
			Type:              EventRequestApproved,
			ActivityID:        a.ID,
			ActivityTitle:     a.Title,
			OrganizerEmail:    a.CreatorEmail,
			OrganizerName:     a.CreatorName,
			OrganizerAvatar:   a.CreatorAvatar,
			ParticipantEmail:  req.UserEmail,
			ParticipantName:   req.UserName,
			ParticipantAvatar: req.UserAvatar,
			OccurredAt:        now,
		}
		return nil
	})
	if err != nil {
		s.audit(ctx, &actor.ID, &activityID, auditlog.ActionRequestApprove, map[string]interface{}{"request_id": requestID, "error": err.Error()}, ip, "failure")
		return nil, err
	}

	// Event delivery is best-effort after commit; the consumer spawns the chat.
	if s.Sink != nil {
		logFailure("publish approval", s.Sink.Publish(ctx, event))
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionRequestApprove, map[string]interface{}{"request_id": requestID}, ip, "success")
	s.notify(ctx, approved.UserEmail, "Request approved",
		"You joined \""+event.ActivityTitle+"\". A chat with the organizer is now open.", "request")
	return approved, nil
}

// Reject transitions a pending request to rejected. The row is kept so the
// requester can see the outcome.
func (s *Service) Reject(ctx context.Context, activityID, requestID uint, actor Actor, ip string) (*JoinRequest, error) {
	a, req, err := s.loadOrganizerRequest(ctx, activityID, requestID, actor)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrRequestNotPending
	}

	now := time.Now()
	req.Status = StatusRejected
	req.RespondedAt = &now
	if err := s.Repo.UpdateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionRequestReject, map[string]interface{}{"request_id": requestID}, ip, "success")
	s.notify(ctx, req.UserEmail, "Request declined",
		"Your request to join \""+a.Title+"\" was declined.", "request")
	return req, nil
}

// Withdraw removes the actor's own request, freeing the spot when it was
// approved. It also covers leaving an activity after approval.
func (s *Service) Withdraw(ctx context.Context, activityID uint, actor Actor, ip string) error {
	req, err := s.Repo.RequestByActivityAndEmail(ctx, activityID, actor.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if req.UserEmail != actor.Email {
		return ErrNotRequester
	}

	if err := s.Repo.DeleteRequest(ctx, req.ID); err != nil {
		return err
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionRequestWithdraw, map[string]interface{}{"request_id": req.ID, "status_was": req.Status}, ip, "success")
	return nil
}

// Revoke lets the organizer remove a request (pending or approved).
func (s *Service) Revoke(ctx context.Context, activityID, requestID uint, actor Actor, ip string) error {
	a, req, err := s.loadOrganizerRequest(ctx, activityID, requestID, actor)
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteRequest(ctx, req.ID); err != nil {
		return err
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionRequestRevoke, map[string]interface{}{"request_id": requestID, "status_was": req.Status}, ip, "success")
	s.notify(ctx, req.UserEmail, "Removed from activity",
		"The organizer removed you from \""+a.Title+"\".", "request")
	return nil
}

// Complete marks the activity finished. Only the organizer decides when;
// there is no time-based trigger.
func (s *Service) Complete(ctx context.Context, activityID uint, actor Actor, ip string) (*Activity, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if a.CreatorID != actor.ID {
		return nil, ErrNotOrganizer
	}
	if a.IsCompleted {
		return a, nil
	}

	a.IsCompleted = true
	if err := s.Repo.UpdateActivity(ctx, a); err != nil {
		return nil, err
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionActivityComplete, nil, ip, "success")
	return a, nil
}

// MarkAttendanceInput records whether a participant showed up and on time.
type MarkAttendanceInput struct {
	UserEmail string `json:"user_email" binding:"required,email"`
	Attended  bool   `json:"attended"`
	OnTime    bool   `json:"on_time"`
}

// MarkAttendance upserts the attendance record for one participant.
func (s *Service) MarkAttendance(ctx context.Context, activityID uint, actor Actor, input MarkAttendanceInput, ip string) (*AttendanceRecord, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if a.CreatorID != actor.ID {
		return nil, ErrNotOrganizer
	}

	req, err := s.Repo.RequestByActivityAndEmail(ctx, activityID, input.UserEmail)
	if err != nil || req.Status != StatusApproved {
		return nil, ErrNotParticipant
	}

	rec := &AttendanceRecord{
		ActivityID: activityID,
		UserEmail:  input.UserEmail,
		UserName:   req.UserName,
		Attended:   input.Attended,
		OnTime:     input.OnTime,
	}
	if err := s.Repo.UpsertAttendance(ctx, rec); err != nil {
		return nil, err
	}

	stored, err := s.Repo.GetAttendance(ctx, activityID, input.UserEmail)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, &actor.ID, &activityID, auditlog.ActionAttendanceMark, map[string]interface{}{
		"user_email": input.UserEmail, "attended": input.Attended, "on_time": input.OnTime,
	}, ip, "success")
	return stored, nil
}

// RequestStatusFor reports the actor's request state for one activity.
func (s *Service) RequestStatusFor(ctx context.Context, activityID uint, email string) (string, error) {
	req, err := s.Repo.RequestByActivityAndEmail(ctx, activityID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return req.Status, nil
}

// MyRequests lists every request the user has made, newest first.
func (s *Service) MyRequests(ctx context.Context, email string) ([]JoinRequest, error) {
	return s.Repo.RequestsByEmail(ctx, email)
}

// PendingForMyActivities lists pending requests across the organizer's activities.
func (s *Service) PendingForMyActivities(ctx context.Context, creatorID uint) ([]JoinRequest, error) {
	return s.Repo.PendingForCreator(ctx, creatorID)
}

// PendingRequests lists the pending requests of one activity (organizer only).
func (s *Service) PendingRequests(ctx context.Context, activityID uint, actor Actor) ([]JoinRequest, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if a.CreatorID != actor.ID {
		return nil, ErrNotOrganizer
	}
	return s.Repo.PendingRequests(ctx, activityID)
}

// CreatedBy lists activities the user organizes.
func (s *Service) CreatedBy(ctx context.Context, creatorID uint) ([]ActivityResponse, error) {
	activities, err := s.Repo.ActivitiesByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, activities)
}

// JoinedBy lists activities the user participates in.
func (s *Service) JoinedBy(ctx context.Context, email string) ([]ActivityResponse, error) {
	activities, err := s.Repo.ActivitiesJoinedBy(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, activities)
}

// Attendance lists the attendance records of one activity (organizer only).
func (s *Service) Attendance(ctx context.Context, activityID uint, actor Actor) ([]AttendanceRecord, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if a.CreatorID != actor.ID {
		return nil, ErrNotOrganizer
	}
	return s.Repo.AttendanceByActivity(ctx, activityID)
}

func (s *Service) buildResponses(ctx context.Context, activities []Activity) ([]ActivityResponse, error) {
	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		resp, err := s.buildResponse(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *Service) loadOrganizerRequest(ctx context.Context, activityID, requestID uint, actor Actor) (*Activity, *JoinRequest, error) {
	a, err := s.Repo.GetActivityByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrActivityNotFound
		}
		return nil, nil, err
	}
	if a.CreatorID != actor.ID {
		return nil, nil, ErrNotOrganizer
	}

	req, err := s.Repo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, err
	}
	if req.ActivityID != activityID {
		return nil, nil, ErrRequestNotFound
	}
	return a, req, nil
}

func (s *Service) audit(ctx context.Context, userID, activityID *uint, action string, details map[string]interface{}, ip, status string) {
	if s.Audit == nil {
		return
	}
	logFailure("audit "+action, s.Audit.LogAction(ctx, userID, activityID, action, details, ip, status))
}

func (s *Service) notify(ctx context.Context, email, title, message, category string) {
	if s.Notif == nil {
		return
	}
	logFailure("notify "+email, s.Notif.CreateInApp(ctx, email, title, message, category))
}
