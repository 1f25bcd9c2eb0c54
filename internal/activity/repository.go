package activity

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateActivity(ctx context.Context, a *Activity) error
	GetActivityByID(ctx context.Context, id uint) (*Activity, error)
	// GetActivityForUpdate row-locks the activity; only valid inside WithTx.
	GetActivityForUpdate(ctx context.Context, id uint) (*Activity, error)
	UpdateActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, filter ListFilter) ([]Activity, error)
	ActivitiesByCreator(ctx context.Context, creatorID uint) ([]Activity, error)
	ActivitiesJoinedBy(ctx context.Context, email string) ([]Activity, error)

	CreateRequest(ctx context.Context, r *JoinRequest) error
	GetRequestByID(ctx context.Context, id uint) (*JoinRequest, error)
	RequestByActivityAndEmail(ctx context.Context, activityID uint, email string) (*JoinRequest, error)
	UpdateRequest(ctx context.Context, r *JoinRequest) error
	DeleteRequest(ctx context.Context, id uint) error
	CountApproved(ctx context.Context, activityID uint) (int64, error)
	ApprovedRequests(ctx context.Context, activityID uint) ([]JoinRequest, error)
	PendingRequests(ctx context.Context, activityID uint) ([]JoinRequest, error)
	RequestsByEmail(ctx context.Context, email string) ([]JoinRequest, error)
	PendingForCreator(ctx context.Context, creatorID uint) ([]JoinRequest, error)

	UpsertAttendance(ctx context.Context, rec *AttendanceRecord) error
	GetAttendance(ctx context.Context, activityID uint, email string) (*AttendanceRecord, error)
	AttendanceByActivity(ctx context.Context, activityID uint) ([]AttendanceRecord, error)

	// WithTx runs fn against a transactional copy of the repository.
	WithTx(fn func(Repository) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateActivity(ctx context.Context, a *Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) GetActivityByID(ctx context.Context, id uint) (*Activity, error) {
	var a Activity
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) GetActivityForUpdate(ctx context.Context, id uint) (*Activity, error) {
	var a Activity
	query := r.db.WithContext(ctx)
	// sqlite has no row locks; its transactions already serialize writes.
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) UpdateActivity(ctx context.Context, a *Activity) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) ListActivities(ctx context.Context, filter ListFilter) ([]Activity, error) {
	var activities []Activity
	query := r.db.WithContext(ctx).Model(&Activity{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Completed != nil {
		query = query.Where("is_completed = ?", *filter.Completed)
	}
	if filter.Search != "" {
		ilike := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR location ILIKE ? OR notes ILIKE ?", ilike, ilike, ilike)
	}

	err := query.Order("created_at DESC").Find(&activities).Error
	return activities, err
}

func (r *repository) ActivitiesByCreator(ctx context.Context, creatorID uint) ([]Activity, error) {
	var activities []Activity
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

func (r *repository) ActivitiesJoinedBy(ctx context.Context, email string) ([]Activity, error) {
	var activities []Activity
	err := r.db.WithContext(ctx).
		Joins("JOIN join_requests jr ON jr.activity_id = activities.id").
		Where("jr.user_email = ? AND jr.status = ?", email, StatusApproved).
		Order("activities.created_at DESC").
		Find(&activities).Error
	return activities, err
}

func (r *repository) CreateRequest(ctx context.Context, req *JoinRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) GetRequestByID(ctx context.Context, id uint) (*JoinRequest, error) {
	var req JoinRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) RequestByActivityAndEmail(ctx context.Context, activityID uint, email string) (*JoinRequest, error) {
	var req JoinRequest
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_email = ?", activityID, email).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) UpdateRequest(ctx context.Context, req *JoinRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) DeleteRequest(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&JoinRequest{}, id).Error
}

func (r *repository) CountApproved(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&JoinRequest{}).
		Where("activity_id = ? AND status = ?", activityID, StatusApproved).
		Count(&count).Error
	return count, err
}

func (r *repository) ApprovedRequests(ctx context.Context, activityID uint) ([]JoinRequest, error) {
	return r.requestsByStatus(ctx, activityID, StatusApproved)
}

func (r *repository) PendingRequests(ctx context.Context, activityID uint) ([]JoinRequest, error) {
	return r.requestsByStatus(ctx, activityID, StatusPending)
}

func (r *repository) requestsByStatus(ctx context.Context, activityID uint, status string) ([]JoinRequest, error) {
	var requests []JoinRequest
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND status = ?", activityID, status).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) RequestsByEmail(ctx context.Context, email string) ([]JoinRequest, error) {
	var requests []JoinRequest
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) PendingForCreator(ctx context.Context, creatorID uint) ([]JoinRequest, error) {
	var requests []JoinRequest
	err := r.db.WithContext(ctx).
		Joins("JOIN activities a ON a.id = join_requests.activity_id").
		Where("a.creator_id = ? AND join_requests.status = ?", creatorID, StatusPending).
		Order("join_requests.created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) UpsertAttendance(ctx context.Context, rec *AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "user_email"}},
			DoUpdates: clause.AssignmentColumns([]string{"attended", "on_time", "user_name", "updated_at"}),
		}).
		Create(rec).Error
}

func (r *repository) GetAttendance(ctx context.Context, activityID uint, email string) (*AttendanceRecord, error) {
	var rec AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_email = ?", activityID, email).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) AttendanceByActivity(ctx context.Context, activityID uint) ([]AttendanceRecord, error) {
	var recs []AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("user_email ASC").
		Find(&recs).Error
	return recs, err
}

func (r *repository) WithTx(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}
