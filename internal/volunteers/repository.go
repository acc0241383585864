package volunteers

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateVolunteer(ctx context.Context, v *Volunteer) error
	UpdateVolunteer(ctx context.Context, v *Volunteer) error
	GetVolunteerByIDNumber(ctx context.Context, idNumber string) (*Volunteer, error)
	ListVolunteers(ctx context.Context, confirmed *bool) ([]Volunteer, error)
	// ClaimApproval marks a pending volunteer confirmed. Only one caller can
	// claim a volunteer; the others get ErrAlreadyConfirmed.
	ClaimApproval(ctx context.Context, idNumber string) error
	ReleaseApproval(ctx context.Context, idNumber string) error

	ListAreas(ctx context.Context) ([]VolunteerArea, error)
	GetArea(ctx context.Context, code string) (*VolunteerArea, error)
	SaveArea(ctx context.Context, area *VolunteerArea) error
	DeleteArea(ctx context.Context, code string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates or updates the registry tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Volunteer{}, &VolunteerArea{})
}

func (r *gormRepository) CreateVolunteer(ctx context.Context, v *Volunteer) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *gormRepository) UpdateVolunteer(ctx context.Context, v *Volunteer) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *gormRepository) GetVolunteerByIDNumber(ctx context.Context, idNumber string) (*Volunteer, error) {
	var v Volunteer
	err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVolunteerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *gormRepository) ListVolunteers(ctx context.Context, confirmed *bool) ([]Volunteer, error) {
	var list []Volunteer
	q := r.db.WithContext(ctx).Order("created_at ASC, id_number ASC")
	if confirmed != nil {
		q = q.Where("confirmed = ?", *confirmed)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *gormRepository) ClaimApproval(ctx context.Context, idNumber string) error {
	res := r.db.WithContext(ctx).Model(&Volunteer{}).
		Where("id_number = ? AND confirmed = ?", idNumber, false).
		Update("confirmed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := r.GetVolunteerByIDNumber(ctx, idNumber); err != nil {
		return err
	}
	return ErrAlreadyConfirmed
}

func (r *gormRepository) ReleaseApproval(ctx context.Context, idNumber string) error {
	return r.db.WithContext(ctx).Model(&Volunteer{}).
		Where("id_number = ?", idNumber).
		Update("confirmed", false).Error
}

func (r *gormRepository) ListAreas(ctx context.Context) ([]VolunteerArea, error) {
	var areas []VolunteerArea
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *gormRepository) GetArea(ctx context.Context, code string) (*VolunteerArea, error) {
	var area VolunteerArea
	err := r.db.WithContext(ctx).First(&area, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *gormRepository) SaveArea(ctx context.Context, area *VolunteerArea) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "with_kids", "whatsapp_link", "updated_at"}),
	}).Create(area).Error
}

func (r *gormRepository) DeleteArea(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Delete(&VolunteerArea{}, "code = ?", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAreaNotFound
	}
	return nil
}
