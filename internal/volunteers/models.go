package volunteers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gender codes as stored on the volunteer record.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Volunteer is a registered volunteer. IDNumber is the national ID and is
// unique across the registry.
type Volunteer struct {
	ID            uuid.UUID                   `json:"id" gorm:"primaryKey;type:uuid"`
	IDNumber      string                      `json:"id_number" gorm:"not null;uniqueIndex"`
	FirstName     string                      `json:"first_name" gorm:"not null"`
	LastName      string                      `json:"last_name" gorm:"not null"`
	Email         string                      `json:"email"`
	Phone         string                      `json:"phone"`
	Gender        string                      `json:"gender"`
	StartDate     time.Time                   `json:"start_date"`
	Areas         datatypes.JSONSlice[string] `json:"areas"`
	Confirmed     bool                        `json:"confirmed" gorm:"not null;default:false;index"`
	FormURL       string                      `json:"form_url"`
	PoliceFormURL string                      `json:"police_form_url"`
	CreatedAt     time.Time                   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (v *Volunteer) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// FirstArea returns the code of the area the volunteer registered for first.
func (v *Volunteer) FirstArea() string {
	if len(v.Areas) == 0 {
		return ""
	}
	return v.Areas[0]
}

// VolunteerArea is a place volunteers can sign up for.
type VolunteerArea struct {
	Code         string    `json:"code" gorm:"primaryKey"`
	Name         string    `json:"name"`
	WithKids     bool      `json:"with_kids"`
	WhatsAppLink string    `json:"whatsapp_link" gorm:"column:whatsapp_link"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RegisterRequest is the public registration form.
type RegisterRequest struct {
	IDNumber  string `json:"id_number" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Gender    string `json:"gender"`
	Area      string `json:"area" binding:"required"`
}

// AreaRequest creates or replaces an area.
type AreaRequest struct {
	Name         string `json:"name"`
	WithKids     bool   `json:"with_kids"`
	WhatsAppLink string `json:"whatsapp_link" binding:"required"`
}

// AreaCount is the number of confirmed volunteers in an area.
type AreaCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Statistics summarize confirmed volunteers.
type Statistics struct {
	TotalConfirmed int         `json:"total_confirmed"`
	Pending        int         `json:"pending"`
	ByArea         []AreaCount `json:"by_area"`
}
