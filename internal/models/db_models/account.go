package db_models

type Account struct {
	BaseModel
	Email           string `gorm:"uniqueIndex;not null"`
	PasswordHash    string `gorm:"not null"`
	FirstName       string `gorm:"not null"`
	LastName        string `gorm:"not null"`
	GraduationYear  *int   `gorm:"index"`
	Major           string
	ProfileImageURL string
	Bio             string `gorm:"type:text"`
	JobTitle        string
	Company         string
	Location        string
	IsAdmin         bool `gorm:"not null"`

	Memberships []Membership `gorm:"constraint:OnDelete:CASCADE"`
}
