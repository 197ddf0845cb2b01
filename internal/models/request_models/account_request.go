package request_models

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password" binding:"omitempty,min=8,max=72"`
	FirstName       *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	GraduationYear  *int    `json:"graduation_year" binding:"omitempty,min=1900,max=2100"`
	Major           *string `json:"major" binding:"omitempty,max=200"`
	ProfileImageURL *string `json:"profile_image_url" binding:"omitempty,max=500"`
	Bio             *string `json:"bio" binding:"omitempty,max=2000"`
	JobTitle        *string `json:"job_title" binding:"omitempty,max=200"`
	Company         *string `json:"company" binding:"omitempty,max=200"`
	Location        *string `json:"location" binding:"omitempty,max=200"`
}

type DirectorySearchQuery struct {
	Name           string `form:"name"`
	GraduationYear *int   `form:"graduation_year"`
	Major          string `form:"major"`
	Company        string `form:"company"`
	Location       string `form:"location"`
}
