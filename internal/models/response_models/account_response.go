package response_models

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AccountResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	GraduationYear  *int   `json:"graduation_year,omitempty"`
	Major           string `json:"major,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Bio             string `json:"bio,omitempty"`
	JobTitle        string `json:"job_title,omitempty"`
	Company         string `json:"company,omitempty"`
	Location        string `json:"location,omitempty"`
	IsAdmin         bool   `json:"is_admin"`
	CreatedAt       string `json:"created_at"`
}

type PagedResponse[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}
