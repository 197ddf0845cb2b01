package services

import (
	"time"

	"alumni/internal/models/db_models"
	resp "alumni/internal/models/response_models"
	"alumni/pkg/utils"
)

func toAccountResponse(a *db_models.Account, loc *time.Location) resp.AccountResponse {
	return resp.AccountResponse{
		ID:              a.ID.String(),
		Email:           a.Email,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		GraduationYear:  a.GraduationYear,
		Major:           a.Major,
		ProfileImageURL: a.ProfileImageURL,
		Bio:             a.Bio,
		JobTitle:        a.JobTitle,
		Company:         a.Company,
		Location:        a.Location,
		IsAdmin:         a.IsAdmin,
		CreatedAt:       utils.FormatRFC3339(a.CreatedAt, loc),
	}
}

func toEventResponse(e *db_models.Event, loc *time.Location) resp.EventResponse {
	return resp.EventResponse{
		ID:            e.ID.String(),
		Title:         e.Title,
		Description:   e.Description,
		EventDate:     utils.FormatRFC3339(e.StartsAt, loc),
		Location:      e.Location,
		PriceMinor:    e.PriceMinor,
		Capacity:      e.Capacity,
		ImageURL:      e.ImageURL,
		IsMembersOnly: e.IsMembersOnly,
		CreatedAt:     utils.FormatRFC3339(e.CreatedAt, loc),
	}
}

func toRegistrationResponse(r *db_models.Registration, loc *time.Location) resp.RegistrationResponse {
	return resp.RegistrationResponse{
		ID:               r.ID.String(),
		AccountID:        r.AccountID.String(),
		EventID:          r.EventID.String(),
		PaymentStatus:    string(r.PaymentStatus),
		PaymentReference: r.PaymentReference,
		AmountMinor:      r.AmountMinor,
		Attended:         r.Attended,
		RegisteredAt:     utils.FormatRFC3339(r.RegisteredAt, loc),
	}
}

func toMembershipResponse(m *db_models.Membership, loc *time.Location) resp.MembershipResponse {
	return resp.MembershipResponse{
		ID:               m.ID.String(),
		AccountID:        m.AccountID.String(),
		MembershipType:   m.MembershipType,
		StartDate:        utils.FormatDate(m.StartDate),
		EndDate:          utils.FormatDate(m.EndDate),
		AmountMinor:      m.AmountMinor,
		IsActive:         m.IsActive,
		PaymentReference: m.PaymentReference,
		CreatedAt:        utils.FormatRFC3339(m.CreatedAt, loc),
	}
}

func pageOf[T any](items []T, page utils.Page, total int64) *resp.PagedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &resp.PagedResponse[T]{
		Items:    items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    total,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
