package response_models

type MembershipResponse struct {
	ID               string  `json:"id"`
	AccountID        string  `json:"user_id"`
	MembershipType   string  `json:"membership_type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	AmountMinor      int64   `json:"amount_minor"`
	IsActive         bool    `json:"is_active"`
	PaymentReference *string `json:"payment_id"`
	CreatedAt        string  `json:"created_at"`
}

type MyMembershipResponse struct {
	HasMembership bool                `json:"has_membership"`
	Membership    *MembershipResponse `json:"membership,omitempty"`
}

type MembershipTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type MembershipStatsResponse struct {
	ByType              []MembershipTypeCount `json:"by_type"`
	ActiveMemberships   int64                 `json:"active_memberships"`
	NewMemberships      int64                 `json:"new_memberships"`
	ExpiringMemberships int64                 `json:"expiring_memberships"`
	TotalRevenueMinor   int64                 `json:"total_revenue_minor"`
}
