package model

import "time"

// Partner is a referral partner.  Users registering with a matching
// partner_code get linked to the partner and qualify for the
// lifetime_free plan on verification approval.
type Partner struct {
	ID          uint64    // partners.partner_id
	PartnerName string    // partners.partner_name
	PartnerCode string    // partners.partner_code (unique)
	PartnerLink string    // partners.partner_link
	CreatedAt   time.Time // partners.created_at
	UpdatedAt   time.Time // partners.updated_at
}
