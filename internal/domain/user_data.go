package domain

// UserData holds identity attributes for the server channel. Every field
// is optional: nil means absent, while a non-nil pointer to "" is an
// explicit empty value that must not be replaced by a derived one.
type UserData struct {
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Gender          *string `json:"gender,omitempty"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	DateOfBirth     *string `json:"date_of_birth,omitempty"`
	City            *string `json:"city,omitempty"`
	State           *string `json:"state,omitempty"`
	Zip             *string `json:"zip,omitempty"`
	Country         *string `json:"country,omitempty"`
	ExternalID      *string `json:"external_id,omitempty"`
	ClientIPAddress *string `json:"client_ip_address,omitempty"`
	ClientUserAgent *string `json:"client_user_agent,omitempty"`
	Fbp             *string `json:"fbp,omitempty"`
	Fbc             *string `json:"fbc,omitempty"`
	SubscriptionID  *string `json:"subscription_id,omitempty"`
	FbLoginID       *string `json:"fb_login_id,omitempty"`
	LeadID          *string `json:"lead_id,omitempty"`
	Dobd            *string `json:"dobd,omitempty"`
	Dobm            *string `json:"dobm,omitempty"`
	Doby            *string `json:"doby,omitempty"`
	Madid           *string `json:"madid,omitempty"`
	AnonID          *string `json:"anon_id,omitempty"`
	AppUserID       *string `json:"app_user_id,omitempty"`
	CtwaClid        *string `json:"ctwa_clid,omitempty"`
	PageID          *string `json:"page_id,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
