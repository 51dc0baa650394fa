package helpers

import "github.com/joshua-takyi/businessly/internal/models"

// EnhancedClaims is the verified token plus the caller's profile, when one
// has been registered.
type EnhancedClaims struct {
	*CustomClaims
	UserID  string       `json:"id"`
	Email   string       `json:"email,omitempty"`
	Profile *models.User `json:"profile,omitempty"`
}

func (ec *EnhancedClaims) HasProfile() bool {
	return ec.Profile != nil
}

func (ec *EnhancedClaims) IsStandard() bool {
	return ec.Profile != nil && ec.Profile.IsStandard()
}

func (ec *EnhancedClaims) IsBusiness() bool {
	return ec.Profile != nil && ec.Profile.IsBusiness()
}

func (ec *EnhancedClaims) AccountType() models.AccountType {
	if ec.Profile == nil {
		return ""
	}
	return ec.Profile.Type
}
