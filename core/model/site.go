package model

import "fmt"

// SiteConstraints bounds the aggregate power the site's electrical supply
// may deliver to all chargers simultaneously.
type SiteConstraints struct {
	SiteMaxKW float64 `json:"site_max_kw"`
}

// Validate checks that the site constraints are sound.
func (s SiteConstraints) Validate() error {
	if s.SiteMaxKW <= 0 {
		return fmt.Errorf("site max power must be positive")
	}
	return nil
}
