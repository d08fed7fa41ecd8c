// Package facility owns per-facility configuration and the action that
// updates it.
package facility

import (
	"time"

	id "carehub/pkg/domain"
)

// Settings bounds.
const (
	MinShiftHours = 4
	MaxShiftHours = 24
)

// Settings is the mutable configuration of one facility.
type Settings struct {
	Timezone         string       `json:"timezone"`
	ShiftLengthHours int          `json:"shiftLengthHours"`
	WeekStartsOn     time.Weekday `json:"weekStartsOn"`
	DisplayName      string       `json:"displayName,omitempty"`
}

// FacilitySettings is the stored record.
type FacilitySettings struct {
	FacilityID id.FacilityID `json:"facilityId"`
	Settings
	UpdatedBy id.UserID `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResultID identifies the facility in the SUCCESS audit record.
func (f *FacilitySettings) ResultID() string {
	return string(f.FacilityID)
}

// UpdateSettingsInput is the payload of profile.facility.update_settings.
// FacilityID defaults to the caller's own facility.
type UpdateSettingsInput struct {
	FacilityID string   `json:"facilityId,omitempty"`
	Settings   Settings `json:"settings"`
}
