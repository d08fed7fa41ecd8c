package facility

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // timezone validation must not depend on the host zoneinfo

	"carehub/internal/action"
	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/requestcontext"
)

// PermissionManageSettings gates changes to facility configuration.
const PermissionManageSettings = "MANAGE_FACILITY_SETTINGS"

const ActionUpdateSettings = "profile.facility.update_settings"

const maxDisplayNameLength = 120

type Actions struct {
	store Store
}

func NewActions(store Store) *Actions {
	return &Actions{store: store}
}

func (a *Actions) UpdateSettings() action.Action[UpdateSettingsInput, *FacilitySettings] {
	return action.Define(ActionUpdateSettings, PermissionManageSettings, a.updateSettings).
		Describe("Replace the settings of the caller's facility")
}

func (a *Actions) Descriptors() []action.Descriptor {
	return []action.Descriptor{a.UpdateSettings().Descriptor()}
}

func (a *Actions) updateSettings(ctx context.Context, in UpdateSettingsInput, actx *action.Context) (*FacilitySettings, error) {
	if actx.FacilityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not bound to a facility")
	}
	target := actx.FacilityID
	if in.FacilityID != "" && id.FacilityID(in.FacilityID) != target {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot update another facility's settings")
	}
	settings, err := normalize(in.Settings)
	if err != nil {
		return nil, err
	}

	record := &FacilitySettings{
		FacilityID: target,
		Settings:   settings,
		UpdatedBy:  actx.UserID,
		UpdatedAt:  requestcontext.Now(ctx),
	}
	if err := a.store.Save(ctx, *record); err != nil {
		return nil, fmt.Errorf("save facility settings: %w", err)
	}
	return record, nil
}

// normalize validates s and returns it with whitespace trimmed.
func normalize(s Settings) (Settings, error) {
	s.Timezone = strings.TrimSpace(s.Timezone)
	s.DisplayName = strings.TrimSpace(s.DisplayName)
	if s.Timezone == "" {
		return Settings{}, dErrors.New(dErrors.CodeValidation, "timezone is required")
	}
	// LoadLocation treats "" and "Local" specially; neither is a facility zone.
	if s.Timezone == "Local" {
		return Settings{}, dErrors.New(dErrors.CodeValidation, "timezone must be an IANA zone name")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return Settings{}, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("unknown timezone %q", s.Timezone))
	}
	if s.ShiftLengthHours < MinShiftHours || s.ShiftLengthHours > MaxShiftHours {
		return Settings{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("shift length must be between %d and %d hours", MinShiftHours, MaxShiftHours))
	}
	if s.WeekStartsOn < time.Sunday || s.WeekStartsOn > time.Saturday {
		return Settings{}, dErrors.New(dErrors.CodeValidation, "weekStartsOn must be 0 (Sunday) through 6 (Saturday)")
	}
	if len(s.DisplayName) > maxDisplayNameLength {
		return Settings{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("display name exceeds %d characters", maxDisplayNameLength))
	}
	return s, nil
}
