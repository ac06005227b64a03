package domain

// WorkingHours is a local time-of-day window in HH:MM form.
type WorkingHours struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type Settings struct {
	Timezone           string       `json:"timezone"`
	WorkingHours       WorkingHours `json:"workingHours"`
	DefaultSlotMinutes int          `json:"defaultSlotMinutes"`
	MaxHoursPerDay     int          `json:"maxHoursPerDay"`
	DeepWorkInMorning  bool         `json:"deepWorkInMorning"`
}

// DefaultSettings returns the defaults used by the local client.
func DefaultSettings() Settings {
	return Settings{
		Timezone:           "America/Los_Angeles",
		WorkingHours:       WorkingHours{Start: "08:00", End: "18:00"},
		DefaultSlotMinutes: 60,
		MaxHoursPerDay:     6,
		DeepWorkInMorning:  true,
	}
}

// BackendDefaultSettings returns the defaults the backend process seeds.
func BackendDefaultSettings() Settings {
	return Settings{
		Timezone:           "America/Los_Angeles",
		WorkingHours:       WorkingHours{Start: "08:00", End: "17:00"},
		DefaultSlotMinutes: 60,
		MaxHoursPerDay:     5,
		DeepWorkInMorning:  true,
	}
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	Timezone           *string
	WorkingHoursStart  *string
	WorkingHoursEnd    *string
	DefaultSlotMinutes *int
	MaxHoursPerDay     *int
	DeepWorkInMorning  *bool
}

// Apply merges the patch onto s.
func (p SettingsPatch) Apply(s *Settings) {
	s.Timezone = CoalesceStr(StrFromPtr(p.Timezone), s.Timezone)
	s.WorkingHours.Start = CoalesceStr(StrFromPtr(p.WorkingHoursStart), s.WorkingHours.Start)
	s.WorkingHours.End = CoalesceStr(StrFromPtr(p.WorkingHoursEnd), s.WorkingHours.End)
	s.DefaultSlotMinutes = IntFromPtrWithDefault(s.DefaultSlotMinutes, p.DefaultSlotMinutes)
	s.MaxHoursPerDay = IntFromPtrWithDefault(s.MaxHoursPerDay, p.MaxHoursPerDay)
	s.DeepWorkInMorning = BoolFromPtrWithDefault(s.DeepWorkInMorning, p.DeepWorkInMorning)
}

// MergeSettings fills every zero-valued field of s from base. The boolean
// preference cannot be distinguished from an explicit false and is taken
// from s as-is.
func MergeSettings(base, s Settings) Settings {
	out := s
	out.Timezone = CoalesceStr(s.Timezone, base.Timezone)
	out.WorkingHours.Start = CoalesceStr(s.WorkingHours.Start, base.WorkingHours.Start)
	out.WorkingHours.End = CoalesceStr(s.WorkingHours.End, base.WorkingHours.End)
	if out.DefaultSlotMinutes == 0 {
		out.DefaultSlotMinutes = base.DefaultSlotMinutes
	}
	if out.MaxHoursPerDay == 0 {
		out.MaxHoursPerDay = base.MaxHoursPerDay
	}
	return out
}
