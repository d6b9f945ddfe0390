package types

// FeedbackAdjustment is the structured form of free-text plan feedback. It is
// transient: consumed by the plan adjuster and never persisted verbatim.
// Every list is always non-nil so callers can range without guards.
type FeedbackAdjustment struct {
	Substitutions        []Substitution `json:"substitutions"`
	VolumeAdjustments    []string       `json:"volumeAdjustments"`
	IntensityAdjustments []string       `json:"intensityAdjustments"`
	ScheduleChanges      []string       `json:"scheduleChanges"`
	RestPeriodChanges    []string       `json:"restPeriodChanges"`
	EquipmentLimitations []string       `json:"equipmentLimitations"`
	PainConcerns         []PainConcern  `json:"painConcerns"`
	GeneralFeedback      string         `json:"generalFeedback"`
}

type Substitution struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type PainConcern struct {
	Area           string `json:"area"`
	Exercise       string `json:"exercise"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

// Normalize replaces nil lists with empty ones. A missing list means "no
// changes of that kind", never "unknown".
func (f *FeedbackAdjustment) Normalize() {
	if f.Substitutions == nil {
		f.Substitutions = []Substitution{}
	}
	if f.VolumeAdjustments == nil {
		f.VolumeAdjustments = []string{}
	}
	if f.IntensityAdjustments == nil {
		f.IntensityAdjustments = []string{}
	}
	if f.ScheduleChanges == nil {
		f.ScheduleChanges = []string{}
	}
	if f.RestPeriodChanges == nil {
		f.RestPeriodChanges = []string{}
	}
	if f.EquipmentLimitations == nil {
		f.EquipmentLimitations = []string{}
	}
	if f.PainConcerns == nil {
		f.PainConcerns = []PainConcern{}
	}
}
