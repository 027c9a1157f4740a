package model

import (
	"encoding/json"

	"github.com/deppfellow/trialbroker/internal/query"
	"github.com/deppfellow/trialbroker/internal/validation"
)

// SponsorStudyLength describes the duration of a typical study, in days.
type SponsorStudyLength struct {
	ConfinementDays     *Int `json:"confinement_days" bson:"confinement_days" validate:"omitempty,gte=0"`
	OutpatientDays      *Int `json:"outpatient_days" bson:"outpatient_days" validate:"omitempty,gte=0"`
	FollowupCadenceDays *Int `json:"followup_cadence_days" bson:"followup_cadence_days" validate:"omitempty,gte=0"`
}

// SponsorAssessmentIntensity flags the heavier assessments a protocol asks for.
type SponsorAssessmentIntensity struct {
	PKSampling           bool `json:"pk_sampling" bson:"pk_sampling"`
	ExploratoryEndpoints bool `json:"exploratory_endpoints" bson:"exploratory_endpoints"`
}

// SponsorStartupTimelines measures how quickly a sponsor gets sites running.
type SponsorStartupTimelines struct {
	// CTAExecutionRate is the percentage of contracts executed within the target window.
	CTAExecutionRate          *Float `json:"cta_execution_rate" bson:"cta_execution_rate" validate:"omitempty,gte=0,lte=100"`
	FeasibilityTurnaroundDays *Int   `json:"feasibility_turnaround_days" bson:"feasibility_turnaround_days" validate:"omitempty,gte=0"`
}

// SponsorMonitoring describes the sponsor's monitoring load on a site.
type SponsorMonitoring struct {
	VisitFrequencyDays *Int   `json:"visit_frequency_days" bson:"visit_frequency_days" validate:"omitempty,gte=0"`
	CRAQueryRate       *Float `json:"cra_query_rate" bson:"cra_query_rate" validate:"omitempty,gte=0"`
	QueryClosureDays   *Int   `json:"query_closure_days" bson:"query_closure_days" validate:"omitempty,gte=0"`
}

// SponsorBudget holds the payments a site can expect.
type SponsorBudget struct {
	ScreenFailReimbursement *Float `json:"screen_fail_reimbursement" bson:"screen_fail_reimbursement" validate:"omitempty,gte=0"`
	PerPatientPayment       *Float `json:"per_patient_payment" bson:"per_patient_payment" validate:"omitempty,gte=0"`
	StartupFee              *Float `json:"startup_fee" bson:"startup_fee" validate:"omitempty,gte=0"`
}

// Sponsor is a pharma, device or SaMD organisation running trials.
type Sponsor struct {
	Meta `bson:",inline"`

	Name string `json:"name" bson:"name" validate:"required"`

	// ECRFEDCUsability is a 0-10 usability score of the sponsor's eCRF/EDC.
	ECRFEDCUsability *Float `json:"ecrf_edc_usability" bson:"ecrf_edc_usability" validate:"omitempty,gte=0,lte=10"`

	StudyLength         *SponsorStudyLength         `json:"study_length" bson:"study_length"`
	AssessmentIntensity *SponsorAssessmentIntensity `json:"assessment_intensity" bson:"assessment_intensity"`

	// EligibilityRigidityPct is the percentage of a standard population likely to be excluded.
	EligibilityRigidityPct *Float `json:"eligibility_rigidity_pct" bson:"eligibility_rigidity_pct" validate:"omitempty,gte=0,lte=100"`

	StartupTimelines *SponsorStartupTimelines `json:"startup_timelines" bson:"startup_timelines"`
	Monitoring       *SponsorMonitoring       `json:"monitoring" bson:"monitoring"`

	// TrialExpertise holds tags such as Medical Monitor Access, CRA Access, MAB, Gene Therapy, Vaccine.
	TrialExpertise []string `json:"trial_expertise" bson:"trial_expertise" validate:"dive,required"`

	Budget *SponsorBudget `json:"budget" bson:"budget"`
}

// NewSponsor returns a Sponsor carrying the declared defaults.
func NewSponsor() *Sponsor {
	return &Sponsor{TrialExpertise: []string{}}
}

// UnmarshalJSON decodes a request body. Client-sent id and timestamps are
// ignored.
func (s *Sponsor) UnmarshalJSON(data []byte) error {
	type body Sponsor
	return json.Unmarshal(data, &struct {
		*body
		storeManaged
	}{body: (*body)(s)})
}

func (s *Sponsor) Collection() string { return CollectionSponsor }

func (s *Sponsor) Validate() error {
	return validation.Struct(s)
}

func (s *Sponsor) Normalize() {
	s.TrialExpertise = emptyIfNil(s.TrialExpertise)
}

// SponsorListQuery is the query string accepted by GET /api/sponsors.
type SponsorListQuery struct {
	Expertise string `query:"expertise"`

	SortBy string      `query:"sort_by"`
	Order  query.Order `query:"order" validate:"oneof=asc desc"`
	Limit  int         `query:"limit" validate:"gte=1,lte=200"`
}

// NewSponsorListQuery returns a query with the default order and limit.
func NewSponsorListQuery() *SponsorListQuery {
	return &SponsorListQuery{Order: query.Descending, Limit: query.DefaultLimit}
}

func (q *SponsorListQuery) Validate() error {
	return validation.Struct(q)
}

// Options builds the store filter and in-memory ordering for the query.
func (q *SponsorListQuery) Options() query.Options {
	filter := query.Filter{}.Contains("trial_expertise", q.Expertise)

	return query.Options{Filter: filter, SortBy: q.SortBy, Order: q.Order, Limit: q.Limit}
}
