package model

import (
	"encoding/json"

	"github.com/deppfellow/trialbroker/internal/query"
	"github.com/deppfellow/trialbroker/internal/validation"
)

// CTUTimelines are the start-up durations of a site, in days.
type CTUTimelines struct {
	FeasibilityToHRECDays *Int `json:"feasibility_to_hrec_days" bson:"feasibility_to_hrec_days" validate:"omitempty,gte=0"`
	HRECToSiteInitDays    *Int `json:"hrec_to_siteinit_days" bson:"hrec_to_siteinit_days" validate:"omitempty,gte=0"`
	SiteInitToFPIDays     *Int `json:"siteinit_to_fpi_days" bson:"siteinit_to_fpi_days" validate:"omitempty,gte=0"`
}

// CTU is a Clinical Trial Unit, a study site.
type CTU struct {
	Meta `bson:",inline"`

	Name    string  `json:"name" bson:"name" validate:"required"`
	City    *string `json:"city" bson:"city"`
	State   *string `json:"state" bson:"state"`
	Country *string `json:"country" bson:"country"`

	// Site capabilities.
	InpatientConfinement bool `json:"inpatient_confinement" bson:"inpatient_confinement"`
	Telemetry24h         bool `json:"telemetry_24h" bson:"telemetry_24h"`
	OutpatientClinic     bool `json:"outpatient_clinic" bson:"outpatient_clinic"`

	// TrialExpertise holds tags such as FIH, Late Phase, Oncology, GMO, Gene Therapy.
	TrialExpertise []string `json:"trial_expertise" bson:"trial_expertise" validate:"dive,required"`

	// TechStack holds tags such as E-Source or Paper.
	TechStack []string `json:"tech_stack" bson:"tech_stack" validate:"dive,required"`

	// RecruitmentVelocity is participants per month.
	RecruitmentVelocity *Float `json:"recruitment_velocity" bson:"recruitment_velocity" validate:"omitempty,gte=0"`

	// DataQualityPDPP is protocol deviations per participant.
	DataQualityPDPP *Float `json:"data_quality_pdpp" bson:"data_quality_pdpp" validate:"omitempty,gte=0"`

	Timelines *CTUTimelines `json:"timelines" bson:"timelines"`
}

// NewCTU returns a CTU carrying the declared defaults. Binding a request
// body onto it keeps the defaults for every omitted field.
func NewCTU() *CTU {
	return &CTU{
		OutpatientClinic: true,
		TrialExpertise:   []string{},
		TechStack:        []string{},
	}
}

// UnmarshalJSON decodes a request body. Client-sent id and timestamps are
// ignored.
func (c *CTU) UnmarshalJSON(data []byte) error {
	type body CTU
	return json.Unmarshal(data, &struct {
		*body
		storeManaged
	}{body: (*body)(c)})
}

func (c *CTU) Collection() string { return CollectionCTU }

func (c *CTU) Validate() error {
	return validation.Struct(c)
}

func (c *CTU) Normalize() {
	c.TrialExpertise = emptyIfNil(c.TrialExpertise)
	c.TechStack = emptyIfNil(c.TechStack)
}

// CTUListQuery is the query string accepted by GET /api/ctus.
type CTUListQuery struct {
	City      string `query:"city"`
	State     string `query:"state"`
	Country   string `query:"country"`
	Expertise string `query:"expertise"`

	SortBy string      `query:"sort_by"`
	Order  query.Order `query:"order" validate:"oneof=asc desc"`
	Limit  int         `query:"limit" validate:"gte=1,lte=200"`
}

// NewCTUListQuery returns a query with the default order and limit.
func NewCTUListQuery() *CTUListQuery {
	return &CTUListQuery{Order: query.Descending, Limit: query.DefaultLimit}
}

func (q *CTUListQuery) Validate() error {
	return validation.Struct(q)
}

// Options builds the store filter and in-memory ordering for the query.
func (q *CTUListQuery) Options() query.Options {
	filter := query.Filter{}.
		Equals("city", q.City).
		Equals("state", q.State).
		Equals("country", q.Country).
		Contains("trial_expertise", q.Expertise)

	return query.Options{Filter: filter, SortBy: q.SortBy, Order: q.Order, Limit: q.Limit}
}
