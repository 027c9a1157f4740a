package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/query"
	"github.com/go-playground/validator/v10"
	. "github.com/smartystreets/goconvey/convey"
)

func decodeCTU(body string) *model.CTU {
	ctu := model.NewCTU()
	So(json.Unmarshal([]byte(body), ctu), ShouldBeNil)
	return ctu
}

func decodeSponsor(body string) *model.Sponsor {
	sponsor := model.NewSponsor()
	So(json.Unmarshal([]byte(body), sponsor), ShouldBeNil)
	return sponsor
}

func failingFields(err error) []string {
	var verrs validator.ValidationErrors
	So(errors.As(err, &verrs), ShouldBeTrue)

	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Namespace())
	}
	return fields
}

func TestCTU(t *testing.T) {
	Convey("Given a CTU payload", t, func() {
		Convey("When only the name is supplied", func() {
			ctu := decodeCTU(`{"name": "Site A"}`)

			Convey("Then the declared defaults apply", func() {
				So(ctu.Validate(), ShouldBeNil)
				So(ctu.OutpatientClinic, ShouldBeTrue)
				So(ctu.InpatientConfinement, ShouldBeFalse)
				So(ctu.Telemetry24h, ShouldBeFalse)
				So(ctu.TrialExpertise, ShouldResemble, []string{})
				So(ctu.TechStack, ShouldResemble, []string{})
				So(ctu.City, ShouldBeNil)
				So(ctu.Timelines, ShouldBeNil)
			})
		})

		Convey("When lists are sent as null", func() {
			ctu := decodeCTU(`{"name": "Site A", "trial_expertise": null, "tech_stack": null}`)
			ctu.Normalize()

			Convey("Then normalization restores empty lists", func() {
				So(ctu.TrialExpertise, ShouldNotBeNil)
				So(ctu.TrialExpertise, ShouldBeEmpty)
				So(ctu.TechStack, ShouldNotBeNil)
			})
		})

		Convey("When the name is missing", func() {
			ctu := decodeCTU(`{"city": "Austin"}`)

			Convey("Then validation reports the name", func() {
				So(failingFields(ctu.Validate()), ShouldResemble, []string{"CTU.name"})
			})
		})

		Convey("When metrics are negative", func() {
			ctu := decodeCTU(`{
				"name": "Site A",
				"recruitment_velocity": -1,
				"data_quality_pdpp": -0.5,
				"timelines": {"feasibility_to_hrec_days": 10, "siteinit_to_fpi_days": -3}
			}`)

			Convey("Then every failing field is enumerated, nested ones included", func() {
				So(failingFields(ctu.Validate()), ShouldResemble, []string{
					"CTU.recruitment_velocity",
					"CTU.data_quality_pdpp",
					"CTU.timelines.siteinit_to_fpi_days",
				})
			})
		})

		Convey("When metrics are zero", func() {
			ctu := decodeCTU(`{"name": "Site A", "recruitment_velocity": 0, "timelines": {"hrec_to_siteinit_days": 0}}`)

			Convey("Then the lower bound is inclusive", func() {
				So(ctu.Validate(), ShouldBeNil)
			})
		})

		Convey("When a record is stamped", func() {
			ctu := decodeCTU(`{"name": "Site A", "id": "65f1c2a4e4b0a1b2c3d4e5f6"}`)
			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			ctu.Stamp(now)

			Convey("Then the client id is discarded and timestamps are set", func() {
				So(ctu.ID.IsZero(), ShouldBeTrue)
				So(ctu.CreatedAt, ShouldEqual, now)
				So(ctu.UpdatedAt, ShouldEqual, now)
				So(ctu.Collection(), ShouldEqual, model.CollectionCTU)
			})
		})
	})
}

func TestSponsor(t *testing.T) {
	Convey("Given a Sponsor payload", t, func() {
		Convey("When every optional object is present and in range", func() {
			sponsor := decodeSponsor(`{
				"name": "Acme Pharma",
				"ecrf_edc_usability": 10,
				"eligibility_rigidity_pct": 0,
				"study_length": {"confinement_days": 5, "outpatient_days": 20, "followup_cadence_days": 7},
				"assessment_intensity": {"pk_sampling": true},
				"startup_timelines": {"cta_execution_rate": 100, "feasibility_turnaround_days": 14},
				"monitoring": {"visit_frequency_days": 30, "cra_query_rate": 1.5, "query_closure_days": 3},
				"budget": {"screen_fail_reimbursement": 250, "per_patient_payment": 5000, "startup_fee": 10000},
				"trial_expertise": ["Gene Therapy"]
			}`)

			Convey("Then it validates", func() {
				So(sponsor.Validate(), ShouldBeNil)
				So(sponsor.AssessmentIntensity.PKSampling, ShouldBeTrue)
				So(sponsor.AssessmentIntensity.ExploratoryEndpoints, ShouldBeFalse)
			})
		})

		Convey("When the usability score is 11", func() {
			sponsor := decodeSponsor(`{"name": "Acme Pharma", "ecrf_edc_usability": 11}`)

			Convey("Then it is rejected", func() {
				So(failingFields(sponsor.Validate()), ShouldResemble, []string{"Sponsor.ecrf_edc_usability"})
			})
		})

		Convey("When percentages and budgets are out of range", func() {
			sponsor := decodeSponsor(`{
				"name": "Acme Pharma",
				"eligibility_rigidity_pct": 100.5,
				"startup_timelines": {"cta_execution_rate": -1},
				"budget": {"startup_fee": -10}
			}`)

			Convey("Then each one is reported", func() {
				So(failingFields(sponsor.Validate()), ShouldResemble, []string{
					"Sponsor.eligibility_rigidity_pct",
					"Sponsor.startup_timelines.cta_execution_rate",
					"Sponsor.budget.startup_fee",
				})
			})
		})

		Convey("When only the name is supplied", func() {
			sponsor := decodeSponsor(`{"name": "Acme Pharma"}`)

			Convey("Then optional objects stay absent", func() {
				So(sponsor.Validate(), ShouldBeNil)
				So(sponsor.Budget, ShouldBeNil)
				So(sponsor.Monitoring, ShouldBeNil)
				So(sponsor.TrialExpertise, ShouldResemble, []string{})
			})
		})
	})
}

func TestListQueries(t *testing.T) {
	Convey("Given the default CTU list query", t, func() {
		q := model.NewCTUListQuery()

		Convey("Then order defaults to desc and limit to 50", func() {
			So(q.Validate(), ShouldBeNil)
			So(q.Order, ShouldEqual, query.Descending)
			So(q.Limit, ShouldEqual, 50)
			So(q.Options().Filter, ShouldBeEmpty)
		})

		Convey("When locale and expertise filters are set", func() {
			q.City = "Austin"
			q.Country = "US"
			q.Expertise = "Oncology"

			Convey("Then only the supplied filters become conditions", func() {
				So(q.Options().Filter, ShouldResemble, query.Filter{
					{Field: "city", Operator: query.OpEquals, Value: "Austin"},
					{Field: "country", Operator: query.OpEquals, Value: "US"},
					{Field: "trial_expertise", Operator: query.OpContains, Value: "Oncology"},
				})
			})
		})

		Convey("When the limit is out of bounds", func() {
			q.Limit = 201
			So(failingFields(q.Validate()), ShouldResemble, []string{"CTUListQuery.limit"})

			q.Limit = 0
			So(failingFields(q.Validate()), ShouldResemble, []string{"CTUListQuery.limit"})

			q.Limit = 200
			So(q.Validate(), ShouldBeNil)
		})

		Convey("When the order is unknown", func() {
			q.Order = "sideways"
			So(failingFields(q.Validate()), ShouldResemble, []string{"CTUListQuery.order"})
		})
	})

	Convey("Given a sponsor list query with an expertise tag", t, func() {
		q := model.NewSponsorListQuery()
		q.Expertise = "Vaccine"
		q.SortBy = "ecrf_edc_usability"
		q.Order = query.Ascending

		opts := q.Options()
		So(opts.Filter, ShouldResemble, query.Filter{
			{Field: "trial_expertise", Operator: query.OpContains, Value: "Vaccine"},
		})
		So(opts.SortBy, ShouldEqual, "ecrf_edc_usability")
		So(opts.Order, ShouldEqual, query.Ascending)
		So(opts.Limit, ShouldEqual, query.DefaultLimit)
	})
}

func TestNumbers(t *testing.T) {
	Convey("Given lenient number fields", t, func() {
		var holder struct {
			F *model.Float `json:"f"`
			I *model.Int   `json:"i"`
		}
		decode := func(body string) error {
			holder.F, holder.I = nil, nil
			return json.Unmarshal([]byte(body), &holder)
		}

		Convey("Numbers and numeric strings decode alike", func() {
			So(decode(`{"f": "7", "i": "12"}`), ShouldBeNil)
			So(*holder.F, ShouldEqual, model.Float(7))
			So(*holder.I, ShouldEqual, model.Int(12))

			So(decode(`{"f": 2.5, "i": 5.0}`), ShouldBeNil)
			So(*holder.F, ShouldEqual, model.Float(2.5))
			So(*holder.I, ShouldEqual, model.Int(5))

			So(decode(`{"f": " -1e2 ", "i": -3}`), ShouldBeNil)
			So(*holder.F, ShouldEqual, model.Float(-100))
			So(*holder.I, ShouldEqual, model.Int(-3))
		})

		Convey("Null leaves the field absent", func() {
			So(decode(`{"f": null, "i": null}`), ShouldBeNil)
			So(holder.F, ShouldBeNil)
			So(holder.I, ShouldBeNil)
		})

		Convey("Non-numeric values name the offending field", func() {
			for body, field := range map[string]string{
				`{"f": "fast"}`: "f",
				`{"f": ""}`:     "f",
				`{"f": "NaN"}`:  "f",
				`{"f": true}`:   "f",
				`{"f": [1]}`:    "f",
				`{"i": 5.5}`:    "i",
				`{"i": "5.5"}`:  "i",
				`{"i": 1e300}`:  "i",
				`{"i": {}}`:     "i",
			} {
				var typeErr *json.UnmarshalTypeError
				So(errors.As(decode(body), &typeErr), ShouldBeTrue)
				So(typeErr.Field, ShouldEqual, field)
			}
		})
	})

	Convey("Given a CTU payload with string metrics", t, func() {
		ctu := decodeCTU(`{"name": "Site A", "recruitment_velocity": "7", "timelines": {"siteinit_to_fpi_days": "5"}}`)

		So(ctu.Validate(), ShouldBeNil)
		So(*ctu.RecruitmentVelocity, ShouldEqual, model.Float(7))
		So(*ctu.Timelines.SiteInitToFPIDays, ShouldEqual, model.Int(5))
	})

	Convey("Given a CTU payload with a null expertise tag", t, func() {
		ctu := decodeCTU(`{"name": "Site A", "trial_expertise": ["Oncology", null]}`)

		So(failingFields(ctu.Validate()), ShouldResemble, []string{"CTU.trial_expertise[1]"})
	})

	Convey("Given a payload carrying store metadata", t, func() {
		ctu := decodeCTU(`{"name": "Site A", "id": "not-an-id", "created_at": "yesterday", "updated_at": 42}`)

		Convey("Then decoding succeeds and the metadata is ignored", func() {
			So(ctu.Name, ShouldEqual, "Site A")
			So(ctu.ID.IsZero(), ShouldBeTrue)
			So(ctu.CreatedAt.IsZero(), ShouldBeTrue)
			So(ctu.UpdatedAt.IsZero(), ShouldBeTrue)
		})
	})
}
