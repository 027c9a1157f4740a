package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/trialbroker/internal/config"
	"github.com/deppfellow/trialbroker/internal/database"
	"github.com/deppfellow/trialbroker/internal/errs"
	"github.com/deppfellow/trialbroker/internal/handler"
	"github.com/deppfellow/trialbroker/internal/metrics"
	"github.com/deppfellow/trialbroker/internal/repository"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/deppfellow/trialbroker/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

// newTestRouter wires the full application around store. A nil store
// behaves like a process started without database settings.
func newTestRouter(store database.Store) *echo.Echo {
	if store == nil {
		return newRouterWithStoreErr(errs.ErrNotConfigured)
	}
	return buildRouter(store, nil)
}

// newRouterWithStoreErr wires the application as if opening the store
// failed with storeErr.
func newRouterWithStoreErr(storeErr error) *echo.Echo {
	return buildRouter(nil, storeErr)
}

func buildRouter(store database.Store, storeErr error) *echo.Echo {
	nop := zerolog.Nop()
	s := &server.Server{
		Config:   config.New(),
		Logger:   &nop,
		Metrics:  metrics.NewManager(),
		StoreErr: storeErr,
	}
	if store != nil {
		s.Store = store
	}

	services, err := service.NewService(s, repository.NewRepositories(s))
	So(err, ShouldBeNil)

	return NewRouter(s, handler.NewHandlers(s, services))
}

func send(e *echo.Echo, method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	return send(e, http.MethodGet, target, "", "")
}

func post(e *echo.Echo, target, body string) *httptest.ResponseRecorder {
	return send(e, http.MethodPost, target, echo.MIMEApplicationJSON, body)
}

func decodeError(rec *httptest.ResponseRecorder) errs.HTTPError {
	var body errs.HTTPError
	So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func decodeList(rec *httptest.ResponseRecorder) []map[string]any {
	var body []map[string]any
	So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func namesOf(records []map[string]any) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["name"].(string)
	}
	return out
}

func TestSystemRoutes(t *testing.T) {
	Convey("Given a router over a memory store", t, func() {
		e := newTestRouter(database.NewMemory("brokerage"))

		Convey("GET / returns the banner", func() {
			rec := get(e, "/")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"message":"Clinical Trials Brokerage Backend Running"`)
		})

		Convey("GET /schema lists both collections", func() {
			rec := get(e, "/schema")

			var body map[string][]string
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["schemas"], ShouldResemble, []string{"ctu", "sponsor"})
		})

		Convey("GET /test reports a working store and its collections", func() {
			So(post(e, "/api/ctus", `{"name":"Site A"}`).Code, ShouldEqual, http.StatusOK)

			rec := get(e, "/test")

			var body service.DiagnosticsReport
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body.Backend, ShouldEqual, "✅ Running")
			So(body.Database, ShouldEqual, "✅ Connected & Working")
			So(body.DatabaseName, ShouldEqual, "brokerage")
			So(body.ConnectionStatus, ShouldEqual, "Connected")
			So(body.Collections, ShouldResemble, []string{"ctu"})
		})

		Convey("GET /status is healthy", func() {
			rec := get(e, "/status")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"healthy"`)
		})

		Convey("An unknown route is a JSON 404", func() {
			rec := get(e, "/api/unknown")

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(body.Code, ShouldEqual, "NOT_FOUND")
			So(body.Message, ShouldEqual, "Route not found")
		})

		Convey("The request id is echoed or generated", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "trace-me")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			So(rec.Header().Get("X-Request-ID"), ShouldEqual, "trace-me")
			So(get(e, "/").Header().Get("X-Request-ID"), ShouldHaveLength, 36)
		})

		Convey("GET /metrics exposes request counters", func() {
			So(get(e, "/api/ctus").Code, ShouldEqual, http.StatusOK)

			rec := get(e, "/metrics")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "trialbroker_api_http_requests_total{")
			So(rec.Body.String(), ShouldContainSubstring, `route="/api/ctus"`)
			So(rec.Body.String(), ShouldContainSubstring, "trialbroker_api_store_operations_total{")
		})
	})
}

func TestCTURoutes(t *testing.T) {
	Convey("Given three CTUs", t, func() {
		e := newTestRouter(database.NewMemory("brokerage"))

		for _, body := range []string{
			`{"name":"Site A","city":"Austin","recruitment_velocity":5,"trial_expertise":["Oncology"]}`,
			`{"name":"Site B","city":"Austin","recruitment_velocity":12,"trial_expertise":["FIH","Oncology"]}`,
			`{"name":"Site C","city":"Boston","trial_expertise":["Oncology"]}`,
		} {
			rec := post(e, "/api/ctus", body)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var created handler.CreatedResponse
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			So(created.ID, ShouldHaveLength, 24)
		}

		Convey("Filtering by city and expertise, sorted desc by velocity", func() {
			rec := get(e, "/api/ctus?city=Austin&expertise=Oncology&sort_by=recruitment_velocity&order=desc")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(namesOf(decodeList(rec)), ShouldResemble, []string{"Site B", "Site A"})
		})

		Convey("Sorting asc puts the missing velocity first", func() {
			rec := get(e, "/api/ctus?sort_by=recruitment_velocity&order=asc&limit=2")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(namesOf(decodeList(rec)), ShouldResemble, []string{"Site C", "Site A"})
		})

		Convey("Stored records carry defaults and metadata", func() {
			records := decodeList(get(e, "/api/ctus?city=Boston"))

			So(records, ShouldHaveLength, 1)
			So(records[0]["outpatient_clinic"], ShouldEqual, true)
			So(records[0]["inpatient_confinement"], ShouldEqual, false)
			So(records[0]["tech_stack"], ShouldResemble, []any{})
			So(records[0]["created_at"], ShouldNotBeEmpty)
		})

		Convey("A filter nothing matches returns []", func() {
			rec := get(e, "/api/ctus?country=Nowhere")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, "[]")
		})
	})

	Convey("Given an empty CTU collection", t, func() {
		e := newTestRouter(database.NewMemory("brokerage"))

		Convey("A CTU without a name is rejected and not stored", func() {
			rec := post(e, "/api/ctus", `{"city":"Austin"}`)

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(body.Code, ShouldEqual, "BAD_REQUEST")
			So(body.Errors, ShouldHaveLength, 1)
			So(body.Errors[0].Field, ShouldEqual, "name")
			So(decodeList(get(e, "/api/ctus")), ShouldBeEmpty)
		})

		Convey("Every negative metric is reported", func() {
			rec := post(e, "/api/ctus", `{"name":"X","recruitment_velocity":-1,"timelines":{"siteinit_to_fpi_days":-3}}`)

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			fields := make([]string, 0, len(body.Errors))
			for _, fe := range body.Errors {
				fields = append(fields, fe.Field)
			}
			So(fields, ShouldContain, "recruitment_velocity")
			So(fields, ShouldContain, "timelines.siteinit_to_fpi_days")
		})

		Convey("A wrongly typed field names the field", func() {
			rec := post(e, "/api/ctus", `{"name":"X","recruitment_velocity":"fast"}`)

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(body.Errors, ShouldHaveLength, 1)
			So(body.Errors[0].Field, ShouldEqual, "recruitment_velocity")
		})

		Convey("Numeric strings and integral floats are accepted", func() {
			rec := post(e, "/api/ctus", `{"name":"X","recruitment_velocity":"7","timelines":{"siteinit_to_fpi_days":5.0}}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			records := decodeList(get(e, "/api/ctus"))
			So(records, ShouldHaveLength, 1)
			So(records[0]["recruitment_velocity"], ShouldEqual, 7.0)

			timelines, ok := records[0]["timelines"].(map[string]any)
			So(ok, ShouldBeTrue)
			So(timelines["siteinit_to_fpi_days"], ShouldEqual, 5.0)
		})

		Convey("A fractional day count is rejected", func() {
			rec := post(e, "/api/ctus", `{"name":"X","timelines":{"siteinit_to_fpi_days":5.5}}`)

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(body.Errors, ShouldHaveLength, 1)
			So(body.Errors[0].Field, ShouldEqual, "timelines.siteinit_to_fpi_days")
			So(decodeList(get(e, "/api/ctus")), ShouldBeEmpty)
		})

		Convey("A null expertise tag is rejected", func() {
			rec := post(e, "/api/ctus", `{"name":"X","trial_expertise":["Oncology",null]}`)

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(body.Errors, ShouldHaveLength, 1)
			So(body.Errors[0].Field, ShouldEqual, "trial_expertise[1]")
		})

		Convey("Client supplied id and timestamps are replaced", func() {
			rec := post(e, "/api/ctus", `{"name":"X","id":"abc","created_at":"yesterday","updated_at":42}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var created handler.CreatedResponse
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			So(created.ID, ShouldHaveLength, 24)
			So(created.ID, ShouldNotEqual, "abc")

			records := decodeList(get(e, "/api/ctus"))
			So(records, ShouldHaveLength, 1)
			So(records[0]["id"], ShouldEqual, created.ID)
			So(records[0]["created_at"], ShouldNotEqual, "yesterday")
		})

		Convey("Malformed JSON is a 400", func() {
			rec := post(e, "/api/ctus", `{"name":`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec).Code, ShouldEqual, "BAD_REQUEST")
		})

		Convey("A non-JSON body is a 415", func() {
			rec := send(e, http.MethodPost, "/api/ctus", echo.MIMETextPlain, "name=X")

			So(rec.Code, ShouldEqual, http.StatusUnsupportedMediaType)
		})

		Convey("Out of range list parameters are rejected", func() {
			for _, target := range []string{
				"/api/ctus?limit=0",
				"/api/ctus?limit=201",
				"/api/ctus?limit=ten",
				"/api/ctus?order=sideways",
			} {
				rec := get(e, target)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}

			So(get(e, "/api/ctus?limit=200").Code, ShouldEqual, http.StatusOK)
			So(get(e, "/api/ctus?limit=1").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestSponsorRoutes(t *testing.T) {
	Convey("Given three sponsors", t, func() {
		e := newTestRouter(database.NewMemory("brokerage"))

		for _, body := range []string{
			`{"name":"Pharma X","ecrf_edc_usability":8,"trial_expertise":["Vaccine"]}`,
			`{"name":"Pharma Y","ecrf_edc_usability":3,"trial_expertise":["Vaccine","MAB"]}`,
			`{"name":"Pharma Z","trial_expertise":["MAB"]}`,
		} {
			So(post(e, "/api/sponsors", body).Code, ShouldEqual, http.StatusOK)
		}

		Convey("Expertise filter, ascending sort and limit combine", func() {
			rec := get(e, "/api/sponsors?expertise=Vaccine&sort_by=ecrf_edc_usability&order=asc&limit=1")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(namesOf(decodeList(rec)), ShouldResemble, []string{"Pharma Y"})
		})

		Convey("The order is case-insensitive", func() {
			rec := get(e, "/api/sponsors?sort_by=ecrf_edc_usability&order=ASC")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(namesOf(decodeList(rec)), ShouldResemble, []string{"Pharma Z", "Pharma Y", "Pharma X"})
		})

		Convey("The default order is descending", func() {
			rec := get(e, "/api/sponsors?sort_by=ecrf_edc_usability")

			So(namesOf(decodeList(rec)), ShouldResemble, []string{"Pharma X", "Pharma Y", "Pharma Z"})
		})

		Convey("Out of range scores are rejected", func() {
			rec := post(e, "/api/sponsors", `{"name":"Bad","ecrf_edc_usability":11,"budget":{"startup_fee":-10}}`)

			body := decodeError(rec)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(body.Errors, ShouldHaveLength, 2)
			So(decodeList(get(e, "/api/sponsors")), ShouldHaveLength, 3)
		})

		Convey("A client supplied id does not reach the store", func() {
			rec := post(e, "/api/sponsors", `{"name":"Pharma W","id":"65f1c2a4e4b0a1b2c3d4e5f6"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var created handler.CreatedResponse
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			So(created.ID, ShouldNotEqual, "65f1c2a4e4b0a1b2c3d4e5f6")
			So(decodeList(get(e, "/api/sponsors")), ShouldHaveLength, 4)
		})
	})
}

func TestRoutesWithoutStore(t *testing.T) {
	Convey("Given a router whose store never opened", t, func() {
		e := newTestRouter(nil)

		Convey("GET /test still answers 200", func() {
			rec := get(e, "/test")

			var body service.DiagnosticsReport
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body.Database, ShouldEqual, "⚠️ Available but not initialized")
			So(body.ConnectionStatus, ShouldEqual, "Not Connected")
			So(body.Collections, ShouldBeEmpty)
		})

		Convey("Create and list fail with a persistence error", func() {
			for _, rec := range []*httptest.ResponseRecorder{
				post(e, "/api/sponsors", `{"name":"Pharma X"}`),
				get(e, "/api/ctus"),
			} {
				body := decodeError(rec)
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(body.Code, ShouldEqual, errs.PersistenceErrorCode)
				So(body.Message, ShouldEqual, errs.ErrNotConfigured.Error())
			}
		})

		Convey("Validation runs before the missing store is noticed", func() {
			rec := post(e, "/api/sponsors", `{"eligibility_rigidity_pct":100.5}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("GET /status is unhealthy", func() {
			rec := get(e, "/status")

			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"unhealthy"`)
		})
	})

	Convey("Given a router whose store failed to connect", t, func() {
		e := newRouterWithStoreErr(errors.New("failed to initialize database: connection refused"))

		Convey("GET /status reports why", func() {
			rec := get(e, "/status")

			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(rec.Body.String(), ShouldContainSubstring, "connection refused")
		})

		Convey("GET /test stays 200 and does not report the URL", func() {
			rec := get(e, "/test")

			var body service.DiagnosticsReport
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body.Database, ShouldEqual, "⚠️ Available but not initialized")
			So(body.DatabaseURL, ShouldEqual, "❌ Not Set")
		})
	})
}
