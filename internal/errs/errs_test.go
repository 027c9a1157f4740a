package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPersistenceError(t *testing.T) {
	Convey("Given a store failure", t, func() {
		cause := errors.New("server selection error: context deadline exceeded")

		Convey("Then the message surfaces as PERSISTENCE_ERROR", func() {
			err := NewPersistenceError(cause)

			So(err.Status, ShouldEqual, http.StatusInternalServerError)
			So(err.Code, ShouldEqual, PersistenceErrorCode)
			So(err.Message, ShouldEqual, cause.Error())
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("Then a long message is cut to 200 characters", func() {
			err := NewPersistenceError(errors.New(strings.Repeat("x", 500)))

			So(err.Message, ShouldHaveLength, MaxPersistenceDetail)
		})

		Convey("Then a nil cause falls back to the status text", func() {
			So(NewPersistenceError(nil).Message, ShouldEqual, "Internal Server Error")
		})

		Convey("Then the not-configured sentinel stays reachable", func() {
			wrapped := fmt.Errorf("insert ctu: %w", ErrNotConfigured)
			err := NewPersistenceError(wrapped)

			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})
	})
}

func TestValidationError(t *testing.T) {
	Convey("Given failing fields", t, func() {
		err := NewValidationError([]FieldError{
			{Field: "name", Error: "is required"},
			{Field: "budget.startup_fee", Error: "must be greater than or equal to 0"},
		})

		Convey("Then it is a 400 listing every field", func() {
			So(err.Status, ShouldEqual, http.StatusBadRequest)
			So(err.Code, ShouldEqual, "BAD_REQUEST")
			So(err.Override, ShouldBeTrue)
			So(err.Errors, ShouldHaveLength, 2)
			So(err.Errors[1].Field, ShouldEqual, "budget.startup_fee")
		})
	})
}

func TestHTTPErrorHelpers(t *testing.T) {
	Convey("Custom codes override the status-derived one", t, func() {
		code := "SPONSOR_ALREADY_EXISTS"

		So(NewBadRequestError("exists", true, &code, nil, nil).Code, ShouldEqual, code)
		So(NewNotFoundError("missing", false, nil).Code, ShouldEqual, "NOT_FOUND")
		So(NewInternalServerError().Code, ShouldEqual, "INTERNAL_SERVER_ERROR")
	})

	Convey("Truncate counts runes", t, func() {
		So(Truncate("héllo", 2), ShouldEqual, "hé")
		So(Truncate("short", 80), ShouldEqual, "short")
		So(Truncate("anything", 0), ShouldEqual, "")
	})
}
