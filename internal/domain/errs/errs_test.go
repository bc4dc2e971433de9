package errs

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKinds(t *testing.T) {
	Convey("Given kinded sentinels", t, func() {
		Convey("They unwrap to their kind", func() {
			So(errors.Is(ErrInvalidRange, ErrValidation), ShouldBeTrue)
			So(errors.Is(ErrVotingClosed, ErrConflict), ShouldBeTrue)
			So(errors.Is(ErrNoMetadata, ErrValidation), ShouldBeTrue)
			So(errors.Is(ErrDuplicateSubmission, ErrConflict), ShouldBeTrue)
			So(errors.Is(ErrVotingClosed, ErrValidation), ShouldBeFalse)
		})

		Convey("KindOf classifies plain, wrapped and tagged errors", func() {
			So(KindOf(nil), ShouldBeNil)
			So(KindOf(errors.New("x")), ShouldBeNil)
			So(KindOf(ErrNotFound), ShouldEqual, ErrNotFound)
			So(KindOf(fmt.Errorf("load: %w", ErrTeamLimit)), ShouldEqual, ErrConflict)
			So(KindOf(NewKind("op", ErrUnauthorized)), ShouldEqual, ErrUnauthorized)
		})
	})
}

func TestErrorWrapping(t *testing.T) {
	Convey("Given an operation error", t, func() {
		cause := errors.New("connection refused")

		Convey("WrapKind forces the kind and keeps the cause", func() {
			err := WrapKind("app.recompute", ErrStore, cause)
			So(err.Error(), ShouldEqual, "app.recompute: connection refused")
			So(errors.Is(err, ErrStore), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(KindOf(err), ShouldEqual, ErrStore)
		})

		Convey("Wrap keeps the kind of the cause", func() {
			err := Wrap("app.SubmitVote", ErrInvalidRange)
			So(errors.Is(err, ErrInvalidRange), ShouldBeTrue)
			So(KindOf(err), ShouldEqual, ErrValidation)
		})

		Convey("Wrap of nil is nil", func() {
			So(Wrap("op", nil), ShouldBeNil)
			So(WrapKind("op", ErrStore, nil), ShouldBeNil)
		})

		Convey("NewKind renders the kind message", func() {
			So(NewKind("api.decode", ErrValidation).Error(), ShouldEqual, "api.decode: validation failed")
		})
	})
}
