package ingest

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/breakpoint/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestRunGuards(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scraper with no configured sources", t, func() {
		s := New(logger.Get())

		Convey("Run refuses before launching a browser", func() {
			err := s.Run(ctx, nil, nil, t.TempDir())
			So(err, ShouldWrap, ErrNoSources)
		})
	})

	Convey("Given mismatched source and output lists", t, func() {
		s := New(logger.Get())

		Convey("Run reports the pairing error", func() {
			err := s.Run(ctx, []string{"https://example.com/a", "https://example.com/b"}, []string{"a.csv"}, t.TempDir())
			So(err, ShouldWrap, ErrBadPairing)
		})
	})

	Convey("Given a custom page timeout", t, func() {
		s := New(logger.Get(), WithPageTimeout(5*time.Second))
		So(s.pageTimeout, ShouldEqual, 5*time.Second)

		Convey("Non-positive values keep the default", func() {
			s := New(logger.Get(), WithPageTimeout(0))
			So(s.pageTimeout, ShouldEqual, defaultPageTimeout)
		})
	})
}
