package render_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/lobbyrisk/internal/adapters/render"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRenderer(t *testing.T) {
	Convey("Given a profile server", t, func() {
		var hits atomic.Int32
		var agent atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			agent.Store(r.UserAgent())
			switch r.URL.Path {
			case "/profiles/ok/":
				_, _ = w.Write([]byte("<html><body>ok</body></html>"))
			case "/profiles/slow/":
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			case "/profiles/big/":
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()
		ctx := context.Background()

		Convey("When the page exists", func() {
			r := render.New(render.WithUserAgent("probe/2"))
			body, err := r.Render(ctx, srv.URL+"/profiles/ok/")

			Convey("Then its body is returned with the configured user agent", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, "ok")
				So(agent.Load(), ShouldEqual, "probe/2")
			})
		})

		Convey("When the server is slower than the timeout", func() {
			r := render.New(render.WithTimeout(50 * time.Millisecond))
			_, err := r.Render(ctx, srv.URL+"/profiles/slow/")

			Convey("Then the error wraps a deadline", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When the page does not exist", func() {
			_, err := render.New().Render(ctx, srv.URL+"/profiles/nobody/")
			So(errors.Is(err, render.ErrStatus), ShouldBeTrue)
		})

		Convey("When the document is larger than allowed", func() {
			_, err := render.New(render.WithMaxBytes(16)).Render(ctx, srv.URL+"/profiles/big/")
			So(errors.Is(err, render.ErrTooLarge), ShouldBeTrue)
		})

		Convey("When throttled to a single token", func() {
			r := render.New(render.WithRateLimit(1, 1), render.WithTimeout(100*time.Millisecond))
			_, err1 := r.Render(ctx, srv.URL+"/profiles/ok/")
			_, err2 := r.Render(ctx, srv.URL+"/profiles/ok/")

			Convey("Then the second request cannot get a token in time", func() {
				So(err1, ShouldBeNil)
				So(errors.Is(err2, context.DeadlineExceeded), ShouldBeTrue)
				So(hits.Load(), ShouldEqual, 1)
			})
		})
	})
}
