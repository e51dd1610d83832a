package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/lobbyrisk/internal/adapters/http/api"
	"github.com/okian/lobbyrisk/internal/domain/lobby"
	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/internal/domain/types"
	"github.com/okian/lobbyrisk/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type mockResolver struct {
	result model.LobbyResult
	err    error
	calls  [][]model.Identity
}

func (m *mockResolver) Resolve(_ context.Context, ids []model.Identity) (model.LobbyResult, error) {
	m.calls = append(m.calls, ids)
	return m.result, m.err
}

type mockStats struct{}

func (mockStats) GetStats() types.Stats {
	return types.Stats{PoolSize: 5, QueueCapacity: 1000, CacheBackend: "memory"}
}

func newTestRouter(resolver api.Resolver) http.Handler {
	r := api.NewRouter([]string{"https://lobby.example"})
	api.NewServer(resolver, mockStats{}).Register(context.Background(), r)
	return r
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/getUserProfiles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) string {
	var body types.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error
}

func TestGetUserProfiles(t *testing.T) {
	Convey("Given the profiles endpoint", t, func() {
		resolver := &mockResolver{result: model.LobbyResult{
			Profiles:  map[string]float64{"a": 10, "b": 20},
			LobbyRisk: 17.05,
		}}
		h := newTestRouter(resolver)

		Convey("When a valid lobby is posted", func() {
			rec := post(h, `{"usernames":["a","b"],"extra":true}`)

			Convey("Then it responds with every score and the aggregate", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var body types.ProfilesResponse
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Profiles, ShouldResemble, map[string]float64{"a": 10, "b": 20})
				So(body.LobbyRisk, ShouldEqual, 17.05)
				So(resolver.calls, ShouldHaveLength, 1)
				So(resolver.calls[0], ShouldResemble, []model.Identity{"a", "b"})
			})
		})

		for _, body := range []string{
			`{}`,
			`{"usernames":[]}`,
			`{"usernames":"a"}`,
			`{"usernames":["a",""]}`,
			`{"usernames":["   "]}`,
			`{"usernames":["a",7]}`,
			`not json`,
		} {
			Convey(fmt.Sprintf("When the body is %s", body), func() {
				rec := post(h, body)

				Convey("Then it is rejected before resolving", func() {
					So(rec.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(rec), ShouldEqual, "Usernames must be a non-empty array")
					So(resolver.calls, ShouldBeEmpty)
				})
			})
		}

		Convey("When the resolver rejects the batch", func() {
			resolver.err = fmt.Errorf("too many: %w", lobby.ErrInvalidRequest)
			rec := post(h, `{"usernames":["a"]}`)

			Convey("Then the client gets a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(rec), ShouldEqual, "Usernames must be a non-empty array")
			})
		})

		Convey("When the pool is unavailable", func() {
			resolver.err = lobby.ErrUnavailable
			rec := post(h, `{"usernames":["a"]}`)

			Convey("Then the client gets a generic 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(rec), ShouldEqual, "Failed to fetch user profiles")
			})
		})

		Convey("When resolving fails unexpectedly", func() {
			resolver.err = errors.New("boom")
			rec := post(h, `{"usernames":["a"]}`)

			Convey("Then internal details are not leaked", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(rec.Body.String(), ShouldNotContainSubstring, "boom")
			})
		})

		Convey("When the resolver returns no profiles", func() {
			resolver.result = model.LobbyResult{LobbyRisk: 100}
			rec := post(h, `{"usernames":["a"]}`)

			Convey("Then profiles is an empty object", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"profiles":{}`)
			})
		})

		Convey("When the wrong method is used", func() {
			req := httptest.NewRequest(http.MethodGet, "/getUserProfiles", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then chi answers 405", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a router restricted to one origin", t, func() {
		h := newTestRouter(&mockResolver{})

		Convey("When a preflight arrives from that origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/getUserProfiles", nil)
			req.Header.Set("Origin", "https://lobby.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then it is allowed", func() {
				So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://lobby.example")
			})
		})

		Convey("When a preflight arrives from elsewhere", func() {
			req := httptest.NewRequest(http.MethodOptions, "/getUserProfiles", nil)
			req.Header.Set("Origin", "https://other.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then no allow header is set", func() {
				So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		h := newTestRouter(&mockResolver{})

		Convey("When /healthz is requested", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then the metrics exposition is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "lobbyrisk_")
			})
		})

		Convey("When /stats is requested", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider snapshot is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats types.Stats
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats.PoolSize, ShouldEqual, 5)
				So(stats.CacheBackend, ShouldEqual, "memory")
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		cause := errors.New("cause")

		Convey("WrapKind matches both kind and cause", func() {
			err := api.WrapKind("op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: cause")
		})
	})
}
