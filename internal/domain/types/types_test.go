package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/lobbyrisk/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProfilesResponse(t *testing.T) {
	Convey("Given a ProfilesResponse", t, func() {
		resp := types.ProfilesResponse{
			Profiles:  map[string]float64{"alice": 99.9},
			LobbyRisk: 99.9,
		}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(resp)

			Convey("Then it matches the public wire format", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"profiles":{"alice":99.9},"lobbyRisk":99.9}`)
			})
		})
	})
}

func TestProfilesRequest(t *testing.T) {
	Convey("Given a raw request body", t, func() {
		var req types.ProfilesRequest
		err := json.Unmarshal([]byte(`{"usernames":["a","b"]}`), &req)

		Convey("Then usernames decode in order", func() {
			So(err, ShouldBeNil)
			So(req.Usernames, ShouldResemble, []string{"a", "b"})
		})
	})
}
