package terms_test

import (
	"sync"
	"testing"

	"github.com/okian/lobbyrisk/internal/domain/terms"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatcher(t *testing.T) {
	Convey("Given a matcher with the default terms", t, func() {
		m := terms.NewMatcher(nil)

		Convey("When a comment contains a term in another case", func() {
			Convey("Then it matches", func() {
				So(m.Contains("total CHEATER, reported"), ShouldBeTrue)
				So(m.Contains("Denúncia enviada"), ShouldBeTrue)
				So(m.Contains("DENÚNCIA"), ShouldBeTrue)
			})
		})

		Convey("When a term appears inside a longer word", func() {
			Convey("Then substring matching applies", func() {
				So(m.Contains("nice wallhack lol"), ShouldBeTrue)
			})
		})

		Convey("When no comment mentions a term", func() {
			Convey("Then nothing is flagged", func() {
				So(m.Any([]string{"gg wp", "great teammate", ""}), ShouldBeFalse)
				So(m.Any(nil), ShouldBeFalse)
			})
		})

		Convey("When one of several comments mentions a term", func() {
			So(m.Any([]string{"gg", "xiter demais"}), ShouldBeTrue)
		})
	})

	Convey("Given a matcher with a custom term set", t, func() {
		m := terms.NewMatcher([]string{" Aimbot ", "", "SMURF"})

		Convey("Then only the custom terms are used", func() {
			So(m.Terms(), ShouldResemble, []string{"aimbot", "smurf"})
			So(m.Contains("obvious aimbot"), ShouldBeTrue)
			So(m.Contains("cheater"), ShouldBeFalse)
		})
	})

	Convey("Given decomposed input", t, func() {
		m := terms.NewMatcher([]string{"denúncia"})

		Convey("Then it is normalized before comparison", func() {
			So(m.Contains("denúncia"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent callers", t, func() {
		m := terms.NewMatcher(nil)
		var wg sync.WaitGroup
		results := make([]bool, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = m.Contains("CHEATER")
			}(i)
		}
		wg.Wait()

		Convey("Then every call sees the same answer", func() {
			for _, r := range results {
				So(r, ShouldBeTrue)
			}
		})
	})
}
