package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerLevels(t *testing.T) {
	convey.Convey("Given an initialized logger", t, func() {
		convey.So(Init(), convey.ShouldBeNil)

		convey.Convey("Known level names are accepted", func() {
			for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", " error "} {
				convey.So(SetLevelString(lvl), convey.ShouldBeNil)
			}
		})

		convey.Convey("Unknown level names are rejected", func() {
			err := SetLevelString("verbose")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "unknown log level")
		})

		convey.Convey("Unknown formats are rejected", func() {
			convey.So(SetFormat("xml"), convey.ShouldNotBeNil)
		})

		convey.Reset(func() {
			_ = SetLevelString("info")
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	convey.Convey("Given a json logger writing into a buffer", t, func() {
		var buf bytes.Buffer
		output = &buf
		defer func() { output = os.Stdout; _ = Init() }()

		convey.So(Init(), convey.ShouldBeNil)
		convey.So(SetFormat("json"), convey.ShouldBeNil)

		convey.Convey("When logging with fields through a named logger", func() {
			Named("pool").With(String("batch", "b-1")).Warn(context.Background(), "task failed",
				String("identity", "7656"), Int("attempt", 1), Error(errors.New("boom")))

			var rec map[string]any
			convey.So(json.Unmarshal(buf.Bytes(), &rec), convey.ShouldBeNil)

			convey.So(rec["msg"], convey.ShouldEqual, "task failed")
			convey.So(rec["component"], convey.ShouldEqual, "pool")
			convey.So(rec["batch"], convey.ShouldEqual, "b-1")
			convey.So(rec["identity"], convey.ShouldEqual, "7656")
			convey.So(rec["source"], convey.ShouldContainSubstring, "logger_test.go")
		})

		convey.Convey("Debug records are dropped at info level", func() {
			Get().Debug(context.Background(), "hidden")
			convey.So(buf.Len(), convey.ShouldEqual, 0)
		})
	})
}
