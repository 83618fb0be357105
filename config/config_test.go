package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/filesystem"
	"github.com/teamg-play/mpvhost/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Platform-dependent defaults resolve to a concrete value", func() {
			_ = Setup()
			So(viper.GetString(key.PlayerGpuApi), ShouldBeIn, "auto", "d3d11")
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("session.startup_timeout_ms")
			So(result, ShouldEqual, "session_startup_timeout_ms")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Field", t, func() {
		field := Default[key.PlayerBinary]

		Convey("Env derives the prefixed environment variable name", func() {
			So(field.Env(), ShouldEqual, "MPVHOST_PLAYER_BINARY")
		})

		Convey("Pretty renders without panicking", func() {
			So(field.Pretty(), ShouldNotBeEmpty)
		})
	})
}
