package player

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildArgs(t *testing.T) {
	Convey("buildArgs", t, func() {
		spec := launchSpec{
			Title:    "mpv",
			Bounds:   Bounds{X: 10, Y: 20, Width: 1280, Height: 720},
			VideoOut: "gpu",
			GpuApi:   "auto",
			Endpoint: Endpoint("/tmp/mpvhost-1.sock"),
			URL:      "https://example.com/stream.m3u8",
		}

		Convey("The mandatory block keeps its fixed order", func() {
			args := buildArgs(spec)

			So(args[:10], ShouldResemble, []string{
				"--title=mpv",
				"--geometry=1280x720+10+20",
				"--no-border",
				"--force-window=yes",
				"--no-terminal",
				"--keep-open=always",
				"--vo=gpu",
				"--gpu-api=auto",
				"--hwdec=auto-safe",
				"--cache=yes",
			})
		})

		Convey("The endpoint, separator and URL are always the final three", func() {
			spec.Volume = 70
			spec.OnTop = true
			spec.Start = 42.9
			args := buildArgs(spec)

			n := len(args)
			So(args[n-3], ShouldEqual, "--input-ipc-server=/tmp/mpvhost-1.sock")
			So(args[n-2], ShouldEqual, "--")
			So(args[n-1], ShouldEqual, "https://example.com/stream.m3u8")
		})

		Convey("Optional arguments appear only when set", func() {
			args := buildArgs(spec)
			So(strings.Join(args, " "), ShouldNotContainSubstring, "--volume")
			So(strings.Join(args, " "), ShouldNotContainSubstring, "--ontop")
			So(strings.Join(args, " "), ShouldNotContainSubstring, "--start")

			spec.Volume = 70
			spec.OnTop = true
			spec.Start = 42.9
			args = buildArgs(spec)
			So(args, ShouldContain, "--volume=70")
			So(args, ShouldContain, "--ontop")
			So(args, ShouldContain, "--start=42")
		})

		Convey("A URL starting with a dash sits after the separator", func() {
			spec.URL = "-rf.mkv"
			args := buildArgs(spec)
			n := len(args)
			So(args[n-2], ShouldEqual, "--")
			So(args[n-1], ShouldEqual, "-rf.mkv")
		})
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("Accepts http and https URLs", func() {
			url, err := sanitizeMediaTarget("https://example.com/a.m3u8")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "https://example.com/a.m3u8")

			url, err = sanitizeMediaTarget("  http://example.com/a.mp4  ")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://example.com/a.mp4")
		})

		Convey("Rejects empty and control characters", func() {
			_, err := sanitizeMediaTarget("   ")
			So(err, ShouldNotBeNil)

			_, err = sanitizeMediaTarget("https://example.com/a\n.mp4")
			So(err, ShouldNotBeNil)
		})

		Convey("Passes streaming protocol URLs through unchanged", func() {
			for _, link := range []string{
				"rtsp://camera.local:554/live",
				"rtmp://cdn.example.com/app/stream",
				"udp://239.0.0.1:1234",
			} {
				url, err := sanitizeMediaTarget(link)
				So(err, ShouldBeNil)
				So(url, ShouldEqual, link)
			}
		})

		Convey("Rejects unparseable URLs", func() {
			_, err := sanitizeMediaTarget("http://[::1:80/broken")
			So(err, ShouldNotBeNil)
		})

		Convey("Cleans local paths", func() {
			path, err := sanitizeMediaTarget("/videos/../videos/a.mkv")
			So(err, ShouldBeNil)
			So(path, ShouldEqual, "/videos/a.mkv")
		})
	})
}

func TestSanitizeTitle(t *testing.T) {
	Convey("sanitizeTitle", t, func() {
		So(sanitizeTitle("My\nShow\tS01E01\x00"), ShouldEqual, "My Show S01E01")
		So(sanitizeTitle("  plain  "), ShouldEqual, "plain")
	})
}

func TestBounds(t *testing.T) {
	Convey("Bounds", t, func() {
		Convey("Geometry renders WxH+X+Y", func() {
			So(Bounds{X: 5, Y: 7, Width: 800, Height: 600}.Geometry(), ShouldEqual, "800x600+5+7")
		})

		Convey("Valid rejects negative components", func() {
			So(Bounds{X: 0, Y: 0, Width: 1, Height: 1}.Valid(), ShouldBeTrue)
			So(Bounds{X: -1, Y: 0, Width: 1, Height: 1}.Valid(), ShouldBeFalse)
			So(Bounds{X: 0, Y: 0, Width: -1, Height: 1}.Valid(), ShouldBeFalse)
		})
	})
}
