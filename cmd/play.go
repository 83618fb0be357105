package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/bridge"
	"github.com/teamg-play/mpvhost/color"
	"github.com/teamg-play/mpvhost/icon"
	"github.com/teamg-play/mpvhost/key"
	"github.com/teamg-play/mpvhost/player"
	"github.com/teamg-play/mpvhost/style"
	"github.com/teamg-play/mpvhost/util"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntP("x", "x", 0, "Window x position")
	playCmd.Flags().IntP("y", "y", 0, "Window y position")
	playCmd.Flags().IntP("width", "W", 1280, "Window width")
	playCmd.Flags().IntP("height", "H", 720, "Window height")
	playCmd.Flags().Float64P("start", "s", 0, "Start position in seconds (overrides resume history)")
	playCmd.Flags().StringP("title", "t", "", "Window title")
	playCmd.Flags().IntP("volume", "V", 0, "Initial playback volume")
	lo.Must0(viper.BindPFlag(key.PlayerVolume, playCmd.Flags().Lookup("volume")))

	playCmd.SetOut(os.Stdout)
}

// playCmd plays a single media URL through a supervised player session until
// the player exits or the command is interrupted.
var playCmd = &cobra.Command{
	Use:   "play <url>",
	Short: "Play a media URL in a supervised external player window",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session := player.NewSession()
		defer session.Close()

		gateway := bridge.New(session)

		fatal := make(chan string, 1)
		unsubscribeErr := gateway.Subscribe(bridge.EventError, func(payload interface{}) {
			if msg, ok := payload.(string); ok {
				select {
				case fatal <- msg:
				default:
				}
			}
		})
		defer unsubscribeErr()

		unsubscribePos := gateway.Subscribe(bridge.EventTimePos, func(payload interface{}) {
			seconds, ok := payload.(float64)
			if !ok {
				return
			}
			width, _, err := util.TerminalSize()
			if err != nil || width < 20 {
				return
			}
			line := fmt.Sprintf("%s %s", icon.Get(icon.Play), formatPosition(seconds))
			fmt.Fprintf(cmd.OutOrStdout(), "\r%-*s", util.Min(width-1, 40), line)
		})
		defer unsubscribePos()

		req := player.Request{
			URL: args[0],
			Bounds: player.Bounds{
				X:      lo.Must(cmd.Flags().GetInt("x")),
				Y:      lo.Must(cmd.Flags().GetInt("y")),
				Width:  lo.Must(cmd.Flags().GetInt("width")),
				Height: lo.Must(cmd.Flags().GetInt("height")),
			},
			Title: lo.Must(cmd.Flags().GetString("title")),
			Start: lo.Must(cmd.Flags().GetFloat64("start")),
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Launching player...", icon.Get(icon.Progress)))
		err := session.Play(req)
		erase()
		handleErr(err)

		cmd.Printf("%s Playing %s\n", icon.Get(icon.Play), style.Fg(color.Cyan)(args[0]))

		// Poll the session rather than consuming its event channel: that
		// channel belongs to the gateway pump.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for session.Active() {
				time.Sleep(250 * time.Millisecond)
			}
		}()

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(interrupt)

		select {
		case <-interrupt:
			cmd.Printf("\n%s Stopping playback\n", icon.Get(icon.Stop))
			gateway.Stop()
		case msg := <-fatal:
			handleErr(fmt.Errorf("playback failed: %s", msg))
		case <-done:
			cmd.Printf("\n%s Player closed\n", icon.Get(icon.Success))
		}
	},
}

func formatPosition(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
