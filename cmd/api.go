package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/teamg-play/mpvhost/bridge"
	"github.com/teamg-play/mpvhost/player"
)

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.AddCommand(apiSchemaCmd)

	apiSchemaCmd.Flags().BoolP("request", "r", false, "Generate the schema for playback requests instead of command results")
	apiSchemaCmd.SetOut(os.Stdout)
}

// apiCmd groups machine-readable descriptions of the control surface exposed
// to embedding UIs.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Inspect the machine-readable playback control contract",
}

// apiSchemaCmd generates JSON schemas for the bridge command payloads.
var apiSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for bridge command payloads and results",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "request", "bounds", "result":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("request")):
			schema = reflector.Reflect(&player.Request{})
		default:
			schema = reflector.Reflect(&bridge.Result{})
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(schema))
	},
}
