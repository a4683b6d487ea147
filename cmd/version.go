package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionLines renders build metadata as label/value pairs. Unknown builds
// (go run, tests) report a single "unknown" line.
func versionLines(info *debug.BuildInfo, ok bool) [][2]string {
	if !ok || info == nil || info.Main.Version == "" {
		return [][2]string{{"docmig", "unknown"}}
	}

	lines := [][2]string{
		{"docmig", info.Main.Version},
		{"go", info.GoVersion},
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			lines = append(lines, [2]string{"revision", setting.Value})
		case "vcs.modified":
			if setting.Value == "true" {
				lines = append(lines, [2]string{"modified", "yes"})
			}
		}
	}

	return lines
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the docmig build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, line := range versionLines(debug.ReadBuildInfo()) {
				cmd.Printf("%-9s %s\n", line[0], line[1])
			}
		},
	}
}

var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
