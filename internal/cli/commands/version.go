package commands

import (
	"github.com/spf13/cobra"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Built   string `json:"built" yaml:"built"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display arcview version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := VersionInfo{Version: version, Commit: commit, Built: date}
			r := NewCommandContext(cmd).Renderer
			if structured, err := r.Structured(info); structured || err != nil {
				return err
			}
			r.Printf("arcview v%s\n", info.Version)
			r.Printf("commit %s, built %s\n", info.Commit, info.Built)
			return nil
		},
	}
}
