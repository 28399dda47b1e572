package commands

// Generates a systemd unit wiring the continuous run with auto-restart.
// Operational convenience only; the unit is printed or written, never
// installed.

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
)

var (
	flagUnitOutput string
	flagUnitUser   string
)

const unitTemplate = `[Unit]
Description=wallet-watch entity wallet monitor
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
{{- if .User}}
User={{.User}}
{{- end}}
WorkingDirectory={{.WorkingDir}}
ExecStart={{.Binary}}{{if .Config}} --config={{.Config}}{{end}}
Restart=on-failure
RestartSec=30

[Install]
WantedBy=multi-user.target
`

var systemdCmd = &cobra.Command{
	Use:   "systemd",
	Short: "Generate a systemd unit file for continuous operation",
	RunE:  runSystemd,
}

func init() {
	systemdCmd.Flags().StringVarP(&flagUnitOutput, "output", "o", "", "Write the unit file here instead of stdout")
	systemdCmd.Flags().StringVar(&flagUnitUser, "user", "", "Run the service as this user")
}

type unitParams struct {
	User       string
	WorkingDir string
	Binary     string
	Config     string
}

func runSystemd(cmd *cobra.Command, args []string) error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	cfgPath := flagConfig
	if cfgPath != "" {
		if cfgPath, err = filepath.Abs(cfgPath); err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	params := unitParams{
		User:       flagUnitUser,
		WorkingDir: wd,
		Binary:     binary,
		Config:     cfgPath,
	}

	tmpl := template.Must(template.New("unit").Parse(unitTemplate))

	out := cmd.OutOrStdout()
	if flagUnitOutput != "" {
		f, err := os.Create(flagUnitOutput)
		if err != nil {
			return fmt.Errorf("failed to create unit file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := tmpl.Execute(out, params); err != nil {
		return fmt.Errorf("failed to render unit file: %w", err)
	}
	if flagUnitOutput != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flagUnitOutput)
	}
	return nil
}
