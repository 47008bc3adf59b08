package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stateforward/go-hybrid"
	"github.com/stateforward/go-hybrid/export"
	"github.com/stateforward/go-hybrid/internal/config"
	"github.com/stateforward/go-hybrid/pkg/plantuml"
	"github.com/stateforward/go-hybrid/watertank"
)

func newBuildCommand(a *app) *cobra.Command {
	build := &cobra.Command{
		Use:   "build",
		Short: "Compose the water tank network into one automaton and print it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(cmd)
		},
	}
	flags := build.Flags()
	flags.String("strategy", watertank.Together.String(), "composition order: together, by-type or subsystems")
	flags.Bool("urgent", true, "use controllers with forced transitions")
	flags.String("format", "easy", "output format: "+strings.Join(config.Formats(), ", "))
	_ = a.v.BindPFlag("build.strategy", flags.Lookup("strategy"))
	_ = a.v.BindPFlag("plant.urgent", flags.Lookup("urgent"))
	_ = a.v.BindPFlag("build.format", flags.Lookup("format"))
	return build
}

func (a *app) build(cmd *cobra.Command) error {
	strategy, err := watertank.ParseStrategy(a.cfg.Build.Strategy)
	if err != nil {
		return err
	}
	system, location, err := watertank.System(a.cfg.Plant, strategy,
		hybrid.WithLogger(a.logger),
		hybrid.WithContext(cmd.Context()),
	)
	if err != nil {
		return err
	}
	request, err := watertank.Request(system, location, a.cfg.Plant, a.cfg.Analysis)
	if err != nil {
		return fmt.Errorf("analysis request: %w", err)
	}
	a.logger.Info("built system",
		"name", system.Name(),
		"strategy", strategy,
		"location", location,
		"modes", len(system.Modes()),
		"transitions", len(system.Transitions()),
		"variables", len(request.Domain),
		"safety_constraints", len(request.Safety),
	)
	return write(cmd.OutOrStdout(), a.cfg.Build.Format, system)
}

func write(w io.Writer, format string, system *hybrid.Component) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(w, system.String())
		return err
	case "easy":
		_, err := fmt.Fprintln(w, hybrid.EasyRead(system.String()))
		return err
	case "plantuml":
		return plantuml.Generate(w, system)
	case "yaml":
		return export.YAML(w, system)
	case "msgpack":
		data, err := export.MsgPack(system)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
