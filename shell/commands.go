package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/openobs/enclosure/board"
	"github.com/openobs/enclosure/sensors"
	"github.com/openobs/enclosure/sensors/aag"
	"github.com/openobs/enclosure/sensors/fake"
	"github.com/openobs/enclosure/sensors/telemetry"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

func (s *Shell) commands() []command {
	return []command{
		{"status", "status", "show scheduler, sensor, and board status", s.runStatus},
		{"last_reading", "last_reading <device>", "show the most recent reading for a device", s.runLastReading},
		{"enable_sensor", "enable_sensor <name> [delay_seconds]", "enable a sensor for polling", s.runEnableSensor},
		{"disable_sensor", "disable_sensor <name>", "disable a sensor", s.runDisableSensor},
		{"change_delay", "change_delay <name> <seconds>", "change a sensor's polling delay", s.runChangeDelay},
		{"toggle_debug", "toggle_debug <name>", "toggle verbose logging for a loaded sensor", s.runToggleDebug},
		{"display_config", "display_config", "print the loaded configuration", s.runDisplayConfig},
		{"load_all", "load_all", "load every sensor driver", s.runLoadAll},
		{"load_environment", "load_environment", "load the environment sensor driver", s.runLoadEnvironment},
		{"load_weather", "load_weather", "load the weather sensor driver", s.runLoadWeather},
		{"toggle_relay", "toggle_relay <name>", "toggle a power relay", s.runToggleRelay},
		{"toggle_computer", "toggle_computer", "power cycle the control computer", s.runToggleComputer},
		{"start", "start", "start polling the enabled sensors", s.runStart},
		{"stop", "stop", "stop polling", s.runStop},
		{"shell", "shell <cmd...>", "run a host command", s.runShell},
		{"help", "help", "show this help", s.runHelp},
		{"exit", "exit", "stop polling and leave", s.runExit},
	}
}

func (s *Shell) runStatus(ctx context.Context, args []string) error {
	fmt.Fprintf(s.out, "polling:   %v\n", s.sched.Running())
	fmt.Fprintf(s.out, "topology:  %s\n", s.relays.Topology())

	names := s.conns.Names()
	boards := make([]string, 0, len(names))
	for _, n := range names {
		boards = append(boards, string(n))
	}
	fmt.Fprintf(s.out, "connected: %s\n", strings.Join(boards, ", "))

	loaded := s.loadedKinds()
	for _, kind := range sensors.KnownKinds() {
		line := fmt.Sprintf("%-12s", kind)
		if delay, ok := s.registry.Delay(kind); ok {
			line += fmt.Sprintf(" active, delay %s", delay)
		} else {
			line += " inactive"
		}
		isLoaded := false
		for _, l := range loaded {
			if l == kind {
				isLoaded = true
			}
		}
		if !isLoaded {
			line += ", not loaded"
		}
		if reading, err := s.store.GetCurrent(ctx, string(kind)); err == nil {
			line += fmt.Sprintf(", last reading %s ago", reading.Age().Round(time.Second))
		}
		fmt.Fprintln(s.out, line)
	}
	return nil
}

func (s *Shell) runLastReading(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: last_reading <device>")
	}
	kind, err := sensors.KindFromName(args[0])
	if err != nil {
		return err
	}
	reading, err := s.store.GetCurrent(ctx, string(kind))
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(reading.Data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s (%s ago)\n%s\n", reading.Time.Format("2006-01-02 15:04:05 MST"),
		reading.Age().Round(time.Second), pretty)
	return nil
}

func (s *Shell) runEnableSensor(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: enable_sensor <name> [delay_seconds]")
	}
	kind, err := sensors.KindFromName(args[0])
	if err != nil {
		return err
	}
	delay := sensors.DefaultDelay(kind)
	if len(args) == 2 {
		secs, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return errors.Wrapf(sensors.ErrInvalidDelay, "%q", args[1])
		}
		if delay, err = sensors.DelayFromSeconds(secs); err != nil {
			return err
		}
	}
	if err := s.registry.Enable(kind, delay); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s enabled with delay %s\n", kind, delay)
	return nil
}

func (s *Shell) runDisableSensor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: disable_sensor <name>")
	}
	kind, err := sensors.KindFromName(args[0])
	if err != nil {
		return err
	}
	if err := s.registry.Disable(kind); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s disabled\n", kind)
	return nil
}

func (s *Shell) runChangeDelay(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: change_delay <name> <seconds>")
	}
	kind, err := sensors.KindFromName(args[0])
	if err != nil {
		return err
	}
	secs, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Wrapf(sensors.ErrInvalidDelay, "%q", args[1])
	}
	delay, err := sensors.DelayFromSeconds(secs)
	if err != nil {
		return err
	}
	if err := s.registry.ChangeDelay(kind, delay); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s delay set to %s, takes effect on its next cycle\n", kind, delay)
	return nil
}

func (s *Shell) runToggleDebug(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: toggle_debug <name>")
	}
	kind, err := sensors.KindFromName(args[0])
	if err != nil {
		return err
	}
	driver, ok := s.Sensor(kind)
	if !ok {
		return errors.Errorf("sensor %q is not loaded", kind)
	}
	if driver.ToggleDebug() {
		fmt.Fprintf(s.out, "%s debug logging on\n", kind)
	} else {
		fmt.Fprintf(s.out, "%s debug logging off\n", kind)
	}
	return nil
}

func (s *Shell) runDisplayConfig(ctx context.Context, args []string) error {
	pretty, err := yaml.Marshal(s.cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s", pretty)
	return nil
}

func (s *Shell) runLoadAll(ctx context.Context, args []string) error {
	return multierr.Combine(
		s.runLoadEnvironment(ctx, nil),
		s.runLoadWeather(ctx, nil),
	)
}

func (s *Shell) runLoadEnvironment(ctx context.Context, args []string) error {
	if s.simulate {
		s.setDriver(fake.New(sensors.KindEnvironment, s.store, s.pub, s.logger))
		fmt.Fprintln(s.out, "environment sensor loaded (simulated)")
		return nil
	}

	opened := 0
	for _, bc := range []struct {
		name board.Name
		port string
		baud uint
	}{
		{board.Telemetry, s.cfg.Environment.Telemetry.Port, s.cfg.Environment.Telemetry.Baud},
		{board.Camera, s.cfg.Environment.Camera.Port, s.cfg.Environment.Camera.Baud},
		{board.Power, s.cfg.Environment.Power.Port, s.cfg.Environment.Power.Baud},
	} {
		if bc.port == "" || s.conns.Connected(bc.name) {
			continue
		}
		conn, err := board.Open(bc.port, bc.baud)
		if err != nil {
			s.logger.Warnw("cannot open board", "board", bc.name, "port", bc.port, "error", err)
			continue
		}
		s.conns.Add(bc.name, conn)
		opened++
	}
	if opened == 0 && len(s.conns.Names()) == 0 {
		return errors.New("no environment boards could be opened")
	}

	s.setDriver(telemetry.New(s.conns, s.store, s.pub, s.logger))
	fmt.Fprintln(s.out, "environment sensor loaded")
	return nil
}

func (s *Shell) runLoadWeather(ctx context.Context, args []string) error {
	if s.simulate {
		s.setDriver(fake.New(sensors.KindWeather, s.store, s.pub, s.logger))
		fmt.Fprintln(s.out, "weather sensor loaded (simulated)")
		return nil
	}

	aagCfg := aag.DefaultConfig()
	if err := s.cfg.Weather.AAGCloud.Attributes.Decode(&aagCfg); err != nil {
		return errors.Wrap(err, "bad weather attributes")
	}

	if !s.conns.Connected(board.Weather) {
		conn, err := board.Open(s.cfg.WeatherSerialPort(), 0)
		if err != nil {
			return errors.Wrap(err, "cannot open weather sensor")
		}
		s.conns.Add(board.Weather, conn)
	}
	s.setDriver(aag.New(aagCfg, s.conns, s.store, s.pub, s.logger))
	fmt.Fprintln(s.out, "weather sensor loaded")
	return nil
}

func (s *Shell) runToggleRelay(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: toggle_relay <name>")
	}
	if err := s.relays.Toggle(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "relay %s toggled\n", args[0])
	return nil
}

func (s *Shell) runToggleComputer(ctx context.Context, args []string) error {
	if err := s.relays.ToggleComputer(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "computer power cycle sent")
	return nil
}

func (s *Shell) runStart(ctx context.Context, args []string) error {
	if err := s.sched.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "polling started")
	return nil
}

func (s *Shell) runStop(ctx context.Context, args []string) error {
	if err := s.sched.Stop(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "polling stopped")
	return nil
}

func (s *Shell) runShell(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: shell <cmd...>")
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", strings.Join(args, " "))
	cmd.Stdout = s.out
	cmd.Stderr = s.out
	return cmd.Run()
}

func (s *Shell) runHelp(ctx context.Context, args []string) error {
	for _, cmd := range s.commands() {
		fmt.Fprintf(s.out, "  %-40s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func (s *Shell) runExit(ctx context.Context, args []string) error {
	return errExit
}

