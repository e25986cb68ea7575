// Package shell implements the interactive control surface of the
// enclosure. Every component failure is rendered at the dispatch boundary
// as a warning; none terminates the session.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/openobs/enclosure/board"
	"github.com/openobs/enclosure/config"
	"github.com/openobs/enclosure/messaging"
	"github.com/openobs/enclosure/scheduler"
	"github.com/openobs/enclosure/sensors"
	"github.com/openobs/enclosure/store"
)

// errExit signals an orderly end of the command loop.
var errExit = errors.New("exit")

// Params collects everything a Shell needs.
type Params struct {
	Config    *config.Config
	Conns     *board.Conns
	Relays    *board.Relays
	Store     store.Store
	Publisher messaging.Publisher
	Logger    golog.Logger
	Out       io.Writer
	// Simulate swaps the hardware drivers for fabricated ones.
	Simulate    bool
	HistoryPath string
}

// Validate checks that p contains all required parameters.
func (p Params) Validate() error {
	if p.Config == nil {
		return errors.New("missing required parameter config")
	}
	if p.Conns == nil {
		return errors.New("missing required parameter conns")
	}
	if p.Relays == nil {
		return errors.New("missing required parameter relays")
	}
	if p.Store == nil {
		return errors.New("missing required parameter store")
	}
	if p.Publisher == nil {
		return errors.New("missing required parameter publisher")
	}
	if p.Logger == nil {
		return errors.New("missing required parameter logger")
	}
	if p.Out == nil {
		return errors.New("missing required parameter out")
	}
	return nil
}

// Shell dispatches interactive commands to the enclosure's components. It
// owns the polling registry, the scheduler, and the loaded sensor drivers.
type Shell struct {
	cfg      *config.Config
	conns    *board.Conns
	relays   *board.Relays
	store    store.Store
	pub      messaging.Publisher
	logger   golog.Logger
	out      io.Writer
	simulate bool

	registry *sensors.Registry
	sched    *scheduler.Scheduler
	history  *history

	mu      sync.Mutex
	drivers map[sensors.Kind]sensors.Sensor
}

// New returns a shell with an empty polling registry and an idle scheduler.
func New(p Params) (*Shell, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	historyPath := p.HistoryPath
	if historyPath == "" {
		historyPath = p.Config.HistoryFile
	}
	s := &Shell{
		cfg:      p.Config,
		conns:    p.Conns,
		relays:   p.Relays,
		store:    p.Store,
		pub:      p.Publisher,
		logger:   p.Logger,
		out:      p.Out,
		simulate: p.Simulate,
		registry: sensors.NewRegistry(),
		history:  newHistory(historyPath, p.Logger),
		drivers:  map[sensors.Kind]sensors.Sensor{},
	}
	s.sched = scheduler.New(s.registry, s, p.Logger)
	return s, nil
}

// Sensor implements scheduler.Source.
func (s *Shell) Sensor(kind sensors.Kind) (sensors.Sensor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[kind]
	return driver, ok
}

// Registry exposes the polling registry, mainly for tests.
func (s *Shell) Registry() *sensors.Registry {
	return s.registry
}

// Run reads commands from in until exit or EOF, then shuts the enclosure
// down in an orderly way.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	s.history.load()
	byName := map[string]command{}
	for _, cmd := range s.commands() {
		byName[cmd.name] = cmd
	}

	fmt.Fprintf(s.out, "%s enclosure control. Type help for commands.\n", s.cfg.Name)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "enclosure> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.history.append(line)

		fields := strings.Fields(line)
		cmd, ok := byName[fields[0]]
		if !ok {
			fmt.Fprintf(s.out, "unknown command %q, type help for a list\n", fields[0])
			continue
		}
		err := cmd.run(ctx, fields[1:])
		if errors.Is(err, errExit) {
			break
		}
		if err != nil {
			fmt.Fprintf(s.out, "warning: %v\n", err)
		}
	}

	s.shutdown(ctx)
	s.history.save()
	return scanner.Err()
}

// shutdown stops polling, waits for in-flight captures, and releases every
// resource the shell holds.
func (s *Shell) shutdown(ctx context.Context) {
	if err := s.sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotRunning) {
		s.logger.Warnw("error stopping scheduler", "error", err)
	}

	s.mu.Lock()
	drivers := s.drivers
	s.drivers = map[sensors.Kind]sensors.Sensor{}
	s.mu.Unlock()
	for kind, driver := range drivers {
		if err := driver.Close(ctx); err != nil {
			s.logger.Warnw("error closing sensor", "sensor", kind, "error", err)
		}
	}

	if err := s.conns.Close(); err != nil {
		s.logger.Warnw("error closing board connections", "error", err)
	}
	s.pub.Close()
	if err := s.store.Close(ctx); err != nil {
		s.logger.Warnw("error closing store", "error", err)
	}
	fmt.Fprintln(s.out, "bye")
}

func (s *Shell) setDriver(driver sensors.Sensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[driver.Kind()] = driver
}

func (s *Shell) loadedKinds() []sensors.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]sensors.Kind, 0, len(s.drivers))
	for k := range s.drivers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
