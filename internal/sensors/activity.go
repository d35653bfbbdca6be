package sensors

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/logging"
)

// Activity labels, coarsest wins last.
const (
	ActivityUnknown   = "Unknown"
	ActivityIdle      = "Idle"
	ActivityGaming    = "Gaming"
	ActivityCoding    = "Coding"
	ActivityStreaming = "Streaming"
	ActivityBrowsing  = "Browsing"
)

// ActivityCategories maps process names to activity labels. Matching is
// case-insensitive on the process name prefix so "code" covers both
// "code" and "code.exe".
type ActivityCategories struct {
	Gaming    []string
	Coding    []string
	Streaming []string
	Browsing  []string
}

func DefaultActivityCategories() ActivityCategories {
	return ActivityCategories{
		Gaming:    []string{"steam", "rocketleague", "valorant", "cs2", "minecraft", "league of legends"},
		Coding:    []string{"code", "goland", "pycharm", "nvim", "sublime_text", "devenv"},
		Streaming: []string{"obs", "obs64", "streamlabs"},
		Browsing:  []string{"chrome", "firefox", "msedge", "brave"},
	}
}

// processLister returns the names of currently running processes.
// Injectable so tests do not scan the real process table.
type processLister func() ([]string, error)

func systemProcessList() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ActivitySensor classifies what the owner is doing from the process
// table and publishes UserActivityChanged on transitions.
type ActivitySensor struct {
	categories ActivityCategories
	events     *bus.Bus
	log        *zap.Logger

	listProcesses processLister
	now           func() time.Time

	mu            sync.Mutex
	lastActivity  string
	lastApp       string
	lastEventTime time.Time
}

// Transitions within this window are suppressed so app switching does
// not spam the bus.
const activityEventCooldown = 30 * time.Second

func NewActivitySensor(categories ActivityCategories, events *bus.Bus) *ActivitySensor {
	return &ActivitySensor{
		categories:    categories,
		events:        events,
		log:           logging.For(logging.CategorySensor),
		listProcesses: systemProcessList,
		now:           time.Now,
		lastActivity:  ActivityUnknown,
	}
}

func (s *ActivitySensor) Name() string { return "activity" }

func (s *ActivitySensor) Context() string {
	activity, app := s.detect()
	s.recordTransition(activity, app)

	if activity == ActivityIdle || activity == ActivityUnknown {
		return "User Activity: Idle"
	}
	return fmt.Sprintf("User Activity: %s (%s)", activity, app)
}

func (s *ActivitySensor) detect() (string, string) {
	names, err := s.listProcesses()
	if err != nil {
		s.log.Warn("process scan failed", zap.Error(err))
		return ActivityUnknown, ""
	}

	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(strings.TrimSuffix(name, ".exe"))
	}

	// Priority: gaming beats streaming beats coding beats browsing, no
	// matter where each process sits in the table.
	checks := []struct {
		label string
		apps  []string
	}{
		{ActivityGaming, s.categories.Gaming},
		{ActivityStreaming, s.categories.Streaming},
		{ActivityCoding, s.categories.Coding},
		{ActivityBrowsing, s.categories.Browsing},
	}
	for _, check := range checks {
		for _, app := range check.apps {
			for i, lower := range lowered {
				if strings.HasPrefix(lower, app) {
					return check.label, names[i]
				}
			}
		}
	}
	return ActivityIdle, ""
}

func (s *ActivitySensor) recordTransition(activity, app string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if activity == s.lastActivity {
		return
	}
	old := s.lastActivity
	s.lastActivity = activity
	s.lastApp = app

	if s.events == nil {
		return
	}
	if s.now().Sub(s.lastEventTime) < activityEventCooldown {
		return
	}
	s.lastEventTime = s.now()

	s.log.Info("user activity changed",
		zap.String("old", old),
		zap.String("new", activity),
		zap.String("app", app))
	_ = s.events.Publish(bus.UserActivityChanged{
		Base:    bus.NewBase(),
		Old:     old,
		New:     activity,
		AppName: app,
	})
}
