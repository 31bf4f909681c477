package bxilog

import "github.com/sdahmani/bxibase/internal/levels"

// Level is one of the twelve ordered severities, most to least severe.
type Level = levels.Level

// The twelve severities, most to least severe. Output sits above Info and
// is meant for normal user-visible program output that should also reach
// the log.
const (
	Panic    = levels.Panic
	Alert    = levels.Alert
	Critical = levels.Critical
	Error    = levels.Error
	Warning  = levels.Warning
	Notice   = levels.Notice
	Output   = levels.Output
	Info     = levels.Info
	Debug    = levels.Debug
	Fine     = levels.Fine
	Trace    = levels.Trace
	Lowest   = levels.Lowest
)

// AllLevelNames returns the ordered canonical severity names, most to least
// severe, for use in CLI help text and configuration diagnostics.
func AllLevelNames() []string {
	return levels.AllNames()
}

// LevelFromName parses a case-insensitive level name, including the aliases
// panic|emergency, critical|crit, error|err, warning|warn, output|out. On
// failure it returns (Lowest, *Error) with kind BadLevelName.
func LevelFromName(name string) (Level, error) {
	l, ok := levels.FromName(name)
	if !ok {
		return levels.Lowest, NewError("LevelFromName", KindBadLevelName, "unknown level name: "+name)
	}
	return l, nil
}
