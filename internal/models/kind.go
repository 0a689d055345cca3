package models

import (
	"fmt"
	"strings"
)

// Kind selects which configuration entity type an operation works on.
type Kind string

const (
	KindProject      Kind = "project"
	KindSimType      Kind = "simType"
	KindParamDef     Kind = "paramDef"
	KindSolver       Kind = "solver"
	KindConditionDef Kind = "conditionDef"
	KindOutputDef    Kind = "outputDef"
	KindFoldType     Kind = "foldType"
)

// AllKinds lists every entity kind in the order the console presents them.
var AllKinds = []Kind{
	KindProject,
	KindSimType,
	KindSolver,
	KindParamDef,
	KindConditionDef,
	KindOutputDef,
	KindFoldType,
}

type kindInfo struct {
	resource string // REST collection path under the API base URL
	command  string // CLI command group name
	label    string
	baseData string // key of the list in the /config/base-data payload, "" if absent
}

var kinds = map[Kind]kindInfo{
	KindProject:      {"/config/projects", "projects", "project", ""},
	KindSimType:      {"/config/sim-types", "sim-types", "simulation type", "simTypes"},
	KindParamDef:     {"/config/param-defs", "param-defs", "parameter definition", "paramDefs"},
	KindSolver:       {"/config/solvers", "solvers", "solver", "solvers"},
	KindConditionDef: {"/config/condition-defs", "condition-defs", "condition definition", "conditionDefs"},
	KindOutputDef:    {"/config/output-defs", "output-defs", "output definition", "outputDefs"},
	KindFoldType:     {"/config/fold-types", "fold-types", "fold type", "foldTypes"},
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Resource returns the REST collection path, e.g. "/config/solvers".
func (k Kind) Resource() string { return kinds[k].resource }

// Command returns the CLI command group name, e.g. "param-defs".
func (k Kind) Command() string { return kinds[k].command }

// Label returns a human readable singular label.
func (k Kind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return string(k)
}

// BaseDataKey returns the key of this kind in the base-data payload.
func (k Kind) BaseDataKey() string { return kinds[k].baseData }

func (k Kind) String() string { return string(k) }

// ParseKind accepts the tag ("simType"), the command name ("sim-types") or the
// snake_case tag ("sim_type"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		info := kinds[k]
		if norm == strings.ToLower(string(k)) ||
			norm == info.command ||
			norm == strings.TrimSuffix(info.command, "s") ||
			norm == strings.ReplaceAll(strings.TrimSuffix(info.command, "s"), "-", "_") {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}
