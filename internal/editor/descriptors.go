package editor

import (
	"context"
	"fmt"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/formstate"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/store"
)

// Descriptor binds one entity kind to its defaults, validation rules and
// remote operations. The controller looks a descriptor up by kind instead
// of branching on the kind itself.
type Descriptor struct {
	Label    string
	Defaults models.Record
	Rules    map[string]formstate.Rule
	// Check validates rules spanning several fields. It may be nil.
	Check   func(data models.Record) map[string]string
	Create  func(ctx context.Context, data models.Record) (models.Record, error)
	Update  func(ctx context.Context, id int64, data models.Record) (models.Record, error)
	Delete  func(ctx context.Context, id int64) error
	Refresh func(ctx context.Context) error
}

// validate runs the field rules and then Check, returning a
// *formstate.ValidationError or nil.
func (d Descriptor) validate(data models.Record) error {
	errs := formstate.Validate(data, d.Rules)
	if d.Check != nil {
		for field, msg := range d.Check(data) {
			if _, taken := errs[field]; !taken {
				errs[field] = msg
			}
		}
	}
	return formstate.NewValidationError(errs)
}

// Remote is the part of the API client entity mutations go through.
type Remote interface {
	CreateEntity(ctx context.Context, kind models.Kind, data models.Record) (models.Record, error)
	UpdateEntity(ctx context.Context, kind models.Kind, id int64, data models.Record) (models.Record, error)
	DeleteEntity(ctx context.Context, kind models.Kind, id int64) error
}

// Descriptors builds the descriptor table of every kind in models.AllKinds,
// mutating through remote and refreshing the matching store of stores.
// The table has no local checks: drafts go to the backend as they are and
// a rejection is reported as a failed save. See WithFormChecks.
func Descriptors(remote Remote, stores *store.Registry) map[models.Kind]Descriptor {
	out := make(map[models.Kind]Descriptor, len(models.AllKinds))
	for _, kind := range models.AllKinds {
		st := stores.Get(kind)
		out[kind] = Descriptor{
			Label:    kind.Label(),
			Defaults: DefaultRecord(kind),
			Create: func(ctx context.Context, data models.Record) (models.Record, error) {
				return remote.CreateEntity(ctx, kind, data)
			},
			Update: func(ctx context.Context, id int64, data models.Record) (models.Record, error) {
				return remote.UpdateEntity(ctx, kind, id, data)
			},
			Delete: func(ctx context.Context, id int64) error {
				return remote.DeleteEntity(ctx, kind, id)
			},
			Refresh: st.Refresh,
		}
	}
	return out
}

// WithFormChecks returns a copy of table whose descriptors validate a draft
// before any remote call: required fields, numeric ranges and the
// cross-field checks of solvers and parameter definitions. A draft that
// fails never reaches Create or Update.
func WithFormChecks(table map[models.Kind]Descriptor) map[models.Kind]Descriptor {
	out := make(map[models.Kind]Descriptor, len(table))
	for kind, d := range table {
		d.Rules = rulesFor(kind)
		d.Check = checks[kind]
		out[kind] = d
	}
	return out
}

// DefaultRecord returns a fresh draft for a new entity of kind.
func DefaultRecord(kind models.Kind) models.Record {
	sort := constants.DefaultSort
	switch kind {
	case models.KindProject:
		return models.Record{"name": "", "code": "", "sort": sort}
	case models.KindSimType:
		return models.Record{"name": "", "code": "", "category": "STRUCTURE", "colorTag": "blue", "sort": sort}
	case models.KindParamDef:
		return models.Record{"name": "", "key": "", "valType": 1, "unit": "", "minVal": 0, "maxVal": 100, "sort": sort}
	case models.KindSolver:
		return models.Record{
			"name":           "",
			"code":           "",
			"version":        "2024",
			"cpuCoreMin":     1,
			"cpuCoreMax":     64,
			"cpuCoreDefault": 8,
			"sort":           sort,
		}
	case models.KindConditionDef:
		return models.Record{"name": "", "code": "", "category": "", "unit": "", "sort": sort}
	case models.KindOutputDef:
		return models.Record{"name": "", "code": "", "unit": "", "dataType": "float", "sort": sort}
	case models.KindFoldType:
		return models.Record{"name": "", "code": "", "angle": 0, "sort": sort}
	default:
		return models.Record{}
	}
}

func rulesFor(kind models.Kind) map[string]formstate.Rule {
	rules := map[string]formstate.Rule{
		models.FieldName: {Required: true},
		models.FieldSort: {Min: formstate.Bound(0)},
	}
	switch kind {
	case models.KindProject:
	case models.KindParamDef:
		rules["key"] = formstate.Rule{Required: true}
	case models.KindSolver:
		rules[models.FieldCode] = formstate.Rule{Required: true}
		for _, f := range []string{"cpuCoreMin", "cpuCoreMax", "cpuCoreDefault"} {
			rules[f] = formstate.Rule{Required: true, Min: formstate.Bound(1)}
		}
	case models.KindFoldType:
		rules[models.FieldCode] = formstate.Rule{Required: true}
		rules["angle"] = formstate.Rule{Min: formstate.Bound(-360), Max: formstate.Bound(360)}
	default:
		rules[models.FieldCode] = formstate.Rule{Required: true}
	}
	return rules
}

var checks = map[models.Kind]func(models.Record) map[string]string{
	models.KindSolver:   checkSolverCores,
	models.KindParamDef: checkParamRange,
}

func checkSolverCores(data models.Record) map[string]string {
	errs := map[string]string{}
	lo, okLo := data.Float("cpuCoreMin")
	hi, okHi := data.Float("cpuCoreMax")
	def, okDef := data.Float("cpuCoreDefault")
	if okLo && okHi && lo > hi {
		errs["cpuCoreMax"] = fmt.Sprintf("不能小于最小核数 %s", data.String("cpuCoreMin"))
	}
	if okDef && okLo && def < lo {
		errs["cpuCoreDefault"] = fmt.Sprintf("不能小于最小核数 %s", data.String("cpuCoreMin"))
	} else if okDef && okHi && def > hi {
		errs["cpuCoreDefault"] = fmt.Sprintf("不能大于最大核数 %s", data.String("cpuCoreMax"))
	}
	return errs
}

func checkParamRange(data models.Record) map[string]string {
	lo, okLo := data.Float("minVal")
	hi, okHi := data.Float("maxVal")
	if okLo && okHi && lo > hi {
		return map[string]string{"maxVal": fmt.Sprintf("不能小于最小值 %s", data.String("minVal"))}
	}
	return nil
}
