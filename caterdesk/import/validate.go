package imports

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/caterdesk/caterdesk/internal/validation"
	"github.com/caterdesk/caterdesk/types"
)

// documentShape lists exactly what an import file must contain. Values are
// checked as decoded JSON so a wrong type is a problem, not a parse error.
type documentShape struct {
	Dishes   interface{} `json:"dishes" validate:"required,recordlist"`
	Clients  interface{} `json:"clients" validate:"required,recordlist"`
	Events   interface{} `json:"events" validate:"required,recordlist"`
	Settings interface{} `json:"settings" validate:"omitempty,jsonobject"`
}

// Validate checks that data is a JSON object whose dishes, clients and
// events are arrays of objects. settings may be absent; other keys are
// ignored.
func Validate(data []byte) ValidationResult {
	var top interface{}
	if err := json.Unmarshal(data, &top); err != nil {
		return ValidationResult{Problems: []string{fmt.Sprintf("not valid JSON: %v", err)}}
	}
	obj, ok := top.(map[string]interface{})
	if !ok {
		return ValidationResult{Problems: []string{"top level must be an object"}}
	}

	shape := documentShape{
		Dishes:   obj["dishes"],
		Clients:  obj["clients"],
		Events:   obj["events"],
		Settings: obj["settings"],
	}
	if err := validation.Struct(shape); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return ValidationResult{Problems: verr.Problems}
		}
		return ValidationResult{Problems: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}

// recordWarnings checks every record against its field rules
func recordWarnings(doc *types.Document) []string {
	var warnings []string
	for _, c := range types.Collections {
		for i, rec := range doc.Collection(c) {
			err := validation.Record(c, rec)
			if err == nil {
				continue
			}
			var verr *validation.Error
			if !errors.As(err, &verr) {
				warnings = append(warnings, fmt.Sprintf("%s[%d]: %v", c, i, err))
				continue
			}
			for _, p := range verr.Problems {
				warnings = append(warnings, fmt.Sprintf("%s[%d]: %s", c, i, p))
			}
		}
	}
	return warnings
}
