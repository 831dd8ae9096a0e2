// Package transform implements document transforms, which are used by the
// editor to treat changes as first-class values, which can be saved, shared,
// and reasoned about.
package transform

import (
	"errors"

	"github.com/fieldmark/fieldmark/model"
)

// Step objects represent an atomic change. It generally applies only to the
// document it was created for, since the positions stored in it will only make
// sense for that document.
//
// New steps are defined by creating types that implement this interface and
// registering them with a unique JSON-serialization identifier in
// RegisterStep.
type Step interface {
	// Applies this step to the given document, returning a result
	// object that either indicates failure, if the step can not be
	// applied to this document, or indicates success by containing a
	// transformed document.
	Apply(doc *model.Node) StepResult

	// GetMap gets the step map that represents the changes made by this step,
	// and which can be used to transform between positions in the old and the
	// new document.
	GetMap() *StepMap

	// Invert creates an inverted version of this step. Needs the document as
	// it was before the step as argument.
	Invert(doc *model.Node) Step

	// Map this step through a mappable thing, returning either a version of
	// that step with its positions adjusted, or nil if the step was entirely
	// deleted by the mapping.
	Map(mapping Mappable) Step

	// Merge tries to merge this step with another one, to be applied directly
	// after it. Returns the merged step when possible, false if the steps
	// can't be merged.
	Merge(other Step) (Step, bool)

	// ToJSON creates a JSON-serializable representation of this step. The
	// result must have a stepType field matching the identifier the step type
	// was registered under.
	ToJSON() map[string]interface{}
}

// StepResult is the result of applying a step. Contains either a new document
// or a failure value.
type StepResult struct {
	// The transformed document, when the step was applied successfully.
	Doc *model.Node
	// Text providing information about a failed step.
	Failed string
}

// OK creates a successful step result.
func OK(doc *model.Node) StepResult {
	return StepResult{Doc: doc}
}

// Fail creates a failed step result.
func Fail(message string) StepResult {
	return StepResult{Failed: message}
}

// FromReplace calls Node.Replace with the given arguments. Creates a
// successful result if it succeeds, and a failed one if it returns a
// ReplaceError.
func FromReplace(doc *model.Node, from, to int, slice *model.Slice) StepResult {
	replaced, err := doc.Replace(from, to, slice)
	if err != nil {
		return Fail(err.Error())
	}
	return OK(replaced)
}

// StepFromJSONFunc deserializes one registered step type.
type StepFromJSONFunc func(schema *model.Schema, obj map[string]interface{}) (Step, error)

var stepsByID = map[string]StepFromJSONFunc{}

// RegisterStep registers a deserializer for the steps with the given JSON
// identifier. Overwrites any previous registration for that identifier.
func RegisterStep(id string, fn StepFromJSONFunc) {
	stepsByID[id] = fn
}

func init() {
	RegisterStep("replace", ReplaceStepFromJSON)
	RegisterStep("replaceAround", ReplaceAroundStepFromJSON)
	RegisterStep("addMark", AddMarkStepFromJSON)
	RegisterStep("removeMark", RemoveMarkStepFromJSON)
	RegisterStep("setAttrs", SetAttrsStepFromJSON)
}

// StepFromJSON deserializes a step from its JSON representation, dispatching
// on the stepType field.
func StepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	if len(obj) == 0 {
		return nil, errors.New("Invalid input for Step.fromJSON")
	}
	id, _ := obj["stepType"].(string)
	fn, ok := stepsByID[id]
	if !ok {
		return nil, errors.New("No step type " + id + " defined")
	}
	return fn(schema, obj)
}
