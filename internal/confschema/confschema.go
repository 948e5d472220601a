// Package confschema validates merchant offer configurations before they
// are persisted.
//
// Validation runs on the admin write path and in the CLI, never on the
// discount evaluation hot path: the decision engine tolerates malformed
// configuration on its own (it degrades to the empty decision), so the
// schema exists to catch authoring mistakes early, where the merchant can
// still fix them.
package confschema

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// schema is the CUE definition of a valid offer configuration. Both ids
// are required and non-empty. offeredProductId != freeProductId is a
// recommendation enforced separately (DistinctIDs) so legacy blobs with
// equal ids still load.
const schema = `
#Configuration: {
	offeredProductId: string & !=""
	freeProductId:    string & !=""
	// Extra metadata on the blob is tolerated; the resolver ignores it.
	...
}
`

var (
	compileOnce sync.Once
	defValue    cue.Value
	compileErr  error
)

func definition() (cue.Value, error) {
	compileOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schema)
		if err := v.Err(); err != nil {
			compileErr = fmt.Errorf("compile configuration schema: %w", err)
			return
		}
		defValue = v.LookupPath(cue.ParsePath("#Configuration"))
		if err := defValue.Err(); err != nil {
			compileErr = fmt.Errorf("lookup configuration definition: %w", err)
		}
	})
	return defValue, compileErr
}

// FieldError describes one schema violation, positioned by field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every violation found in one blob.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks a raw JSON configuration blob against the schema.
// It returns a *ValidationError listing every violation, or a plain error
// when the blob is not JSON at all.
func Validate(raw []byte) error {
	def, err := definition()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("configuration.json", raw)
	if err != nil {
		return &ValidationError{Fields: []FieldError{{
			Message: fmt.Sprintf("not valid JSON: %v", err),
		}}}
	}

	ctx := def.Context()
	val := ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return &ValidationError{Fields: []FieldError{{
			Message: err.Error(),
		}}}
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return &ValidationError{Fields: fieldErrors(err)}
	}
	return nil
}

// fieldErrors flattens a CUE error list into positioned field errors.
func fieldErrors(err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		format, args := e.Msg()
		out = append(out, FieldError{
			Field:   path,
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	return out
}

// DistinctIDs reports whether the two configured ids differ. Equal ids are
// legal input to the decision engine (it simply matches the same line for
// both roles) but almost certainly a merchant mistake, so the admin
// surface warns on them.
func DistinctIDs(offeredID, freeID string) bool {
	return offeredID != freeID
}
