package config

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/ports"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
var nodeKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

var validRuntimeClasses = map[string]bool{
	string(ports.RuntimeClassPython):   true,
	string(ports.RuntimeClassDatabase): true,
}

// validatorInstance returns the process-wide validator.Validate, registering
// the manifest's custom field validators exactly once.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("semver", validateSemver)
		_ = v.RegisterValidation("schema_ref", validateSchemaRef)
		_ = v.RegisterValidation("runtime_class", validateRuntimeClass)
		_ = v.RegisterValidation("node_key", validateNodeKey)
		validatorInst = v
	})
	return validatorInst
}

func validateSemver(fl validator.FieldLevel) bool {
	return semverPattern.MatchString(fl.Field().String())
}

func validateSchemaRef(fl validator.FieldLevel) bool {
	return block.NewSchema(fl.Field().String()).Valid()
}

func validateRuntimeClass(fl validator.FieldLevel) bool {
	return validRuntimeClasses[fl.Field().String()]
}

func validateNodeKey(fl validator.FieldLevel) bool {
	return nodeKeyPattern.MatchString(fl.Field().String())
}
