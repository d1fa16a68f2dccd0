package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// The swap-instruction schema ships inside the binary so validation never
// depends on a deploy-time file path.
//
//go:embed instruction-schema.json
var swapSchemaBytes []byte

var swapSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(swapSchemaBytes))
	if err != nil {
		panic(fmt.Sprintf("embedded swap instruction schema is invalid: %v", err))
	}
	swapSchema = schema
}

// ValidateInstruction checks raw JSON against the swap-instruction schema.
// Every violation is reported, not just the first.
func ValidateInstruction(data []byte) error {
	result, err := swapSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("swap instruction is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("swap instruction rejected by schema: %s", strings.Join(violations, "; "))
}

// ValidateInstructionStruct runs the schema over an already-parsed instruction.
func ValidateInstructionStruct(inst *SwapInstruction) error {
	data, err := inst.ToJSON()
	if err != nil {
		return fmt.Errorf("serialize swap instruction: %w", err)
	}
	return ValidateInstruction(data)
}
