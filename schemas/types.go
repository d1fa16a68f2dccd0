package schemas

import (
	"encoding/json"

	"github.com/holiman/uint256"
)

// Swap modes.
const (
	ModeExactInput  = "exact_input"
	ModeExactOutput = "exact_output"
)

// NativeAsset is the reserved identity for the native currency side of a pair.
const NativeAsset = "native"

// Instruction represents a generic AMM instruction
type Instruction interface {
	Type() string
	Version() string
	Validate() error
}

// SwapInstruction is the wire form of a swap request. Amounts travel as
// decimal strings so the full 256-bit range survives JSON.
type SwapInstruction struct {
	InstructionType string `json:"type"`
	SchemaVersion   string `json:"version"`
	Sender          string `json:"sender"`
	Recipient       string `json:"recipient,omitempty"`
	TokenIn         string `json:"token_in"`
	TokenOut        string `json:"token_out"`
	Mode            string `json:"mode"`
	Amount          string `json:"amount"`
	Limit           string `json:"limit"`
	NativeLimit     string `json:"native_limit,omitempty"`
	Deadline        uint64 `json:"deadline"`
}

// Type returns the instruction type
func (s SwapInstruction) Type() string {
	return s.InstructionType
}

// Version returns the instruction version
func (s SwapInstruction) Version() string {
	return s.SchemaVersion
}

// Validate performs structural validation on the instruction
func (s SwapInstruction) Validate() error {
	if s.InstructionType != "swap" {
		return &ValidationError{Field: "type", Message: "type must be \"swap\""}
	}
	if s.SchemaVersion == "" {
		return &ValidationError{Field: "version", Message: "version is required"}
	}
	if s.Sender == "" {
		return &ValidationError{Field: "sender", Message: "sender is required"}
	}
	if s.TokenIn == "" {
		return &ValidationError{Field: "token_in", Message: "token_in is required"}
	}
	if s.TokenOut == "" {
		return &ValidationError{Field: "token_out", Message: "token_out is required"}
	}
	if s.TokenIn == s.TokenOut {
		return &ValidationError{Field: "token_out", Message: "token_in and token_out must differ"}
	}
	if s.Mode != ModeExactInput && s.Mode != ModeExactOutput {
		return &ValidationError{Field: "mode", Message: "mode must be exact_input or exact_output"}
	}
	if err := checkAmount("amount", s.Amount, true); err != nil {
		return err
	}
	if err := checkAmount("limit", s.Limit, true); err != nil {
		return err
	}
	if err := checkAmount("native_limit", s.NativeLimit, false); err != nil {
		return err
	}
	return nil
}

func checkAmount(field, value string, required bool) error {
	if value == "" {
		if required {
			return &ValidationError{Field: field, Message: field + " is required"}
		}
		return nil
	}
	if _, err := uint256.FromDecimal(value); err != nil {
		return &ValidationError{Field: field, Message: field + " is not a valid decimal amount"}
	}
	return nil
}

// ToJSON serializes the instruction to JSON bytes
func (s SwapInstruction) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
