package schemas

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseFromJSON parses a SwapInstruction from JSON bytes
func ParseFromJSON(data []byte) (*SwapInstruction, error) {
	var instruction SwapInstruction
	if err := json.Unmarshal(data, &instruction); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := instruction.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &instruction, nil
}

// ParseFromQueryParams parses a SwapInstruction from URL query parameters
func ParseFromQueryParams(query string) (*SwapInstruction, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query string: %w", err)
	}

	instruction := &SwapInstruction{
		InstructionType: values.Get("type"),
		SchemaVersion:   values.Get("version"),
		Sender:          values.Get("sender"),
		Recipient:       values.Get("recipient"),
		TokenIn:         values.Get("token_in"),
		TokenOut:        values.Get("token_out"),
		Mode:            values.Get("mode"),
		Amount:          values.Get("amount"),
		Limit:           values.Get("limit"),
		NativeLimit:     values.Get("native_limit"),
	}

	if deadlineStr := values.Get("deadline"); deadlineStr != "" {
		deadline, err := strconv.ParseUint(deadlineStr, 10, 64)
		if err != nil {
			return nil, &ValidationError{Field: "deadline", Message: "deadline is not a valid height"}
		}
		instruction.Deadline = deadline
	}

	if err := instruction.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return instruction, nil
}

// ParseFromMemo parses a SwapInstruction from a memo string
// It first tries to parse as JSON, then falls back to URL query parameters
func ParseFromMemo(memo string) (*SwapInstruction, error) {
	memo = strings.TrimSpace(memo)

	if strings.HasPrefix(memo, "{") && strings.HasSuffix(memo, "}") {
		return ParseFromJSON([]byte(memo))
	}

	return ParseFromQueryParams(memo)
}
