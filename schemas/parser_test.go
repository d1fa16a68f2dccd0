package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromJSON(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		expectError bool
		expected    *SwapInstruction
	}{
		{
			name: "valid exact-input swap",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "1000000000000000000",
				"limit": "1",
				"deadline": 500
			}`,
			expected: &SwapInstruction{
				InstructionType: "swap",
				SchemaVersion:   "1.0.0",
				Sender:          "hive:alice",
				TokenIn:         "native",
				TokenOut:        "token:hbd",
				Mode:            ModeExactInput,
				Amount:          "1000000000000000000",
				Limit:           "1",
				Deadline:        500,
			},
		},
		{
			name: "routed swap with recipient and native limit",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"recipient": "hive:bob",
				"token_in": "token:hbd",
				"token_out": "token:btc",
				"mode": "exact_output",
				"amount": "50000",
				"limit": "120000",
				"native_limit": "999999999",
				"deadline": 500
			}`,
			expected: &SwapInstruction{
				InstructionType: "swap",
				SchemaVersion:   "1.0.0",
				Sender:          "hive:alice",
				Recipient:       "hive:bob",
				TokenIn:         "token:hbd",
				TokenOut:        "token:btc",
				Mode:            ModeExactOutput,
				Amount:          "50000",
				Limit:           "120000",
				NativeLimit:     "999999999",
				Deadline:        500,
			},
		},
		{
			name: "missing sender",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "100",
				"limit": "1",
				"deadline": 500
			}`,
			expectError: true,
		},
		{
			name: "same token on both sides",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "token:hbd",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "100",
				"limit": "1",
				"deadline": 500
			}`,
			expectError: true,
		},
		{
			name: "non-decimal amount",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "0x64",
				"limit": "1",
				"deadline": 500
			}`,
			expectError: true,
		},
		{
			name:        "invalid JSON",
			jsonData:    `{invalid json}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFromJSON([]byte(tt.jsonData))

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseFromQueryParams(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectError bool
		expected    *SwapInstruction
	}{
		{
			name:  "valid query params",
			query: "type=swap&version=1.0.0&sender=hive:alice&token_in=native&token_out=token:hbd&mode=exact_input&amount=100&limit=1&deadline=500",
			expected: &SwapInstruction{
				InstructionType: "swap",
				SchemaVersion:   "1.0.0",
				Sender:          "hive:alice",
				TokenIn:         "native",
				TokenOut:        "token:hbd",
				Mode:            ModeExactInput,
				Amount:          "100",
				Limit:           "1",
				Deadline:        500,
			},
		},
		{
			name:  "query with recipient and native limit",
			query: "type=swap&version=1.0.0&sender=hive:alice&recipient=hive:bob&token_in=token:hbd&token_out=token:btc&mode=exact_output&amount=50000&limit=120000&native_limit=999&deadline=500",
			expected: &SwapInstruction{
				InstructionType: "swap",
				SchemaVersion:   "1.0.0",
				Sender:          "hive:alice",
				Recipient:       "hive:bob",
				TokenIn:         "token:hbd",
				TokenOut:        "token:btc",
				Mode:            ModeExactOutput,
				Amount:          "50000",
				Limit:           "120000",
				NativeLimit:     "999",
				Deadline:        500,
			},
		},
		{
			name:        "missing mode",
			query:       "type=swap&version=1.0.0&sender=hive:alice&token_in=native&token_out=token:hbd&amount=100&limit=1&deadline=500",
			expectError: true,
		},
		{
			name:        "bad deadline",
			query:       "type=swap&version=1.0.0&sender=hive:alice&token_in=native&token_out=token:hbd&mode=exact_input&amount=100&limit=1&deadline=soon",
			expectError: true,
		},
		{
			name:        "invalid query format",
			query:       "invalid%query%format",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFromQueryParams(tt.query)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseFromMemo(t *testing.T) {
	want := &SwapInstruction{
		InstructionType: "swap",
		SchemaVersion:   "1.0.0",
		Sender:          "hive:alice",
		TokenIn:         "native",
		TokenOut:        "token:hbd",
		Mode:            ModeExactInput,
		Amount:          "100",
		Limit:           "1",
		Deadline:        500,
	}

	memos := []struct {
		name string
		memo string
	}{
		{
			name: "JSON format",
			memo: `{"type":"swap","version":"1.0.0","sender":"hive:alice","token_in":"native","token_out":"token:hbd","mode":"exact_input","amount":"100","limit":"1","deadline":500}`,
		},
		{
			name: "URL query format",
			memo: "type=swap&version=1.0.0&sender=hive:alice&token_in=native&token_out=token:hbd&mode=exact_input&amount=100&limit=1&deadline=500",
		},
		{
			name: "whitespace trimmed",
			memo: "  type=swap&version=1.0.0&sender=hive:alice&token_in=native&token_out=token:hbd&mode=exact_input&amount=100&limit=1&deadline=500  ",
		},
	}

	for _, tt := range memos {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFromMemo(tt.memo)
			require.NoError(t, err)
			assert.Equal(t, want, result)
		})
	}
}

func TestValidateInstruction(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		expectError bool
	}{
		{
			name: "valid instruction",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "100",
				"limit": "1",
				"deadline": 500
			}`,
		},
		{
			name: "missing deadline",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "100",
				"limit": "1"
			}`,
			expectError: true,
		},
		{
			name: "unknown mode",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "market",
				"amount": "100",
				"limit": "1",
				"deadline": 500
			}`,
			expectError: true,
		},
		{
			name: "amount must be a decimal string",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": 100,
				"limit": "1",
				"deadline": 500
			}`,
			expectError: true,
		},
		{
			name: "unexpected extra field",
			jsonData: `{
				"type": "swap",
				"version": "1.0.0",
				"sender": "hive:alice",
				"token_in": "native",
				"token_out": "token:hbd",
				"mode": "exact_input",
				"amount": "100",
				"limit": "1",
				"deadline": 500,
				"ref_bps": 10
			}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstruction([]byte(tt.jsonData))

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
