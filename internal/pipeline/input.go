package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// claimsFile is the on-disk input format: a wrapper object so the format
// can grow fields without breaking existing files.
type claimsFile struct {
	Claims []ClaimInput `json:"claims"`
}

// LoadClaimsFile reads a claims JSON file. Both the wrapper form
// {"claims":[...]} and a bare top-level array are accepted.
func LoadClaimsFile(path string) ([]ClaimInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claims file: %w", err)
	}

	var wrapped claimsFile
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Claims != nil {
		return validateInputs(path, wrapped.Claims)
	}

	var bare []ClaimInput
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parse claims file %s: %w", path, err)
	}
	return validateInputs(path, bare)
}

func validateInputs(path string, inputs []ClaimInput) ([]ClaimInput, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("claims file %s contains no claims", path)
	}
	for i, input := range inputs {
		if input.Claim.Text == "" {
			return nil, fmt.Errorf("claims file %s: claim %d has empty text", path, i)
		}
	}
	return inputs, nil
}
