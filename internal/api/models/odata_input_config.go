package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"odatanode/internal/odata"
)

// Settings keys of the OData input node
const (
	KeySelectedColumns = "selected_columns"
	KeyApplyTopN       = "apply_top_n"
	KeyTopNValue       = "top_n_value"
)

const (
	DefaultApplyTopN = false
	DefaultTopNValue = 10
)

// ODataInputConfig is the persisted configuration of an odata_input node
type ODataInputConfig struct {
	// SelectedColumns product properties to retrieve, in output order
	SelectedColumns []string `json:"selected_columns"`
	// ApplyTopN caps the number of products when true
	ApplyTopN bool `json:"apply_top_n"`
	// TopNValue is only considered when ApplyTopN is set
	TopNValue int `json:"top_n_value"`
}

func DefaultODataInputConfig() ODataInputConfig {
	return ODataInputConfig{
		SelectedColumns: odata.DefaultFields(),
		ApplyTopN:       DefaultApplyTopN,
		TopNValue:       DefaultTopNValue,
	}
}

func isEmptySettings(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

// LoadODataInputConfig decodes stored settings over the defaults
func LoadODataInputConfig(data []byte) (ODataInputConfig, error) {
	config := DefaultODataInputConfig()
	if isEmptySettings(data) {
		return config, nil
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return ODataInputConfig{}, fmt.Errorf("failed to unmarshal odata_input settings: %w", err)
	}
	return config, nil
}

// ValidateSettings checks a settings blob before it is accepted: every key
// must be known and well typed, and the values must form a valid query.
// An absent blob stands for the defaults.
func ValidateSettings(data []byte) error {
	config := DefaultODataInputConfig()
	if isEmptySettings(data) {
		return config.Validate()
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return &odata.ConfigurationError{Reason: fmt.Sprintf("invalid settings: %v", err)}
	}
	return config.Validate()
}

// TopNEnabled reports whether TopNValue takes part in the query
// ParseODataInputConfig validates a candidate settings blob and returns it
// merged over the defaults. Every settings entry point goes through here.
func ParseODataInputConfig(data []byte) (ODataInputConfig, error) {
	if err := ValidateSettings(data); err != nil {
		return ODataInputConfig{}, err
	}
	return LoadODataInputConfig(data)
}

func (slf ODataInputConfig) TopNEnabled() bool {
	return slf.ApplyTopN
}

// ToQuerySpec builds the query of a run. Configure and Execute both go through here.
func (slf ODataInputConfig) ToQuerySpec() (odata.QuerySpec, error) {
	return odata.NewQuerySpec(slf.SelectedColumns, slf.ApplyTopN, slf.TopNValue)
}

func (slf ODataInputConfig) Validate() error {
	_, err := slf.ToQuerySpec()
	return err
}
