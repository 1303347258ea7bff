package settings

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads a JSON settings file and fills the gaps with defaults
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}

	var s Settings
	if err = json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: %s: %w", path, err)
	}

	return Fill(s), nil
}
