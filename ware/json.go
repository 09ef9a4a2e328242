package ware

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

const filePermissions = 0o644

// sorted map keys keep dumped output stable
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// DumpJSONToEnv stores v as JSON in the environment variable key.
func DumpJSONToEnv(key string, v any) error {
	return logging.Catch(func() error {
		data, err := jsonAPI.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}

		return os.Setenv(key, string(data))
	})
}

// LoadJSONFromEnv decodes the JSON held by the environment variable key into a T.
// An unset variable is ErrMissingValue.
func LoadJSONFromEnv[T any](key string) (T, error) {
	return logging.CatchValue(func() (T, error) {
		var result T

		raw, found := os.LookupEnv(key)
		if !found {
			return result, fmt.Errorf("%w: environment variable %s is not set", ErrMissingValue, key)
		}

		if err := jsonAPI.UnmarshalFromString(raw, &result); err != nil {
			return result, fmt.Errorf("decoding %s: %w", key, err)
		}

		return result, nil
	})
}

// SaveJSON writes v as indented JSON to path.
func SaveJSON(path string, v any) error {
	return logging.Catch(func() error {
		data, err := jsonAPI.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}

		return os.WriteFile(path, append(data, '\n'), filePermissions)
	})
}

// LoadJSON reads the JSON object stored at path.
// A file holding anything but an object is ErrUnexpectedType.
func LoadJSON(path string) (map[string]any, error) {
	return logging.CatchValue(func() (map[string]any, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var decoded any
		if err = jsonAPI.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}

		object, ok := decoded.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %T, expected an object", ErrUnexpectedType, path, decoded)
		}

		return object, nil
	})
}
