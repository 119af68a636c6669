package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "RECHECK_"

// Load builds a File from defaults, the YAML file at path (skipped when path
// is empty) and the environment, then validates every profile.
func Load(path string) (*File, error) {
	var data map[string]any
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if data, err = decodeYAML(raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	return build(data, true)
}

// Parse decodes a YAML document over the defaults, without the env layer.
func Parse(raw []byte) (*File, error) {
	data, err := decodeYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return build(data, false)
}

func build(data map[string]any, withEnv bool) (*File, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if len(data) > 0 {
		if err := k.Load(rawMap(data), nil); err != nil {
			return nil, fmt.Errorf("failed to apply config file: %w", err)
		}
	}
	if withEnv {
		if err := k.Load(env.Provider(".", env.Opt{
			Prefix:        EnvPrefix,
			TransformFunc: transformEnvKey,
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	var f File
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &f,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				durationListHook,
				durationHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the log section, the defaults and every resolved profile.
func (f *File) Validate() error {
	v := validator.New()

	if err := v.Struct(f.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	var errs []error
	names := append([]string{DefaultProfileName}, f.ProfileNames()...)
	for _, name := range names {
		p, err := f.Profile(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := v.Struct(p); err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", name, err))
			continue
		}
		if _, err := p.PollConfig(); err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func decodeYAML(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return filterNilValues(data), nil
}

// filterNilValues drops nil values so they do not override defaults.
func filterNilValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if filtered := filterNilValues(nested); len(filtered) > 0 {
				out[k] = filtered
			}
			continue
		}
		out[k] = v
	}
	return out
}

// transformEnvKey maps RECHECK_PROFILES__DB__PROBE_TIMEOUT to
// profiles.db.probe_timeout.
func transformEnvKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", "."), value
}

var (
	durationType     = reflect.TypeOf(time.Duration(0))
	durationListType = reflect.TypeOf([]time.Duration(nil))
)

// durationListHook splits "2s,750ms" into elements for durationHook, which
// is how interval lists arrive from the environment.
func durationListHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != durationListType {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if s == "" {
		return []string{}, nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// durationHook accepts Go duration strings, and bare numbers as milliseconds.
func durationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case uint64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Millisecond)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return d, nil
	default:
		return data, nil
	}
}

// rawMap adapts a decoded map to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("ReadBytes not implemented")
}
