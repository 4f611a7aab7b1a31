package templates

import (
	"encoding/json"
	"sort"
)

// Fragment is the package.json shipped with each provider template. Known
// fields are typed; anything else is kept in Extra and written back as is.
type Fragment struct {
	Dependencies    map[string]string
	DevDependencies map[string]string
	Drizzle         DrizzleSection
	Extra           map[string]json.RawMessage
}

// DrizzleSection names the config template paired with the provider.
type DrizzleSection struct {
	Config string `json:"config"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Fragment{}
	if v, ok := raw["dependencies"]; ok {
		if err := json.Unmarshal(v, &f.Dependencies); err != nil {
			return err
		}
		delete(raw, "dependencies")
	}
	if v, ok := raw["devDependencies"]; ok {
		if err := json.Unmarshal(v, &f.DevDependencies); err != nil {
			return err
		}
		delete(raw, "devDependencies")
	}
	if v, ok := raw["drizzle"]; ok {
		if err := json.Unmarshal(v, &f.Drizzle); err != nil {
			return err
		}
		delete(raw, "drizzle")
	}
	if len(raw) > 0 {
		f.Extra = raw
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Fragment) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extra)+3)
	for k, v := range f.Extra {
		out[k] = v
	}
	if f.Dependencies != nil {
		out["dependencies"] = f.Dependencies
	}
	if f.DevDependencies != nil {
		out["devDependencies"] = f.DevDependencies
	}
	if f.Drizzle != (DrizzleSection{}) {
		out["drizzle"] = f.Drizzle
	}
	return json.Marshal(out)
}

// DependencySpecs returns the runtime dependencies as install arguments.
func (f Fragment) DependencySpecs() []string {
	return specs(f.Dependencies)
}

// DevDependencySpecs returns the dev dependencies as install arguments.
func (f Fragment) DevDependencySpecs() []string {
	return specs(f.DevDependencies)
}

// specs renders name@version pairs, dropping the version when it only says
// "whatever is newest". Output is sorted.
func specs(deps map[string]string) []string {
	result := make([]string, 0, len(deps))
	for name, version := range deps {
		switch version {
		case "", "*", "latest":
			result = append(result, name)
		default:
			result = append(result, name+"@"+version)
		}
	}
	sort.Strings(result)
	return result
}
