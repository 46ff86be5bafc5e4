package rules

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var builtinFS embed.FS

// DefaultCatalog is the built-in catalog used when none is configured.
const DefaultCatalog = "pediatric-journal"

// Catalog is an ordered, named set of rules.
type Catalog struct {
	Name        string
	Description string
	Rules       []Rule
}

// catalogFile is the on-disk YAML layout of a catalog.
type catalogFile struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Rules       []ruleFile `yaml:"rules"`
}

type ruleFile struct {
	Name        string `yaml:"name"`
	Instruction string `yaml:"instruction"`
}

// ParseCatalog decodes a YAML catalog. Every rule is validated and names
// must be unique within the catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	cat := &Catalog{
		Name:        cf.Name,
		Description: strings.TrimSpace(cf.Description),
		Rules:       make([]Rule, 0, len(cf.Rules)),
	}
	for i, rf := range cf.Rules {
		r, err := New(strings.TrimSpace(rf.Name), strings.TrimSpace(rf.Instruction))
		if err != nil {
			return nil, fmt.Errorf("catalog rule %d: %w", i, err)
		}
		cat.Rules = append(cat.Rules, r)
	}
	if err := CheckUnique(cat.Rules); err != nil {
		return nil, err
	}
	return cat, nil
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(filePath string) (*Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	if cat.Name == "" {
		cat.Name = strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	}
	return cat, nil
}

// Builtin returns one of the catalogs embedded in the binary.
func Builtin(name string) (*Catalog, error) {
	data, err := builtinFS.ReadFile("catalogs/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown built-in catalog %q", name)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog %q: %w", name, err)
	}
	if cat.Name == "" {
		cat.Name = name
	}
	return cat, nil
}

// BuiltinNames lists the embedded catalogs in sorted order.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("catalogs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Resolve loads a catalog by built-in name or, failing that, by file path.
// An empty ref selects DefaultCatalog.
func Resolve(ref string) (*Catalog, error) {
	if ref == "" {
		ref = DefaultCatalog
	}
	for _, name := range BuiltinNames() {
		if name == ref {
			return Builtin(name)
		}
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("catalog %q is neither built-in (%s) nor a readable file", ref, strings.Join(BuiltinNames(), ", "))
	}
	return LoadCatalog(ref)
}
