// Package catalog holds the fixed stone catalog and oracle deck the
// readings draw from. Both ship embedded in the binary; an env-provided
// YAML path overrides the embedded copy for catalog experiments.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

const (
	stoneCatalogEnv = "STONE_CATALOG_YAML"
	oracleDeckEnv   = "ORACLE_DECK_YAML"
)

//go:embed stones.yaml oracle.yaml
var catalogFS embed.FS

type StoneSpec struct {
	Name    string   `yaml:"name"`
	Slug    string   `yaml:"slug"`
	Color   string   `yaml:"color"`
	SizesMM []int    `yaml:"sizes_mm"`
	Virtues []string `yaml:"virtues"`
}

type OracleCardSpec struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type stoneFile struct {
	Stones []StoneSpec `yaml:"stones"`
}

type oracleFile struct {
	Cards []OracleCardSpec `yaml:"cards"`
}

type Catalog struct {
	stones []StoneSpec
	byName map[string]StoneSpec
	cards  []OracleCardSpec
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load parses the stone catalog and oracle deck once per process.
func Load(log *logger.Logger) (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = load(log)
	})
	return loaded, loadErr
}

func load(log *logger.Logger) (*Catalog, error) {
	stoneRaw, err := readSource(stoneCatalogEnv, "stones.yaml", log)
	if err != nil {
		return nil, err
	}
	oracleRaw, err := readSource(oracleDeckEnv, "oracle.yaml", log)
	if err != nil {
		return nil, err
	}

	var sf stoneFile
	if err := yaml.Unmarshal(stoneRaw, &sf); err != nil {
		return nil, fmt.Errorf("parse stone catalog: %w", err)
	}
	if len(sf.Stones) == 0 {
		return nil, fmt.Errorf("stone catalog is empty")
	}

	var of oracleFile
	if err := yaml.Unmarshal(oracleRaw, &of); err != nil {
		return nil, fmt.Errorf("parse oracle deck: %w", err)
	}
	if len(of.Cards) == 0 {
		return nil, fmt.Errorf("oracle deck is empty")
	}

	byName := make(map[string]StoneSpec, len(sf.Stones))
	for _, s := range sf.Stones {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Slug) == "" {
			return nil, fmt.Errorf("stone catalog entry missing name or slug: %+v", s)
		}
		byName[s.Name] = s
	}

	return &Catalog{stones: sf.Stones, byName: byName, cards: of.Cards}, nil
}

// readSource prefers the env-pointed file, falling back to the embedded
// copy when the path is unset or unreadable.
func readSource(envName, embeddedName string, log *logger.Logger) ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(envName)); path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			return raw, nil
		}
		if log != nil {
			log.Warn("catalog override unreadable, using embedded copy",
				"env", envName, "path", path, "error", err)
		}
	}
	return catalogFS.ReadFile(embeddedName)
}

func (c *Catalog) Stones() []StoneSpec { return c.stones }

func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[strings.TrimSpace(name)]
	return ok
}

// Slug returns the product slug for a stone name, or "" when unknown.
func (c *Catalog) Slug(name string) string {
	s, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return ""
	}
	return s.Slug
}

// Cards returns the oracle deck in catalog order.
func (c *Catalog) Cards() []OracleCardSpec { return c.cards }

// PromptList renders the stone list the way the generation prompt expects:
// one "- 名前（色、サイズ）: 効能" bullet per stone.
func (c *Catalog) PromptList() string {
	var b strings.Builder
	for _, s := range c.stones {
		sizes := make([]string, 0, len(s.SizesMM))
		for _, mm := range s.SizesMM {
			sizes = append(sizes, fmt.Sprintf("%dmm", mm))
		}
		b.WriteString(fmt.Sprintf("- %s（%s、%s）: %s\n",
			s.Name, s.Color, strings.Join(sizes, "/"), strings.Join(s.Virtues, "、")))
	}
	return b.String()
}
