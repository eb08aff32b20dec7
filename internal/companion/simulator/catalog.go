package simulator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FallbackCategory is the name of the pool used when no keyword matches.
const FallbackCategory = "default"

// Category is a named pool of canned replies selected by keyword.
type Category struct {
	Name      string
	Keywords  []string // matched as lower-case substrings
	Responses []string
	Priority  int // lower is checked first
}

// Catalog holds the keyword categories in match order plus the fallback pool.
type Catalog struct {
	categories []Category
	fallback   Category
}

// DefaultCatalog returns the built-in pools: greeting, programming, ai and
// the fallback.
func DefaultCatalog() *Catalog {
	return &Catalog{
		categories: []Category{
			{
				Name:     "greeting",
				Priority: 10,
				Keywords: []string{"ciao", "salve", "buongiorno"},
				Responses: []string{
					"Ciao! 👋 Sono il tuo AI Text Companion. Come posso aiutarti oggi?",
					"Benvenuto! Sono qui per rispondere alle tue domande. Cosa ti piacerebbe sapere?",
					"Salve! È un piacere conoscerti. Sono pronto ad assisterti.",
				},
			},
			{
				Name:     "programming",
				Priority: 20,
				Keywords: []string{"programm", "codice", "coding"},
				Responses: []string{
					"La programmazione è l'arte di dare istruzioni a un computer. Inizia con concetti base come variabili, cicli e funzioni. Ti consiglio di scegliere un linguaggio come Python o JavaScript per iniziare! 💻",
					"Ottima domanda sulla programmazione! I concetti fondamentali sono: variabili (contenitori di dati), funzioni (blocchi di codice riutilizzabili), e strutture di controllo (if/else, loop). Vuoi approfondire qualcuno di questi?",
				},
			},
			{
				Name:     "ai",
				Priority: 30,
				Keywords: []string{"ai", "intelligenza artificiale", "machine learning"},
				Responses: []string{
					"L'Intelligenza Artificiale è un campo affascinante! In sintesi, è la capacità delle macchine di simulare l'intelligenza umana. I modelli come me usano reti neurali addestrate su enormi quantità di testo. 🤖",
					"L'AI moderna si basa su machine learning e deep learning. I modelli linguistici come GPT usano l'architettura Transformer per comprendere e generare testo. È come avere miliardi di pattern appresi!",
				},
			},
		},
		fallback: Category{
			Name: FallbackCategory,
			Responses: []string{
				"Questa è una domanda interessante! In un'applicazione reale, qui riceveresti una risposta dall'API di un modello come GPT-4 o Claude. La risposta sarebbe generata in base al contesto della conversazione. 🌟",
				"Bella domanda! Sto simulando una risposta AI. In produzione, il tuo messaggio verrebbe inviato a un'API come OpenAI, che analizzerebbe il contesto e genererebbe una risposta pertinente.",
				"Hmm, fammi pensare... In un sistema reale, il modello AI processerebbe tutti i messaggi precedenti per darti una risposta contestuale. È così che manteniamo la coerenza nella conversazione! 💡",
			},
		},
	}
}

// Categories returns the keyword categories in match order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Fallback returns the pool used when nothing matches.
func (c *Catalog) Fallback() Category {
	return c.fallback
}

// Lookup returns the category with the given name, including the fallback.
func (c *Catalog) Lookup(name string) (Category, bool) {
	if name == FallbackCategory {
		return c.fallback, true
	}
	for _, cat := range c.categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// Match returns the first category whose keywords occur in message, or the
// fallback. Matching is case-insensitive.
func (c *Catalog) Match(message string) Category {
	lower := strings.ToLower(message)
	for _, cat := range c.categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return cat
			}
		}
	}
	return c.fallback
}

// Set adds or replaces a category. Setting FallbackCategory replaces the
// fallback pool and ignores keywords.
func (c *Catalog) Set(cat Category) error {
	if len(cat.Responses) == 0 {
		return fmt.Errorf("category %q has no responses", cat.Name)
	}
	if cat.Name == FallbackCategory {
		c.fallback = Category{Name: FallbackCategory, Responses: cat.Responses}
		return nil
	}
	if len(cat.Keywords) == 0 {
		return fmt.Errorf("category %q has no keywords", cat.Name)
	}
	for i, kw := range cat.Keywords {
		cat.Keywords[i] = strings.ToLower(kw)
	}

	replaced := false
	for i, existing := range c.categories {
		if existing.Name == cat.Name {
			c.categories[i] = cat
			replaced = true
			break
		}
	}
	if !replaced {
		c.categories = append(c.categories, cat)
	}
	sort.SliceStable(c.categories, func(i, j int) bool {
		return c.categories[i].Priority < c.categories[j].Priority
	})
	return nil
}

// catalogFile represents the structure of a TOML response catalog file
type catalogFile struct {
	Keywords  []string `toml:"keywords"`
	Responses []string `toml:"responses"`
	Priority  *int     `toml:"priority,omitempty"`
}

// defaultCustomPriority places new categories after the built-in ones.
const defaultCustomPriority = 100

// LoadCatalog starts from DefaultCatalog and applies every *.toml file found
// in dirs. The file name (without extension) is the category name. Later
// directories take precedence over earlier ones; missing directories are
// skipped.
func LoadCatalog(dirs []string) (*Catalog, error) {
	catalog := DefaultCatalog()

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error reading response directory '%s': %v", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".toml")
			path := filepath.Join(dir, entry.Name())

			var file catalogFile
			if _, err := toml.DecodeFile(path, &file); err != nil {
				return nil, fmt.Errorf("error decoding response file '%s': %v", path, err)
			}

			cat := Category{
				Name:      name,
				Keywords:  file.Keywords,
				Responses: file.Responses,
				Priority:  defaultCustomPriority,
			}
			if existing, ok := catalog.Lookup(name); ok {
				cat.Priority = existing.Priority
				if len(cat.Keywords) == 0 {
					cat.Keywords = existing.Keywords
				}
			}
			if file.Priority != nil {
				cat.Priority = *file.Priority
			}
			if err := catalog.Set(cat); err != nil {
				return nil, fmt.Errorf("invalid response file '%s': %w", path, err)
			}
		}
	}

	return catalog, nil
}
