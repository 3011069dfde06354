package capability

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
)

const documentsPrompt = `
Kamu adalah agen informasi untuk dokumen guest house (kos).

Kamu menerima JSON:

{
  "history": [...],
  "question": "...",
  "passages": ["...", "..."]
}

Aturan:
- Jawab HANYA berdasarkan passages.
- Jika jawabannya tidak ada di passages, jawab:
  "Maaf, saya tidak menemukan informasi tersebut dalam dokumen yang tersedia."
- Selalu gunakan bahasa Indonesia.
- Jangan menebak.
`

const (
	NotFoundText = "Maaf, saya tidak menemukan informasi tersebut dalam dokumen yang tersedia."
	maxPassages  = 3
)

type passage struct {
	source string
	text   string
	terms  map[string]bool
}

// Documents answers policy and FAQ questions from text files in a directory.
type Documents struct {
	ai       ai.AI
	passages []passage
}

// LoadDocuments reads every .txt and .md file under dir, one passage per
// blank-line separated paragraph. A missing dir yields an empty corpus.
func LoadDocuments(dir string, c ai.AI) (*Documents, error) {
	d := &Documents{ai: c}

	err := filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if e.IsDir() || (ext != ".txt" && ext != ".md") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		d.add(filepath.Base(path), string(b))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[documents] dir %s does not exist, corpus is empty", dir)
			return d, nil
		}
		return nil, err
	}

	log.Printf("[documents] loaded %d passages from %s", len(d.passages), dir)
	return d, nil
}

func (d *Documents) add(source, body string) {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		d.passages = append(d.passages, passage{source: source, text: para, terms: terms(para)})
	}
}

func (d *Documents) Handle(ctx context.Context, req router.Request) (string, error) {
	hits := d.search(req.Text, maxPassages)
	if len(hits) == 0 {
		return NotFoundText, nil
	}

	if d.ai == nil {
		return strings.Join(hits, "\n\n"), nil
	}
	if err := req.Budget.Spend(); err != nil {
		return "", err
	}

	input := map[string]any{
		"history":  req.History,
		"question": req.Text,
		"passages": hits,
	}
	b, err := jsonString(input)
	if err != nil {
		return "", err
	}
	return d.ai.GetReply(ctx, documentsPrompt, []ai.Message{{Role: ai.RoleUser, Text: b}})
}

// search ranks passages by how many query terms they contain.
func (d *Documents) search(query string, limit int) []string {
	q := terms(query)
	if len(q) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, p := range d.passages {
		n := 0
		for t := range q {
			if p.terms[t] {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{idx: i, score: n})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = d.passages[h.idx].text
	}
	return out
}

var stopwords = map[string]bool{
	"yang": true, "dan": true, "di": true, "ke": true, "dari": true, "apa": true,
	"apakah": true, "saya": true, "ada": true, "untuk": true, "dengan": true,
	"ini": true, "itu": true, "bisa": true, "boleh": true, "the": true, "is": true,
	"kos": true, "berapa": true, "bagaimana": true,
}

func terms(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}
