package acceptance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kpauljoseph/pipespec/internal/pdf/pdftest"
)

// ScenarioDigest is the expected records digest of one end-to-end scenario.
type ScenarioDigest struct {
	Scenario string `json:"scenario"`
	Records  int    `json:"records"`
	Digest   string `json:"digest"`
}

// DigestStore keeps golden digests in testdata/expected_digests.json.
// Run with UPDATE_TEST_DATA=true to rewrite them.
type DigestStore struct {
	path          string
	updateDigests bool
	digests       map[string]ScenarioDigest
}

func NewDigestStore(testDataPath string) *DigestStore {
	return &DigestStore{
		path:          filepath.Join(testDataPath, "expected_digests.json"),
		updateDigests: os.Getenv("UPDATE_TEST_DATA") == "true",
		digests:       make(map[string]ScenarioDigest),
	}
}

func (s *DigestStore) Load() error {
	if s.updateDigests {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read digest file: %w", err)
	}

	var list []ScenarioDigest
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to parse digest file: %w", err)
	}

	for _, d := range list {
		s.digests[d.Scenario] = d
	}

	return nil
}

func (s *DigestStore) Save() error {
	if !s.updateDigests {
		return nil
	}

	list := make([]ScenarioDigest, 0, len(s.digests))
	for _, d := range s.digests {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Scenario < list[j].Scenario
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal digests: %w", err)
	}

	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write digest file: %w", err)
	}

	return nil
}

func (s *DigestStore) Update(scenario string, records int, digest string) {
	if !s.updateDigests {
		return
	}

	s.digests[scenario] = ScenarioDigest{
		Scenario: scenario,
		Records:  records,
		Digest:   digest,
	}
}

func (s *DigestStore) Get(scenario string) (ScenarioDigest, bool) {
	d, ok := s.digests[scenario]
	return d, ok
}

func (s *DigestStore) IsUpdateMode() bool {
	return s.updateDigests
}

var specColumns = []float64{20, 45, 215, 300, 370, 400, 450}

var specHeader = []string{
	"Поз.",
	"Наимено-\nвание и техническая\nхарактеристика",
	"Тип, марка",
	"Завод-\nизготовитель",
	"Ед.\nизм.",
	"Коли-\nчество",
}

// WriteSpecPDFs writes two specification documents into dir. A.pdf holds a
// framed table with a pipe row under a title row. B.pdf holds a stroked table
// with a fitting row and, on its second page, a scaled title block.
func WriteSpecPDFs(dir string) error {
	a := pdftest.NewPage().Table(pdftest.Framed, 780, specColumns, [][]string{
		{"Спецификация оборудования", "", "", "", "", ""},
		specHeader,
		{"1", "Труба ПЭ100 SDR17 160х9,5", "ГОСТ 18599-2001", "Полипластик", "м", "120,5 м"},
		{"2", "Кран шаровой", "", "", "шт", "2"},
	})
	if err := pdftest.Write(filepath.Join(dir, "A.pdf"), a); err != nil {
		return err
	}

	b1 := pdftest.NewPage().Table(pdftest.Stroked, 780, specColumns, [][]string{
		specHeader,
		{"1", "Муфта электросварная 110", "", "Завод А", "шт", "4"},
	})
	b2 := pdftest.NewPage().
		Transform(0.5, 0, 0, 0.5, 300, 20).
		Table(pdftest.Framed, 200, []float64{300, 400, 500}, [][]string{{"Штамп", "Лист"}}).
		Restore()
	return pdftest.Write(filepath.Join(dir, "B.pdf"), b1, b2)
}

// WriteStubPDFs creates placeholder files so the directory scanner finds them.
func WriteStubPDFs(dir string, names ...string) error {
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4\n%%EOF\n"), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
