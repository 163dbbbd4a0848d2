package extractor_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/pipespec/internal/classify"
	"github.com/kpauljoseph/pipespec/internal/extractor"
	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/models"
)

type fakeSource struct {
	tables map[string][]models.Table
	err    error
	calls  []string
}

func (f *fakeSource) Tables(_ context.Context, pdfPath string) ([]models.Table, error) {
	f.calls = append(f.calls, pdfPath)
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[pdfPath], nil
}

func extractorTestLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[extractor-test] "),
		logger.WithFlags(0),
	)
	log.SetLevel(logger.LevelTrace)
	return log
}

var specHeader = []string{
	"Поз.",
	"Наименование и техническая\nхарактеристика",
	"Тип, марка оборудования",
	"Завод-\nизготовитель",
	"Ед.\nизм.",
	"Коли-\nчество",
	"Масса\nед., кг",
}

func specRow(name, qty, plant string) []string {
	return []string{"", name, "", plant, "м", qty, ""}
}

var _ = Describe("Table Extractor", func() {
	var (
		source *fakeSource
		ex     *extractor.Extractor
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = &fakeSource{tables: map[string][]models.Table{}}
		ex = extractor.New(source, extractor.DefaultSettings(), extractorTestLogger())
	})

	Context("with a standard specification table", func() {
		var records []models.Record

		BeforeEach(func() {
			source.tables["/in/ВК-1.pdf"] = []models.Table{{
				Page: 1,
				Rows: [][]string{
					{"Спецификация оборудования, изделий и материалов", "", "", "", "", "", ""},
					specHeader,
					specRow("Трубы", "", ""),
					specRow("Труба ПЭ100 SDR17 - 160 х9,50 питьевая ГОСТ 18599-2001", "120,5", " Полипластик "),
					specRow("Муфта электросварная 160", "4 шт", "Завод А"),
					specRow("Задвижка клиновая Ду150", "2", "Завод Б"),
					specRow("   ", "7", ""),
					{"", "Отвод 90° 160", ""},
					specRow("Футляр ∅325х8", "", ""),
				},
			}}

			var err error
			records, err = ex.ExtractFile(ctx, "/in/ВК-1.pdf")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep only pipes and fittings in row order", func() {
			var names []string
			for _, r := range records {
				names = append(names, r.Nomenclature)
			}
			Expect(names).To(Equal([]string{
				"Труба ПЭ100 SDR17 - 160 х9,50 питьевая ГОСТ 18599-2001",
				"Муфта электросварная 160",
				"Футляр ∅325х8",
			}))
		})

		It("should tag records with the file name stem", func() {
			for _, r := range records {
				Expect(r.SourceFile).To(Equal("ВК-1"))
			}
		})

		It("should compute mass only for pipes with dimensions", func() {
			Expect(records[0].Mass).NotTo(BeNil())
			Expect(*records[0].Mass).To(Equal(4.31))
			Expect(records[1].Mass).To(BeNil())
			Expect(*records[2].Mass).To(Equal(7.65))
		})

		It("should parse quantities and trim manufacturers", func() {
			Expect(*records[0].Quantity).To(Equal(120.5))
			Expect(records[0].Manufacturer).To(Equal("Полипластик"))
			Expect(*records[1].Quantity).To(Equal(4.0))
			Expect(records[1].Manufacturer).To(Equal("Завод А"))
			Expect(records[2].Quantity).To(BeNil())
			Expect(records[2].Manufacturer).To(BeEmpty())
		})

		It("should never set mass on something that is not a pipe", func() {
			for _, r := range records {
				if r.Mass != nil {
					Expect(classify.IsPipe(r.Nomenclature)).To(BeTrue(), r.Nomenclature)
				}
				if !classify.IsPipe(r.Nomenclature) {
					Expect(r.Mass).To(BeNil(), r.Nomenclature)
				}
			}
		})
	})

	Context("when locating the header row", func() {
		It("should skip tables with fewer than two rows", func() {
			records := ex.ExtractTables("A", []models.Table{{Rows: [][]string{specHeader}}})
			Expect(records).To(BeEmpty())
		})

		It("should skip tables whose header is not in the first five rows", func() {
			rows := [][]string{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}, specHeader, specRow("Труба 160х9,5", "1", "")}
			Expect(ex.ExtractTables("A", []models.Table{{Rows: rows}})).To(BeEmpty())
		})

		It("should accept a header in the fifth row", func() {
			rows := [][]string{{"1"}, {"2"}, {"3"}, {"4"}, specHeader, specRow("Труба 160х9,5", "1", "")}
			Expect(ex.ExtractTables("A", []models.Table{{Rows: rows}})).To(HaveLen(1))
		})

		It("should match header labels regardless of case", func() {
			header := []string{"НАИМЕНОВАНИЕ И ТЕХНИЧЕСКАЯ ХАРАКТЕРИСТИКА", "КОЛИЧЕСТВО"}
			records := ex.ExtractTables("A", []models.Table{{Rows: [][]string{header, {"Муфта 63", "3"}}}})

			Expect(records).To(HaveLen(1))
			Expect(*records[0].Quantity).To(Equal(3.0))
		})

		It("should find a header marker hyphenated across lines", func() {
			header := []string{"Поз.", "Наимено-\nвание и техническая\nхарактеристика", "Коли-\nчество"}
			rows := [][]string{{"Спецификация", "", ""}, header, {"1", "Труба 160х9,5", "2"}}
			records := ex.ExtractTables("A", []models.Table{{Rows: rows}})

			Expect(records).To(HaveLen(1))
			Expect(records[0].Nomenclature).To(Equal("Труба 160х9,5"))
			Expect(*records[0].Quantity).To(Equal(2.0))
		})

		It("should take the quantity from the first matching column", func() {
			header := []string{"Наименование и техническая характеристика", "Коли-\nчество", "Количество\nна этаж"}
			records := ex.ExtractTables("A", []models.Table{{Rows: [][]string{header, {"Муфта 63", "3", "12"}}}})

			Expect(records).To(HaveLen(1))
			Expect(*records[0].Quantity).To(Equal(3.0))
		})

		It("should skip tables without a nomenclature column", func() {
			header := []string{"Наименование документа", "Количество"}
			records := ex.ExtractTables("A", []models.Table{{Rows: [][]string{header, {"Муфта 63", "3"}}}})
			Expect(records).To(BeEmpty())
		})

		It("should keep rows when optional columns are missing", func() {
			header := []string{"Наименование и техническая характеристика"}
			records := ex.ExtractTables("A", []models.Table{{Rows: [][]string{header, {"Труба 110х6,6"}}}})

			Expect(records).To(HaveLen(1))
			Expect(records[0].Quantity).To(BeNil())
			Expect(records[0].Manufacturer).To(BeEmpty())
			Expect(*records[0].Mass).To(Equal(2.06))
		})

		It("should continue with later tables after skipping one", func() {
			tables := []models.Table{
				{Page: 1, Rows: [][]string{{"Штамп"}, {"Лист 1"}}},
				{Page: 2, Rows: [][]string{specHeader, specRow("Отвод 90 160", "2", "")}},
				{Page: 2, Index: 1, Rows: [][]string{specHeader, specRow("Фланец 160", "2", "")}},
			}
			records := ex.ExtractTables("A", tables)

			Expect(records).To(HaveLen(2))
			Expect(records[0].Nomenclature).To(Equal("Отвод 90 160"))
			Expect(records[1].Nomenclature).To(Equal("Фланец 160"))
		})
	})

	Context("with custom settings", func() {
		It("should use the configured density and keywords", func() {
			settings := extractor.DefaultSettings()
			settings.Density = 1.92
			settings.Classifier = classify.New([]string{"труба"}, nil)
			ex = extractor.New(source, settings, extractorTestLogger())

			rows := [][]string{specHeader, specRow("Труба 160х9,5", "1", ""), specRow("Муфта 160", "1", "")}
			records := ex.ExtractTables("A", []models.Table{{Rows: rows}})

			Expect(records).To(HaveLen(1))
			Expect(*records[0].Mass).To(Equal(8.62))
		})
	})

	Context("when the document cannot be read", func() {
		It("should return the wrapped source error", func() {
			cause := errors.New("xref table not found")
			source.err = cause

			records, err := ex.ExtractFile(ctx, "/in/broken.pdf")

			Expect(records).To(BeNil())
			Expect(err).To(MatchError(cause))
			Expect(err.Error()).To(ContainSubstring("failed to extract tables"))
		})
	})

	DescribeTable("ParseQuantity",
		func(raw string, expected interface{}) {
			q := extractor.ParseQuantity(raw)
			if expected == nil {
				Expect(q).To(BeNil())
				return
			}
			Expect(q).NotTo(BeNil())
			Expect(*q).To(Equal(expected))
		},
		Entry("integer", "12", 12.0),
		Entry("decimal comma with unit", "12,5 м", 12.5),
		Entry("decimal dot", " 0.75 ", 0.75),
		Entry("thousands separated by a space", "1 200", 1200.0),
		Entry("thousands separated by a no-break space", "1\u00a0200", 1200.0),
		Entry("prefix text", "~3,5", 3.5),
		Entry("first number only", "2.5.1", 2.5),
		Entry("unit only", "шт", nil),
		Entry("blank", "  ", nil),
		Entry("empty", "", nil),
	)

	Describe("ColumnResolver", func() {
		It("should let each header cell satisfy only its first matching rule", func() {
			r := extractor.NewColumnResolver([]extractor.ColumnRule{
				{Field: extractor.FieldQuantity, AnyOf: []string{"колич"}},
				{Field: extractor.FieldManufacturer, AnyOf: []string{"количество"}},
			})
			cols := r.Resolve([]string{"Количество"})

			Expect(cols).To(Equal(extractor.Columns{extractor.FieldQuantity: 0}))
		})

		It("should keep the first cell claimed for a field", func() {
			r := extractor.NewColumnResolver(extractor.DefaultRules())
			cols := r.Resolve([]string{"Завод", "Наименование и технические данные", "Изготовитель"})

			Expect(cols).To(Equal(extractor.Columns{
				extractor.FieldManufacturer: 0,
				extractor.FieldNomenclature: 1,
			}))
		})

		It("should resolve two quantity columns to the first one", func() {
			r := extractor.NewColumnResolver(extractor.DefaultRules())
			cols := r.Resolve([]string{"Наименование и техническая характеристика", "Количество", "Количество всего"})

			Expect(cols).To(HaveKeyWithValue(extractor.FieldQuantity, 1))
			Expect(cols).NotTo(HaveKeyWithValue(extractor.FieldQuantity, 2))
		})

		It("should ignore rules without terms", func() {
			r := extractor.NewColumnResolver([]extractor.ColumnRule{{Field: extractor.FieldQuantity}})
			Expect(r.Resolve([]string{"anything"})).To(BeEmpty())
		})

		DescribeTable("NormalizeHeader",
			func(raw, expected string) {
				Expect(extractor.NormalizeHeader(raw)).To(Equal(expected))
			},
			Entry("hyphenated line break", "Завод-\nизготовитель", "заводизготовитель"),
			Entry("spaces and case", "Наименование И Техническая", "наименованиеитехническая"),
			Entry("soft hyphen", "Коли\u00adчество", "количество"),
			Entry("marker split by a hyphen", "Наимено-\nвание", "наименование"),
		)
	})
})
