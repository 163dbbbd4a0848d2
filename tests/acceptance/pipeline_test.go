package acceptance_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/kpauljoseph/pipespec/internal/batch"
	"github.com/kpauljoseph/pipespec/internal/config"
	"github.com/kpauljoseph/pipespec/internal/extractor"
	"github.com/kpauljoseph/pipespec/internal/pdf"
	"github.com/kpauljoseph/pipespec/internal/report"
	"github.com/kpauljoseph/pipespec/internal/scanner"
	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/tests/acceptance"
)

const scenario = "two_documents_one_broken"

func getTestDataPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Could not get current file path")
	}

	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(projectRoot, "tests", "acceptance", "testdata")
}

var _ = Describe("pipespec End-to-End", Ordered, func() {
	var (
		store    *acceptance.DigestStore
		tempDir  string
		inputDir string
		output   string
		cfg      *config.Config
		log      *logger.Logger
		ctx      context.Context
	)

	BeforeAll(func() {
		store = acceptance.NewDigestStore(getTestDataPath())
		Expect(store.Load()).To(Succeed())
	})

	AfterAll(func() {
		Expect(store.Save()).To(Succeed())
	})

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		tempDir, err = os.MkdirTemp("", "pipespec-acceptance-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tempDir)

		inputDir = filepath.Join(tempDir, "pdf")
		Expect(os.Mkdir(inputDir, 0755)).To(Succeed())
		Expect(acceptance.WriteSpecPDFs(inputDir)).To(Succeed())
		Expect(acceptance.WriteStubPDFs(inputDir, "C.pdf")).To(Succeed())

		output = filepath.Join(tempDir, "reports", "specifications_full.xlsx")
		configPath := filepath.Join(tempDir, "pipespec.yaml")
		yaml := fmt.Sprintf("input_dir: %q\noutput_file: %q\nreport:\n  sheet_name: Трубопроводы\n", inputDir, output)
		Expect(os.WriteFile(configPath, []byte(yaml), 0644)).To(Succeed())

		cfg, err = config.Load(configPath, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).To(Succeed())

		log = logger.New(
			logger.WithOutput(GinkgoWriter),
			logger.WithPrefix("[acceptance] "),
			logger.WithFlags(0),
		)
	})

	run := func() *batch.Result {
		settings := cfg.ExtractorSettings()
		driver := batch.New(
			scanner.New(log),
			extractor.New(pdf.NewDocumentSource(pdf.DefaultGridOptions(), log), settings, log),
			settings.Classifier,
			log,
		)
		result, err := driver.Run(ctx, cfg.InputDir)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	It("should extract pipes and fittings and skip the broken document", func() {
		result := run()

		Expect(result.Summary.PDFCount).To(Equal(3))
		Expect(result.Summary.FailedCount).To(Equal(1))
		Expect(result.Summary.FailedFiles).To(Equal([]string{"C.pdf"}))

		Expect(result.Records).To(HaveLen(2))

		pipe := result.Records[0]
		Expect(pipe.SourceFile).To(Equal("A"))
		Expect(pipe.Nomenclature).To(Equal("Труба ПЭ100 SDR17 160х9,5"))
		Expect(pipe.Quantity).To(HaveValue(BeNumerically("==", 120.5)))
		Expect(pipe.Mass).To(HaveValue(BeNumerically("==", 4.31)))
		Expect(pipe.Manufacturer).To(Equal("Полипластик"))

		fitting := result.Records[1]
		Expect(fitting.SourceFile).To(Equal("B"))
		Expect(fitting.Quantity).To(HaveValue(BeNumerically("==", 4)))
		Expect(fitting.Mass).To(BeNil())
	})

	It("should match the recorded digest", func() {
		result := run()

		if store.IsUpdateMode() {
			store.Update(scenario, result.Summary.RecordCount, result.Summary.Digest)
			Skip("recorded digest for " + scenario)
		}

		expected, ok := store.Get(scenario)
		Expect(ok).To(BeTrue(), "no recorded digest for %s, run with UPDATE_TEST_DATA=true", scenario)
		Expect(result.Summary.RecordCount).To(Equal(expected.Records))
		Expect(result.Summary.Digest).To(Equal(expected.Digest))
	})

	It("should write the grouped workbook", func() {
		result := run()

		writer := report.NewWriter(cfg.ReportLayout(), log)
		Expect(writer.Write(result.Records, cfg.OutputFile)).To(Succeed())

		f, err := excelize.OpenFile(output)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		sheet := "Трубопроводы"
		Expect(f.GetSheetList()).To(Equal([]string{sheet}))

		expected := map[string]string{
			"A1": "Файл",
			"B1": "Номенклатура",
			"E1": "Завод изготовитель",
			"A2": "A",
			"B3": "Труба ПЭ100 SDR17 160х9,5",
			"C3": "120.5",
			"D3": "4.31",
			"E3": "Полипластик",
			"A4": "",
			"A5": "B",
			"B6": "Муфта электросварная 110",
			"C6": "4",
			"D6": "",
			"E6": "Завод А",
			"A7": "",
		}
		for cell, want := range expected {
			got, err := f.GetCellValue(sheet, cell)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want), "cell %s", cell)
		}

		merged, err := f.GetMergeCells(sheet)
		Expect(err).NotTo(HaveOccurred())
		var ranges []string
		for _, m := range merged {
			ranges = append(ranges, m.GetStartAxis()+":"+m.GetEndAxis())
		}
		Expect(ranges).To(ConsistOf("A2:E2", "A5:E5"))
	})

	It("should produce the same records on a rerun", func() {
		first := run()
		second := run()

		Expect(second.Records).To(Equal(first.Records))
		Expect(second.Summary.Digest).To(Equal(first.Summary.Digest))
	})

	It("should decline to write a report for an empty directory", func() {
		emptyDir := filepath.Join(tempDir, "empty")
		Expect(os.Mkdir(emptyDir, 0755)).To(Succeed())
		cfg.InputDir = emptyDir

		result := run()
		Expect(result.Records).To(BeEmpty())

		writer := report.NewWriter(cfg.ReportLayout(), log)
		Expect(writer.Write(result.Records, cfg.OutputFile)).To(MatchError(report.ErrNoRecords))
		Expect(output).NotTo(BeAnExistingFile())
	})
})
