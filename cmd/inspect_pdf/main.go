package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/kpauljoseph/pipespec/internal/pdf"
	"github.com/kpauljoseph/pipespec/pkg/logger"
)

func main() {
	pdfPath := flag.String("file", "", "Path to PDF file")
	showText := flag.Bool("text", true, "print the raw text of every page")
	showTables := flag.Bool("tables", true, "print the ruled tables detected on every page")
	debug := flag.Bool("debug", false, "enable trace logging")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Println("Please provide a PDF file path using -file flag")
		os.Exit(1)
	}

	fmt.Printf("Analyzing PDF: %s\n", *pdfPath)

	dims, err := pdf.PageDimensions(*pdfPath)
	if err != nil {
		fmt.Printf("Error getting page dimensions: %v\n", err)
		os.Exit(1)
	}

	for i, dim := range dims {
		fmt.Printf("\nPage %d:\n", i+1)
		fmt.Printf("Dimensions (Width x Height): %.3f x %.3f points\n", dim.Width, dim.Height)
	}

	if *showText {
		if err := printText(*pdfPath); err != nil {
			fmt.Printf("Error reading text: %v\n", err)
			os.Exit(1)
		}
	}

	if *showTables {
		log := logger.New(logger.WithPrefix("[inspect_pdf] "))
		if *debug {
			log.SetLevel(logger.LevelTrace)
		}
		if err := printTables(*pdfPath, log); err != nil {
			fmt.Printf("Error detecting tables: %v\n", err)
			os.Exit(1)
		}
	}
}

func printText(pdfPath string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			return fmt.Errorf("failed to read text of page %d: %w", pageNum+1, err)
		}
		fmt.Printf("\n--- Page %d text ---\n%s\n", pageNum+1, text)
	}
	return nil
}

func printTables(pdfPath string, log *logger.Logger) error {
	source := pdf.NewDocumentSource(pdf.DefaultGridOptions(), log)
	tables, err := source.Tables(context.Background(), pdfPath)
	if err != nil {
		return err
	}

	fmt.Printf("\nDetected %d tables\n", len(tables))
	for _, table := range tables {
		fmt.Printf("\n--- Page %d, table %d (%d rows) ---\n", table.Page, table.Index+1, len(table.Rows))
		for i, row := range table.Rows {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = strings.ReplaceAll(c, "\n", " ")
			}
			fmt.Printf("%3d | %s\n", i, strings.Join(cells, " | "))
		}
	}
	return nil
}
