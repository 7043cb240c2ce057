// Package html2pdf converts HTML documents to PDF with one of three
// interchangeable rendering engines.
//
// # Quick Start
//
// Create a converter and convert a file:
//
//	conv := html2pdf.NewConverter()
//
//	result, err := conv.Convert(ctx, html2pdf.Request{
//	    Input: "report.html",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("wrote", result.Output, result.Pages, "pages")
//
// Without Request.Output the PDF is written next to the input with a .pdf
// extension. Missing output directories are created.
//
// # Engines
//
//   - box: CSS box-layout renderer (WeasyPrint). Loads the document from disk,
//     resolves relative references against Request.BaseURL and applies
//     Request.Stylesheets.
//   - box-fonts: the same renderer with one font configuration shared by the
//     document and every stylesheet, a media type (print or screen) and
//     presentational hints for legacy HTML attributes.
//   - browser: headless Chrome through go-rod (default) or Playwright. A
//     working copy of the document is preprocessed first: lazy-loaded images
//     get their real source and local references become file URIs. The page
//     is printed once it reaches Request.Wait and a short settle delay passed.
//
// Stylesheets that do not exist are skipped with a warning in
// Result.Warnings; they never fail the conversion.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv := html2pdf.NewConverter(
//	    html2pdf.WithTimeout(5 * time.Minute),
//	    html2pdf.WithBrowserDriver(html2pdf.DriverPlaywright),
//	    html2pdf.WithPage(html2pdf.PageSettings{Format: "letter", Margin: "0.5in"}),
//	    html2pdf.WithLogger(logger),
//	)
//
// # Markdown Sources
//
// Inputs ending in .md or .markdown are rendered to HTML with Goldmark first
// and then follow the same path as HTML inputs.
//
// # Error Handling
//
// Validation failures wrap ErrNotFound or ErrInvalidInput and happen before
// anything is written. Engine failures are returned as *RenderError, which
// unwraps to the cause:
//
//	var re *html2pdf.RenderError
//	if errors.As(err, &re) {
//	    fmt.Println("engine", re.Engine, "failed")
//	}
//	if errors.Is(err, html2pdf.ErrEngineNotFound) {
//	    // WeasyPrint is not installed
//	}
//
// Every written PDF is checked with pdfcpu unless WithVerify(false) is set;
// an invalid file is removed and reported as ErrInvalidPDF.
package html2pdf
