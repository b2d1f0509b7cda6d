// Package bulletindex provides a Go client for the bulletindex question
// answering service.
//
//	client := bulletindex.New("http://localhost:8080",
//	    bulletindex.WithAPIKey("secret"),
//	)
//
//	segments, _ := client.Segments(ctx)
//	resp, _ := client.Ask(ctx, "quando começa o recesso?", "AI")
//	fmt.Println(resp.Answer, resp.Sources)
//
// Cited source PDFs can be fetched with DownloadDocument and offered to the
// user for download.
package bulletindex
