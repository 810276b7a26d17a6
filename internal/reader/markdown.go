package reader

// MarkdownFormat implements Format for Markdown files. The source is read as
// plain text so heading lines keep their own line.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

func (f *MarkdownFormat) Extract(filename string) (string, error) {
	return readPlainText(filename)
}
