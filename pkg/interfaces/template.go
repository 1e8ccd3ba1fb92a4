package interfaces

import (
	"io"
)

// TemplateRenderer renders post and listing pages during static export. The
// optional writers receive the rendered output in addition to the returned
// string so the generator can stream straight into the artifact writer.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
