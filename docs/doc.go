// Package docs provides the OpenAPI documentation for the pdf-o-matico API.
//
// pdf-o-matico API
//
//	@title			pdf-o-matico API
//	@version		1.0
//	@description	Split, merge, compress, rasterize, extract and rotate PDF documents.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/wallsified/pdf-o-matico
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/pdfomatico/serve.go -o . --parseInternal
