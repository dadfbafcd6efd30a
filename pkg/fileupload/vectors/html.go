package vectors

import (
	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
)

const (
	HTMLVectorName   = "html"
	htmlBaseFileName = "HtmlFileUpload_"
	htmlPayload      = "<html><head></head><body>Testing XSS</body></html>"
)

var (
	htmlExtensions       = []string{"htm", "html", "xhtml"}
	htmlExtendedVariants = []string{"Htm", "hTM", "HTM", "Html", "HtMl", "HTMl", "HTML", "Xhtml", "xHTml", "xhTML", "xHTML", "XHTML"}
)

// xssPrecondition only accepts responses a browser renders in place as a
// script capable document.
var xssPrecondition = matcher.All(matcher.ContentDispositionInline, matcher.ScriptExecutable)

func htmlDefaultParameters() []parameter {
	var parameters []parameter
	parameters = append(parameters, eachExtension(htmlExtensions, "", onlyProvided)...)
	parameters = append(parameters, eachExtension(htmlExtensions, ContentTypeHTML, onlyProvided)...)
	parameters = append(parameters, eachExtension(htmlExtensions, ContentTypeText, onlyProvided)...)
	parameters = append(parameters, eachExtension(htmlExtensions, ContentTypeHTML, prefixOriginal)...)
	parameters = append(parameters, eachExtension(htmlExtensions, ContentTypeHTML, withNullByte)...)
	parameters = append(parameters, eachExtension(htmlExtensions, ContentTypeText, withNullByte)...)
	return parameters
}

func htmlExtendedParameters() []parameter {
	var parameters []parameter
	parameters = append(parameters, eachExtension(htmlExtendedVariants, "", onlyProvided)...)
	parameters = append(parameters, eachExtension(htmlExtendedVariants, ContentTypeHTML, onlyProvided)...)
	parameters = append(parameters, eachExtension(htmlExtendedVariants, ContentTypeText, onlyProvided)...)
	parameters = append(parameters, eachExtension(htmlExtendedVariants, ContentTypeHTML, prefixOriginal)...)
	parameters = append(parameters, eachExtension(htmlExtendedVariants, ContentTypeText, prefixOriginal)...)
	parameters = append(parameters, eachExtension(htmlExtendedVariants, ContentTypeText, withNullByte)...)
	parameters = append(parameters, eachExtension(htmlExtendedVariants, ContentTypeHTML, withNullByte)...)
	return parameters
}

// NewHTMLVector uploads an HTML document and expects it back byte for byte,
// served inline as a script capable document.
func NewHTMLVector() *Vector {
	payload := Payload{Name: "html document", Content: []byte(htmlPayload)}
	return &Vector{
		Name:           HTMLVectorName,
		Classification: db.FileUploadXssHtmlCode,
		Rounds: defaultAndExtended(payload,
			build(htmlBaseFileName, htmlDefaultParameters()...),
			build(htmlBaseFileName, htmlExtendedParameters()...),
		),
		Matcher: matcher.NewHash(htmlPayload, xssPrecondition),
	}
}
