package vectors

import (
	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
)

const (
	JSPXVectorName     = "jspx"
	jspxBaseFileName   = "SimpleJSPXFileUpload_"
	jspxExpectedOutput = "SimpleJSPXFileUpload_SasanLabs_ZAP_Identifier"
	jspxPayload        = "<jsp:root xmlns:jsp=\"http://java.sun.com/JSP/Page\"  version=\"1.2\"> \n" +
		"<jsp:directive.page contentType=\"text/html\" pageEncoding=\"UTF-8\" /> \n" +
		"<jsp:scriptlet> \n" +
		"    out.print(\"SimpleJSPXFileUpload_\"); \n" +
		"\t out.print(\"SasanLabs_ZAP_Identifier\");" +
		"</jsp:scriptlet> \n" +
		"</jsp:root>"
)

// NewJSPXVector uploads a JSP document in XML syntax. The .jspx extension is
// often missing from deny lists that block .jsp.
func NewJSPXVector() *Vector {
	payload := Payload{Name: "jsp document", Content: []byte(jspxPayload)}
	return &Vector{
		Name:           JSPXVectorName,
		Classification: db.FileUploadRceJspxCode,
		Rounds: defaultAndExtended(payload,
			build(jspxBaseFileName, jspDefaultParameters("jspx")...),
			build(jspxBaseFileName, caseVariantParameters([]string{"JspX", "JSPX"}, ContentTypeJSP, onlyProvided, prefixOriginal)...),
		),
		Matcher: matcher.NewHash(jspxExpectedOutput, nil),
	}
}
