package vectors

import (
	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
)

const (
	JSPVectorName     = "jsp"
	jspBaseFileName   = "SimpleJSPFileUpload_"
	jspExpectedOutput = "SimpleJSPFileUpload_SasanLabs_ZAP_Identifier"
	jspScriptletCode  = `<% out.print("SimpleJSPFileUpload"); out.print("_SasanLabs_ZAP_Identifier"); %>`
	jspELCode         = `${"SimpleJSPFileUpload"}${"_SasanLabs_ZAP_Identifier"}`
)

var jspExtendedVariants = []string{"Jsp", "JSP"}

// NewJSPVector uploads JSP pages printing a marker split in two, so only an
// evaluated page can return the joined marker. The scriptlet payload runs
// before the expression language one.
func NewJSPVector() *Vector {
	scriptlet := Payload{Name: "jsp scriptlet", Content: []byte(jspScriptletCode)}
	expression := Payload{Name: "jsp expression language", Content: []byte(jspELCode)}
	defaults := build(jspBaseFileName, jspDefaultParameters("jsp")...)
	extended := build(jspBaseFileName, caseVariantParameters(jspExtendedVariants, ContentTypeJSP, onlyProvided)...)

	return &Vector{
		Name:           JSPVectorName,
		Classification: db.FileUploadRceJspCode,
		Rounds: []Round{
			{Payload: scriptlet, Mutations: defaults},
			{Payload: expression, Mutations: defaults},
			{Payload: scriptlet, Mutations: extended, Extended: true},
			{Payload: expression, Mutations: extended, Extended: true},
		},
		Matcher: matcher.NewHash(jspExpectedOutput, nil),
	}
}
